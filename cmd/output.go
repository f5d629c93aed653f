package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pksim/pksim/pk"
)

// WriteSeriesCSV writes a concentration series as `day,ng_per_dl` rows. An
// empty path writes to stdout.
func WriteSeriesCSV(series pk.ConcentrationSeries, path string) error {
	var out io.Writer = os.Stdout
	if path != "" {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer file.Close()
		out = file
	}

	writer := bufio.NewWriter(out)
	if _, err := fmt.Fprintln(writer, "day,ng_per_dl"); err != nil {
		return err
	}
	for _, p := range series.Points {
		if _, err := fmt.Fprintf(writer, "%.4f,%.4f\n", p.TimeDays, p.Concentration); err != nil {
			return err
		}
	}
	return writer.Flush()
}
