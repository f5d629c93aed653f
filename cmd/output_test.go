package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pksim/pksim/pk"
)

func TestWriteSeriesCSV(t *testing.T) {
	series := pk.ConcentrationSeries{Points: []pk.SeriesPoint{
		{TimeDays: 0, Concentration: 0},
		{TimeDays: 0.5, Concentration: 312.25},
	}}
	path := filepath.Join(t.TempDir(), "series.csv")

	err := WriteSeriesCSV(series, path)
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "day,ng_per_dl", lines[0])
	assert.Equal(t, "0.5000,312.2500", lines[2])
}
