package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pksim/pksim/pk"
)

// YAML schema for observed lab samples.
type samplesFile struct {
	Samples []sampleEntry `yaml:"samples"`
}

type sampleEntry struct {
	Day   float64 `yaml:"day"`
	Value float64 `yaml:"value"`
}

// LoadSamples reads a YAML sample list.
func LoadSamples(path string) ([]pk.Sample, error) {
	if path == "" {
		return nil, fmt.Errorf("no samples file given")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	var file samplesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing samples: %w", err)
	}

	samples := make([]pk.Sample, len(file.Samples))
	for i, entry := range file.Samples {
		samples[i] = pk.Sample{TimeDays: entry.Day, Observed: entry.Value}
	}
	return samples, nil
}
