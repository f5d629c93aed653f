package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pksim/pksim/pk"
)

// YAML schema for a compound parameter table file.
type compoundsFile struct {
	Compounds []compoundEntry `yaml:"compounds"`
}

type compoundEntry struct {
	Name             string                `yaml:"name"`
	Class            string                `yaml:"class"`
	Ester            string                `yaml:"ester"`
	HalfLifeDays     float64               `yaml:"half_life_days"`
	VdLiters         float64               `yaml:"vd_liters"`
	ClearanceLPerDay float64               `yaml:"clearance_l_per_day"`
	Routes           map[string]routeEntry `yaml:"routes"`
}

type routeEntry struct {
	Bioavailability float64 `yaml:"bioavailability"`
	KaPerDay        float64 `yaml:"ka_per_day"`
}

// LoadCompoundTable reads a YAML parameter table, or returns the built-in
// reference table when no path is given. Every loaded record is validated
// before use.
func LoadCompoundTable(path string) (pk.Table, error) {
	if path == "" {
		return pk.DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compound table: %w", err)
	}
	var file compoundsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing compound table: %w", err)
	}

	table := make(pk.Table, len(file.Compounds))
	for _, entry := range file.Compounds {
		routes := make(map[pk.Route]pk.RouteParams, len(entry.Routes))
		for name, rp := range entry.Routes {
			routes[pk.Route(name)] = pk.RouteParams{
				Bioavailability: rp.Bioavailability,
				KaPerDay:        rp.KaPerDay,
			}
		}
		compound := &pk.CompoundParams{
			Name:             entry.Name,
			Class:            entry.Class,
			Ester:            entry.Ester,
			HalfLifeDays:     entry.HalfLifeDays,
			VdLiters:         entry.VdLiters,
			ClearanceLPerDay: entry.ClearanceLPerDay,
			Routes:           routes,
		}
		if err := compound.Validate(); err != nil {
			return nil, err
		}
		table[compound.Name] = compound
	}
	return table, nil
}
