package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pksim/pksim/pk"
)

// YAML schema for a dose schedule file. Either `compound` or `blend` is set.
type scheduleFile struct {
	StartDay     float64      `yaml:"start_day"`
	IntervalDays float64      `yaml:"interval_days"`
	DoseMg       float64      `yaml:"dose_mg"`
	Route        string       `yaml:"route"`
	Compound     string       `yaml:"compound"`
	Blend        []blendEntry `yaml:"blend"`
	Stages       []stageEntry `yaml:"stages"`
}

type blendEntry struct {
	Compound    string  `yaml:"compound"`
	ConcMgPerML float64 `yaml:"conc_mg_per_ml"`
}

type stageEntry struct {
	OffsetDays   float64 `yaml:"offset_days"`
	IntervalDays float64 `yaml:"interval_days"`
	DoseMg       float64 `yaml:"dose_mg"`
	DurationDays float64 `yaml:"duration_days"`
}

// LoadSchedule reads a YAML dose schedule and resolves its compound names
// against the table.
func LoadSchedule(path string, table pk.Table) (pk.Schedule, error) {
	if path == "" {
		return pk.Schedule{}, fmt.Errorf("no schedule file given")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pk.Schedule{}, fmt.Errorf("reading schedule: %w", err)
	}
	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return pk.Schedule{}, fmt.Errorf("parsing schedule: %w", err)
	}

	sched := pk.Schedule{
		StartDays:    file.StartDay,
		IntervalDays: file.IntervalDays,
		DoseMg:       file.DoseMg,
		Route:        pk.Route(file.Route),
	}
	if file.Route == "" {
		sched.Route = pk.DefaultRoute
	}

	switch {
	case len(file.Blend) > 0:
		for _, entry := range file.Blend {
			compound, err := table.Lookup(entry.Compound)
			if err != nil {
				return pk.Schedule{}, fmt.Errorf("blend component: %w", err)
			}
			sched.Blend = append(sched.Blend, pk.BlendComponent{
				Compound:    compound,
				ConcMgPerML: entry.ConcMgPerML,
			})
		}
	case file.Compound != "":
		compound, err := table.Lookup(file.Compound)
		if err != nil {
			return pk.Schedule{}, err
		}
		sched.Compound = compound
	default:
		return pk.Schedule{}, fmt.Errorf("schedule names neither a compound nor a blend")
	}

	for _, st := range file.Stages {
		sched.Stages = append(sched.Stages, pk.Stage{
			OffsetDays:   st.OffsetDays,
			IntervalDays: st.IntervalDays,
			DoseMg:       st.DoseMg,
			DurationDays: st.DurationDays,
		})
	}
	return sched, nil
}
