// pk/schedule.go
package pk

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// DoseEvent is one discrete administration. TimeDays is model time in days
// since the schedule epoch. Events are immutable once resolved and the full
// set for a schedule is sorted ascending by TimeDays.
type DoseEvent struct {
	TimeDays float64
	Compound *CompoundParams
	AmountMg float64
	Route    Route
}

// BlendComponent is one constituent of a multi-ester blend.
type BlendComponent struct {
	Compound    *CompoundParams
	ConcMgPerML float64
}

// BlendDefinition is an ordered list of blend components. A dose of a blend
// splits across components in proportion to concentration share.
type BlendDefinition []BlendComponent

// TotalConcentration sums the component concentrations (mg/mL).
func (b BlendDefinition) TotalConcentration() float64 {
	var total float64
	for _, comp := range b {
		total += comp.ConcMgPerML
	}
	return total
}

// shares returns each component's fraction of the total concentration.
// Resolving a blend whose total is not strictly positive is an error, never
// a silent zero dose.
func (b BlendDefinition) shares() ([]float64, error) {
	total := b.TotalConcentration()
	if total <= 0 {
		return nil, fmt.Errorf("blend total concentration %v must be > 0: %w", total, ErrInvalidBlend)
	}
	out := make([]float64, len(b))
	for i, comp := range b {
		out[i] = comp.ConcMgPerML / total
	}
	return out, nil
}

// Stage is one phase of a multi-stage schedule, offset from the schedule
// start. A zero DurationDays stage runs to the resolution bound.
type Stage struct {
	OffsetDays   float64
	IntervalDays float64
	DoseMg       float64
	DurationDays float64
}

// Schedule is a dosing definition. Exactly one of Compound or Blend is set.
// When Stages is non-empty the top-level IntervalDays/DoseMg are ignored and
// each stage is resolved independently.
type Schedule struct {
	StartDays    float64
	IntervalDays float64 // fractional days allowed; <= 0 means a single dose
	DoseMg       float64
	Route        Route
	Compound     *CompoundParams
	Blend        BlendDefinition
	Stages       []Stage
}

// ResolveDoseEvents expands the schedule into discrete dose events with
// timestamps in [from, upto], inclusive of the bound when it lands exactly
// on an event. Timestamps are start + n*interval for n >= 0; nothing is ever
// produced before the schedule start. The result is sorted ascending and is
// identical whether a wide window is resolved and filtered or the narrow
// window is resolved directly.
func ResolveDoseEvents(sched Schedule, from, upto float64) ([]DoseEvent, error) {
	if upto < sched.StartDays {
		return nil, nil
	}
	if len(sched.Stages) == 0 {
		return resolveRepeat(sched, sched.StartDays, sched.IntervalDays, sched.DoseMg, from, upto)
	}

	var events []DoseEvent
	for i, stage := range sched.Stages {
		stageStart := sched.StartDays + stage.OffsetDays
		stageEnd := upto
		if stage.DurationDays > 0 {
			stageEnd = math.Min(stageEnd, stageStart+stage.DurationDays)
		}
		stageEvents, err := resolveRepeat(sched, stageStart, stage.IntervalDays, stage.DoseMg, from, stageEnd)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		events = append(events, stageEvents...)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].TimeDays < events[j].TimeDays })
	return events, nil
}

func resolveRepeat(sched Schedule, start, interval, doseMg, from, upto float64) ([]DoseEvent, error) {
	times := doseTimes(start, interval, from, upto)
	if sched.Blend == nil {
		events := make([]DoseEvent, 0, len(times))
		for _, t := range times {
			events = append(events, DoseEvent{
				TimeDays: t,
				Compound: sched.Compound,
				AmountMg: doseMg,
				Route:    sched.Route,
			})
		}
		return events, nil
	}

	shares, err := sched.Blend.shares()
	if err != nil {
		return nil, err
	}
	events := make([]DoseEvent, 0, len(times)*len(sched.Blend))
	for _, t := range times {
		for i, comp := range sched.Blend {
			events = append(events, DoseEvent{
				TimeDays: t,
				Compound: comp.Compound,
				AmountMg: doseMg * shares[i],
				Route:    sched.Route,
			})
		}
	}
	return events, nil
}

// doseTimes enumerates start + n*interval within [from, upto]. A degenerate
// interval yields exactly the start time. The count is capped at
// MaxDoseEvents so a pathological near-zero interval over a wide window
// stays bounded.
func doseTimes(start, interval, from, upto float64) []float64 {
	if upto < start {
		return nil
	}
	if interval <= 0 {
		if start >= from {
			return []float64{start}
		}
		return nil
	}

	var times []float64
	for n := 0; ; n++ {
		t := start + float64(n)*interval
		if t > upto+timeEpsilon {
			break
		}
		if t >= from-timeEpsilon {
			times = append(times, t)
		}
		if n+1 >= MaxDoseEvents {
			logrus.Warnf("dose schedule truncated at %d events (interval=%v days over [%v, %v])",
				MaxDoseEvents, interval, start, upto)
			break
		}
	}
	return times
}
