// pk/peak.go
package pk

import (
	"fmt"
	"math"
)

// PeakResult is a peak location on a concentration curve.
type PeakResult struct {
	TimeDays      float64
	Concentration float64 // ng/dL
}

// Peak search horizons and resolution bounds. Timeline peaks are found by
// sampling, so the result is an approximation bounded by the sample spacing.
const (
	// blendPeakHorizonDays bounds the dense search for a blend's composite
	// single-dose peak. Sums of exponentials with distinct rates have no
	// simple analytic maximum.
	blendPeakHorizonDays = 90.0

	// peakSpacingFloorDays is the coarsest allowed peak-search spacing
	// (6 hours).
	peakSpacingFloorDays = 0.25

	// peakSpacingHalfLifeDivisor sets spacing fine enough to resolve the
	// fastest compound on the timeline: halfLife/16.
	peakSpacingHalfLifeDivisor = 16.0
)

// SingleDosePeak computes the analytic peak of one isolated dose using
//
//	Tmax = ln(ka/ke) / (ka - ke)
//
// with the limiting value 1/ke when ka ≈ ke, and Cmax evaluated with the
// same closed form, weight scaling, and calibration factor as Simulate.
// Two-compartment engines have no simple analytic Tmax, so they search the
// curve densely instead.
func (e *Engine) SingleDosePeak(compound *CompoundParams, doseMg float64, route Route, weightKg, factor float64) (PeakResult, error) {
	if err := compound.Validate(); err != nil {
		return PeakResult{}, err
	}
	event := DoseEvent{TimeDays: 0, Compound: compound, AmountMg: doseMg, Route: route}
	if e.cfg.TwoCompartment {
		return e.searchPeak([]DoseEvent{event}, 0, blendPeakHorizonDays, weightKg, factor)
	}

	rp, _, err := compound.RouteParamsFor(route)
	if err != nil {
		return PeakResult{}, err
	}
	if weightKg == 0 {
		weightKg = ReferenceWeightKg
	}
	_, ke := compound.scaledParams(weightKg)
	ka := rp.KaPerDay

	var tmax float64
	if math.Abs(ka-ke) < rateTolerance {
		tmax = 1 / ke
	} else {
		tmax = math.Log(ka/ke) / (ka - ke)
	}
	cmax, err := e.ConcentrationAt(tmax, []DoseEvent{event}, weightKg, factor)
	if err != nil {
		return PeakResult{}, err
	}
	return PeakResult{TimeDays: tmax, Concentration: cmax}, nil
}

// BlendPeak finds the composite peak of a single blend dose. Per-component
// peaks exist analytically, but the summed curve's maximum does not, so the
// superposed curve is evaluated densely over a bounded horizon.
func (e *Engine) BlendPeak(blend BlendDefinition, totalDoseMg float64, route Route, weightKg, factor float64) (PeakResult, error) {
	events, err := ResolveDoseEvents(Schedule{
		IntervalDays: 0, // single administration
		DoseMg:       totalDoseMg,
		Route:        route,
		Blend:        blend,
	}, 0, 0)
	if err != nil {
		return PeakResult{}, err
	}
	return e.searchPeak(events, 0, blendPeakHorizonDays, weightKg, factor)
}

// TimelinePeak locates the maximum of the superposed curve over a window by
// sampled search. Spacing adapts to the fastest compound on the timeline
// (halfLife/16, floored at 6 hours), so the returned peak is accurate to
// within the sampling resolution, not exact.
func (e *Engine) TimelinePeak(events []DoseEvent, fromDays, toDays, weightKg, factor float64) (PeakResult, error) {
	if len(events) == 0 {
		return PeakResult{}, fmt.Errorf("no dose events in window: %w", ErrInvalidParameter)
	}
	return e.searchPeak(events, fromDays, toDays, weightKg, factor)
}

func (e *Engine) searchPeak(events []DoseEvent, fromDays, toDays, weightKg, factor float64) (PeakResult, error) {
	spacing := math.MaxFloat64
	for _, ev := range events {
		if ev.Compound == nil {
			return PeakResult{}, fmt.Errorf("dose event without compound: %w", ErrInvalidParameter)
		}
		spacing = math.Min(spacing, ev.Compound.HalfLifeDays/peakSpacingHalfLifeDivisor)
	}
	spacing = math.Max(spacing, peakSpacingFloorDays)

	grid, err := TimeGrid(fromDays, toDays, spacing)
	if err != nil {
		return PeakResult{}, err
	}
	series, err := e.Simulate(SimulationRequest{
		TimePoints:        grid,
		Events:            events,
		WeightKg:          weightKg,
		CalibrationFactor: factor,
	})
	if err != nil {
		return PeakResult{}, err
	}
	peak := series.Max()
	return PeakResult{TimeDays: peak.TimeDays, Concentration: peak.Concentration}, nil
}
