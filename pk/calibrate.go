// pk/calibrate.go
package pk

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Sample is one observed lab measurement.
type Sample struct {
	TimeDays float64
	Observed float64 // ng/dL
}

// Calibration method tags. The fallback tag makes the iterative→simple
// degradation observable in the result rather than silent.
const (
	MethodIterative      = "iterative"
	MethodSimpleFallback = "simple-fallback"
)

// CalibrationResult reports an adjusted parameter set and fit quality.
type CalibrationResult struct {
	Method string

	OriginalKaPerDay float64
	OriginalKePerDay float64
	AdjustedKaPerDay float64
	AdjustedKePerDay float64

	AdjustedHalfLifeDays float64
	HalfLifeChangePct    float64

	// Correlation is the Pearson coefficient between predicted and observed
	// values at the sample timestamps, in [-1, 1].
	Correlation float64

	// CalibrationFactor is the multiplicative correction after this run.
	// Persisting it between calls is the caller's responsibility.
	CalibrationFactor float64

	SamplesUsed int
}

// Iterative solver bounds.
const (
	// minSimplePrediction guards the simple method's ratio against a
	// near-zero model prediction.
	minSimplePrediction = 0.01

	// rateMultiplierMin/Max bound the effective rate constants relative to
	// the literature reference values.
	rateMultiplierMin = 0.5
	rateMultiplierMax = 2.0

	// coarse grid seeding before descent
	calibrationGridSteps = 16

	maxCalibrationIterations = 200
	calibrationDeltaEpsilon  = 1e-9
	initialDescentStep       = 0.05
	minDescentStep           = 1e-4
	gradientProbe            = 1e-3
)

// CalibrateSimple rescales the calibration factor by the ratio of the most
// recent observation to the model's current prediction at that timestamp,
// clamped to the supported factor range. The prediction uses the
// not-yet-updated factor, so a sample that matches the model exactly leaves
// the factor unchanged.
func (e *Engine) CalibrateSimple(samples []Sample, events []DoseEvent, weightKg, currentFactor float64) (float64, error) {
	if len(samples) == 0 {
		return currentFactor, fmt.Errorf("simple calibration needs at least one sample: %w", ErrInsufficientData)
	}
	latest := samples[0]
	for _, s := range samples[1:] {
		if s.TimeDays > latest.TimeDays {
			latest = s
		}
	}

	predicted, err := e.ConcentrationAt(latest.TimeDays, events, weightKg, currentFactor)
	if err != nil {
		return currentFactor, err
	}
	if predicted <= minSimplePrediction {
		return currentFactor, fmt.Errorf("model prediction %v at day %v too close to zero for ratio calibration: %w",
			predicted, latest.TimeDays, ErrNumericalInstability)
	}

	newFactor := ClampCalibrationFactor(currentFactor * latest.Observed / predicted)
	logrus.Debugf("simple calibration: observed=%v predicted=%v factor %v -> %v",
		latest.Observed, predicted, currentFactor, newFactor)
	return newFactor, nil
}

// CalibrateIterative refines the effective absorption and elimination rate
// constants against >= 2 observed samples, minimizing squared prediction
// error. The effective constants stay within [0.5x, 2.0x] of the reference
// values. When no single-compound context exists (a blend schedule) or too
// few samples arrived, it falls back to the simple method and tags the
// result accordingly.
//
// Every invocation is a pure function of its inputs; nothing is persisted
// inside the engine.
func (e *Engine) CalibrateIterative(samples []Sample, sched Schedule, weightKg, currentFactor float64) (CalibrationResult, error) {
	if sched.Compound == nil || len(sched.Blend) > 0 || len(samples) < 2 {
		return e.fallbackSimple(samples, sched, weightKg, currentFactor)
	}
	compound := sched.Compound
	if err := compound.Validate(); err != nil {
		return CalibrationResult{}, err
	}
	rp, route, err := compound.RouteParamsFor(sched.Route)
	if err != nil {
		return CalibrationResult{}, err
	}

	horizon := samples[0].TimeDays
	for _, s := range samples {
		horizon = math.Max(horizon, s.TimeDays)
	}
	events, err := ResolveDoseEvents(sched, sched.StartDays, horizon)
	if err != nil || len(events) == 0 {
		logrus.Warnf("iterative calibration has no usable dose context (%v), falling back to simple method", err)
		return e.fallbackSimple(samples, sched, weightKg, currentFactor)
	}

	objective := func(kaMult, keMult float64) (float64, []float64) {
		preds, perr := e.predictAdjusted(samples, events, compound, route, kaMult, keMult, weightKg, currentFactor)
		if perr != nil {
			return math.Inf(1), nil
		}
		var sse, norm float64
		for i, s := range samples {
			diff := preds[i] - s.Observed
			sse += diff * diff
			norm += s.Observed * s.Observed
		}
		if norm > 0 {
			sse /= norm // scale-free objective keeps descent steps sane
		}
		return sse, preds
	}

	// coarse grid seed, then bounded gradient descent
	bestU, bestV := 1.0, 1.0
	bestSSE, _ := objective(bestU, bestV)
	gridStep := (rateMultiplierMax - rateMultiplierMin) / float64(calibrationGridSteps-1)
	for i := 0; i < calibrationGridSteps; i++ {
		for j := 0; j < calibrationGridSteps; j++ {
			u := rateMultiplierMin + float64(i)*gridStep
			v := rateMultiplierMin + float64(j)*gridStep
			if sse, _ := objective(u, v); sse < bestSSE {
				bestSSE, bestU, bestV = sse, u, v
			}
		}
	}

	step := initialDescentStep
	for iter := 0; iter < maxCalibrationIterations && step >= minDescentStep; iter++ {
		gu, gv := numericGradient(func(u, v float64) float64 { sse, _ := objective(u, v); return sse }, bestU, bestV)
		norm := math.Hypot(gu, gv)
		if norm == 0 {
			break
		}
		u := clampMultiplier(bestU - step*gu/norm)
		v := clampMultiplier(bestV - step*gv/norm)
		sse, _ := objective(u, v)
		if bestSSE-sse > calibrationDeltaEpsilon {
			bestU, bestV, bestSSE = u, v, sse
		} else {
			step /= 2 // no useful improvement along the gradient, tighten
		}
	}

	_, preds := objective(bestU, bestV)
	var corr float64
	if preds != nil {
		obs := make([]float64, len(samples))
		for i, s := range samples {
			obs[i] = s.Observed
		}
		corr = stat.Correlation(preds, obs, nil)
		if math.IsNaN(corr) {
			corr = 0
		}
	}

	origKa, origKe := rp.KaPerDay, compound.KePerDay()
	adjKa, adjKe := origKa*bestU, origKe*bestV
	adjHalfLife := math.Ln2 / adjKe
	return CalibrationResult{
		Method:               MethodIterative,
		OriginalKaPerDay:     origKa,
		OriginalKePerDay:     origKe,
		AdjustedKaPerDay:     adjKa,
		AdjustedKePerDay:     adjKe,
		AdjustedHalfLifeDays: adjHalfLife,
		HalfLifeChangePct:    (adjHalfLife - compound.HalfLifeDays) / compound.HalfLifeDays * 100,
		Correlation:          corr,
		CalibrationFactor:    currentFactor,
		SamplesUsed:          len(samples),
	}, nil
}

// fallbackSimple runs the simple method in an iterative call's place and
// reports it with an explicit method tag.
func (e *Engine) fallbackSimple(samples []Sample, sched Schedule, weightKg, currentFactor float64) (CalibrationResult, error) {
	if len(samples) == 0 {
		return CalibrationResult{}, fmt.Errorf("no samples for calibration: %w", ErrInsufficientData)
	}
	horizon := samples[0].TimeDays
	for _, s := range samples {
		horizon = math.Max(horizon, s.TimeDays)
	}
	events, err := ResolveDoseEvents(sched, sched.StartDays, horizon)
	if err != nil {
		return CalibrationResult{}, fmt.Errorf("simple fallback: %w", err)
	}
	newFactor, err := e.CalibrateSimple(samples, events, weightKg, currentFactor)
	if err != nil {
		return CalibrationResult{}, fmt.Errorf("simple fallback: %w", err)
	}
	return CalibrationResult{
		Method:            MethodSimpleFallback,
		CalibrationFactor: newFactor,
		SamplesUsed:       1,
	}, nil
}

// predictAdjusted evaluates the model at each sample timestamp with the
// compound's effective rate constants scaled by the given multipliers.
func (e *Engine) predictAdjusted(samples []Sample, events []DoseEvent, compound *CompoundParams, route Route, kaMult, keMult, weightKg, factor float64) ([]float64, error) {
	adjusted := adjustedCompound(compound, kaMult, keMult)
	adjEvents := make([]DoseEvent, len(events))
	for i, ev := range events {
		adjEvents[i] = ev
		adjEvents[i].Compound = adjusted
		adjEvents[i].Route = route
	}

	preds := make([]float64, len(samples))
	for i, s := range samples {
		c, err := e.ConcentrationAt(s.TimeDays, adjEvents, weightKg, factor)
		if err != nil {
			return nil, err
		}
		preds[i] = c
	}
	return preds, nil
}

// adjustedCompound clones a compound with its elimination and absorption
// rates scaled. ke scales as 1/halfLife, so a keMult shrinks the half-life.
func adjustedCompound(c *CompoundParams, kaMult, keMult float64) *CompoundParams {
	clone := *c
	clone.HalfLifeDays = c.HalfLifeDays / keMult
	clone.Routes = make(map[Route]RouteParams, len(c.Routes))
	for route, rp := range c.Routes {
		rp.KaPerDay *= kaMult
		clone.Routes[route] = rp
	}
	return &clone
}

func clampMultiplier(m float64) float64 {
	return math.Min(rateMultiplierMax, math.Max(rateMultiplierMin, m))
}

// numericGradient is a central-difference gradient of f at (u, v), with the
// probes clamped to the multiplier bounds.
func numericGradient(f func(u, v float64) float64, u, v float64) (gu, gv float64) {
	h := gradientProbe
	gu = (f(clampMultiplier(u+h), v) - f(clampMultiplier(u-h), v)) / (2 * h)
	gv = (f(u, clampMultiplier(v+h)) - f(u, clampMultiplier(v-h))) / (2 * h)
	return gu, gv
}
