// pk/engine.go
package pk

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// rateTolerance is the closeness (per day) at which two rate constants are
// treated as equal and the limiting-case solution is substituted.
const rateTolerance = 1e-6

// Calibration factor bounds. The factor is a single multiplicative
// correction persisted by the caller between calibrations.
const (
	MinCalibrationFactor = 0.1
	MaxCalibrationFactor = 10.0
)

// ClampCalibrationFactor bounds a calibration factor to the supported range.
func ClampCalibrationFactor(factor float64) float64 {
	return math.Min(MaxCalibrationFactor, math.Max(MinCalibrationFactor, factor))
}

// SeriesPoint is one sample of a predicted concentration curve.
type SeriesPoint struct {
	TimeDays      float64
	Concentration float64 // ng/dL, always >= 0
}

// ConcentrationSeries is a simulated curve plus bookkeeping about recovered
// numerical trouble. Instabilities counts evaluations that produced a
// non-finite intermediate and were sanitized to zero.
type ConcentrationSeries struct {
	Points        []SeriesPoint
	Instabilities int
}

// SimulationRequest carries everything one simulation call needs. The engine
// holds no state between calls; weight and the calibration factor travel in
// the request.
type SimulationRequest struct {
	TimePoints        []float64 // model days, strictly ascending, <= MaxTimePoints
	Events            []DoseEvent
	WeightKg          float64 // > 0; zero means "unknown", defaulted to 70
	CalibrationFactor float64 // clamped to [0.1, 10.0]; zero means 1.0
}

// Engine computes predicted concentrations from resolved dose events. It is
// stateless and safe for concurrent use; all per-call inputs arrive in the
// request.
type Engine struct {
	cfg EngineConfig
}

// NewEngine builds an engine with the given model configuration.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's model configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// Simulate evaluates the superposed concentration curve at every requested
// time point. Each dose event with eventTime <= t contributes independently
// (superposition); the endogenous baseline, if configured, is added to the
// sum and the calibration factor is applied once at the end.
func (e *Engine) Simulate(req SimulationRequest) (ConcentrationSeries, error) {
	weight, factor, err := normalizeRequest(req)
	if err != nil {
		return ConcentrationSeries{}, err
	}
	for _, ev := range req.Events {
		if err := ev.Compound.Validate(); err != nil {
			return ConcentrationSeries{}, fmt.Errorf("dose event at day %v: %w", ev.TimeDays, err)
		}
		if _, _, err := ev.Compound.RouteParamsFor(ev.Route); err != nil {
			return ConcentrationSeries{}, fmt.Errorf("dose event at day %v: %w", ev.TimeDays, err)
		}
	}

	series := ConcentrationSeries{Points: make([]SeriesPoint, len(req.TimePoints))}
	for i, t := range req.TimePoints {
		var sum float64
		for _, ev := range req.Events {
			if ev.TimeDays > t {
				break // events sorted ascending
			}
			c, stable := e.doseConcentration(t-ev.TimeDays, ev, weight)
			if !stable {
				series.Instabilities++
				continue
			}
			sum += c
		}
		sum += e.cfg.EndogenousBaseline
		sum *= factor
		if sum < 0 {
			sum = 0
		}
		series.Points[i] = SeriesPoint{TimeDays: t, Concentration: sum}
	}
	if series.Instabilities > 0 {
		logrus.Warnf("sanitized %d non-finite concentration evaluations to zero", series.Instabilities)
	}
	return series, nil
}

// ConcentrationAt evaluates the superposed curve at a single time point.
func (e *Engine) ConcentrationAt(t float64, events []DoseEvent, weightKg, factor float64) (float64, error) {
	series, err := e.Simulate(SimulationRequest{
		TimePoints:        []float64{t},
		Events:            events,
		WeightKg:          weightKg,
		CalibrationFactor: factor,
	})
	if err != nil {
		return 0, err
	}
	return series.Points[0].Concentration, nil
}

// doseConcentration is one event's contribution at elapsed days since the
// dose, before baseline and calibration factor. The bool is false when the
// evaluation produced a non-finite value and must be discarded.
func (e *Engine) doseConcentration(elapsed float64, ev DoseEvent, weightKg float64) (float64, bool) {
	if elapsed < 0 {
		return 0, true
	}
	rp, _, err := ev.Compound.RouteParamsFor(ev.Route)
	if err != nil {
		logrus.Warnf("dropping dose event: %v", err)
		return 0, false
	}
	vd, ke := ev.Compound.scaledParams(weightKg)

	var c float64
	if e.cfg.TwoCompartment {
		c = twoCompartmentCentral(elapsed, ev.AmountMg, rp.Bioavailability, rp.KaPerDay, ke, vd, e.cfg.K12, e.cfg.K21)
	} else {
		c = oneCompartment(elapsed, ev.AmountMg, rp.Bioavailability, rp.KaPerDay, ke, vd)
	}
	if math.IsNaN(c) || math.IsInf(c, 0) {
		logrus.Warnf("non-finite concentration for %q at elapsed=%v days (ka=%v ke=%v)",
			ev.Compound.Name, elapsed, rp.KaPerDay, ke)
		return 0, false
	}
	if c < 0 {
		c = 0
	}
	return c, true
}

// oneCompartment is the closed-form first-order absorption solution
//
//	C(t) = F*D*ka / (Vd*(ka-ke)) * (exp(-ke*t) - exp(-ka*t))
//
// in ng/dL. When ka is within tolerance of ke the limiting form
// F*D*ka*t/Vd * exp(-ke*t) is substituted.
func oneCompartment(elapsed, doseMg, bioavail, ka, ke, vd float64) float64 {
	if math.Abs(ka-ke) < rateTolerance {
		return bioavail * doseMg * ka * elapsed / vd * math.Exp(-ke*elapsed) * ngPerDLPerMgPerL
	}
	c := bioavail * doseMg * ka / (vd * (ka - ke)) * (math.Exp(-ke*elapsed) - math.Exp(-ka*elapsed))
	return c * ngPerDLPerMgPerL
}

// twoCompartmentCentral is the central-compartment solution with first-order
// absorption. Eigenvalues come from ks = k10+k12+k21:
//
//	alpha, beta = (ks ± sqrt(ks² - 4*k10*k21)) / 2
//
// A non-positive discriminant or alpha ≈ beta routes to the equal-eigenvalue
// limiting solution. A ka collision with an eigenvalue is nudged by the
// tolerance to keep the denominators away from zero.
func twoCompartmentCentral(elapsed, doseMg, bioavail, ka, k10, vd, k12, k21 float64) float64 {
	ks := k10 + k12 + k21
	disc := ks*ks - 4*k10*k21

	if disc <= 0 {
		return twoCompartmentEqualEigen(elapsed, doseMg, bioavail, ka, ks/2, vd, k21)
	}
	root := math.Sqrt(disc)
	alpha := (ks + root) / 2
	beta := (ks - root) / 2
	if alpha-beta < rateTolerance {
		return twoCompartmentEqualEigen(elapsed, doseMg, bioavail, ka, alpha, vd, k21)
	}
	if math.Abs(ka-alpha) < rateTolerance {
		ka = alpha + rateTolerance
	}
	if math.Abs(ka-beta) < rateTolerance {
		ka = beta + rateTolerance
	}

	lead := bioavail * doseMg * ka / vd
	termA := (k21 - alpha) / ((ka - alpha) * (beta - alpha)) * math.Exp(-alpha*elapsed)
	termB := (k21 - beta) / ((ka - beta) * (alpha - beta)) * math.Exp(-beta*elapsed)
	termKa := (k21 - ka) / ((alpha - ka) * (beta - ka)) * math.Exp(-ka*elapsed)
	return lead * (termA + termB + termKa) * ngPerDLPerMgPerL
}

// twoCompartmentEqualEigen is the beta→alpha limit of the solution above,
// obtained by differentiating the coefficient pair at the repeated
// eigenvalue lambda.
func twoCompartmentEqualEigen(elapsed, doseMg, bioavail, ka, lambda, vd, k21 float64) float64 {
	if math.Abs(ka-lambda) < rateTolerance {
		ka = lambda + rateTolerance
	}
	lead := bioavail * doseMg * ka / vd
	repeated := math.Exp(-lambda*elapsed) *
		(elapsed*(k21-lambda)/(ka-lambda) - (k21-ka)/((ka-lambda)*(ka-lambda)))
	kaTerm := (k21 - ka) / ((lambda - ka) * (lambda - ka)) * math.Exp(-ka*elapsed)
	return lead * (repeated + kaTerm) * ngPerDLPerMgPerL
}

// normalizeRequest validates the request and returns the effective weight
// and calibration factor; the request itself is never mutated.
func normalizeRequest(req SimulationRequest) (weight, factor float64, err error) {
	if len(req.TimePoints) == 0 {
		return 0, 0, fmt.Errorf("no time points: %w", ErrInvalidParameter)
	}
	if len(req.TimePoints) > MaxTimePoints {
		return 0, 0, fmt.Errorf("%d time points exceeds limit %d: %w", len(req.TimePoints), MaxTimePoints, ErrInvalidParameter)
	}
	for i := 1; i < len(req.TimePoints); i++ {
		if req.TimePoints[i] <= req.TimePoints[i-1] {
			return 0, 0, fmt.Errorf("time points must be strictly ascending at index %d: %w", i, ErrInvalidParameter)
		}
	}

	weight = req.WeightKg
	if weight == 0 {
		weight = ReferenceWeightKg
	}
	if weight <= 0 {
		return 0, 0, fmt.Errorf("weight %v kg must be > 0: %w", req.WeightKg, ErrInvalidParameter)
	}

	factor = req.CalibrationFactor
	if factor == 0 {
		factor = 1.0
	}
	clamped := ClampCalibrationFactor(factor)
	if clamped != factor {
		logrus.Debugf("calibration factor %v clamped to %v", factor, clamped)
		factor = clamped
	}

	if !sort.SliceIsSorted(req.Events, func(i, j int) bool { return req.Events[i].TimeDays < req.Events[j].TimeDays }) {
		return 0, 0, fmt.Errorf("dose events must be sorted ascending by time: %w", ErrInvalidParameter)
	}
	return weight, factor, nil
}
