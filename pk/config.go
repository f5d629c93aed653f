package pk

// EngineConfig groups the model-level knobs of the concentration engine.
type EngineConfig struct {
	// TwoCompartment switches the closed form from the one-compartment
	// solution to the two-compartment central-compartment solution.
	TwoCompartment bool

	// K12 and K21 are the inter-compartment transfer micro-constants
	// (per day) used when TwoCompartment is on. The reference tables carry
	// no per-compound peripheral rates, so these are engine-wide.
	K12 float64
	K21 float64

	// EndogenousBaseline is a constant concentration (ng/dL) added after
	// superposition and before the calibration factor. Zero by default; a
	// caller modelling natural production opts in explicitly.
	EndogenousBaseline float64
}

// NewEngineConfig builds an EngineConfig from explicit values.
func NewEngineConfig(twoCompartment bool, k12, k21, baseline float64) EngineConfig {
	return EngineConfig{
		TwoCompartment:     twoCompartment,
		K12:                k12,
		K21:                k21,
		EndogenousBaseline: baseline,
	}
}

// DefaultEngineConfig returns the one-compartment default with standard
// transfer constants ready should the caller flip TwoCompartment on.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TwoCompartment:     false,
		K12:                0.3,
		K21:                0.15,
		EndogenousBaseline: 0,
	}
}

// Hard caps on generated work. Both are construction-time bounds: the
// resolver and grid builders refuse to generate past them rather than
// trimming afterwards.
const (
	// MaxTimePoints bounds a single simulation's query grid.
	MaxTimePoints = 5000

	// MaxDoseEvents bounds resolver output, guarding near-zero intervals
	// over wide windows.
	MaxDoseEvents = 10000
)
