package pk

import "errors"

// Sentinel errors for the engine's failure taxonomy. Callers match with
// errors.Is after unwrapping whatever context the call site added.
var (
	// ErrInvalidParameter covers malformed reference data or request fields:
	// non-positive half-life, non-positive weight, unknown route with no
	// default, unsorted or oversized time grids.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidBlend is returned when a blend's total concentration is zero
	// or negative at resolution time. Never silently treated as a zero dose.
	ErrInvalidBlend = errors.New("invalid blend")

	// ErrInsufficientData is returned when a calibration is requested with
	// too few usable samples and no fallback applies.
	ErrInsufficientData = errors.New("insufficient calibration data")

	// ErrNumericalInstability is returned when a computation sits too close
	// to a singular point to produce a usable result, e.g. a simple
	// calibration against a near-zero model prediction.
	ErrNumericalInstability = errors.New("numerical instability")
)
