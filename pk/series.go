package pk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// timeEpsilon absorbs float drift when deciding whether a timestamp lands
// exactly on a window bound.
const timeEpsilon = 1e-9

// TimeGrid builds a strictly ascending query grid over [from, to] with the
// given step. The step is widened when the requested resolution would exceed
// MaxTimePoints, keeping a single call's cost bounded.
func TimeGrid(from, to, stepDays float64) ([]float64, error) {
	if to < from {
		return nil, fmt.Errorf("grid end %v before start %v: %w", to, from, ErrInvalidParameter)
	}
	if stepDays <= 0 {
		return nil, fmt.Errorf("grid step %v must be > 0: %w", stepDays, ErrInvalidParameter)
	}
	span := to - from
	// compare as floats before converting: span/stepDays can exceed the int
	// range for pathological window/step combinations
	var steps int
	if span/stepDays+1 > float64(MaxTimePoints) {
		// widen the step to the cap instead of truncating the window
		steps = MaxTimePoints - 1
		stepDays = span / float64(steps)
	} else {
		steps = int(math.Floor(span/stepDays + timeEpsilon))
	}

	grid := make([]float64, 0, steps+2)
	for i := 0; i <= steps; i++ {
		grid = append(grid, from+float64(i)*stepDays)
	}
	// keep the window end on the grid so bounds land exactly
	if last := grid[len(grid)-1]; to-last > timeEpsilon {
		if len(grid) < MaxTimePoints {
			grid = append(grid, to)
		} else {
			grid[len(grid)-1] = to
		}
	}
	return grid, nil
}

// Times returns the time coordinates of the series.
func (s ConcentrationSeries) Times() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.TimeDays
	}
	return out
}

// Concentrations returns the concentration coordinates of the series.
func (s ConcentrationSeries) Concentrations() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Concentration
	}
	return out
}

// Max returns the sample with the highest concentration. Empty series report
// a zero point.
func (s ConcentrationSeries) Max() SeriesPoint {
	if len(s.Points) == 0 {
		return SeriesPoint{}
	}
	idx := floats.MaxIdx(s.Concentrations())
	return s.Points[idx]
}
