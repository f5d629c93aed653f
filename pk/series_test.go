package pk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeGrid_Basics(t *testing.T) {
	grid, err := TimeGrid(0, 16, 0.25)
	assert.NoError(t, err)
	assert.Len(t, grid, 65)
	assert.Equal(t, 0.0, grid[0])
	assert.InDelta(t, 16.0, grid[len(grid)-1], 1e-9)
}

func TestTimeGrid_EndAlwaysOnGrid(t *testing.T) {
	// 0.3 does not divide 10 evenly; the bound still lands on the grid
	grid, err := TimeGrid(0, 10, 0.3)
	assert.NoError(t, err)
	assert.InDelta(t, 10.0, grid[len(grid)-1], 1e-9)
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			t.Fatalf("grid not strictly ascending at %d: %v then %v", i-1, grid[i-1], grid[i])
		}
	}
}

func TestTimeGrid_WidensStepAtCap(t *testing.T) {
	// a millisecond-scale step over 100 days would need 100k points
	grid, err := TimeGrid(0, 100, 0.001)
	assert.NoError(t, err)
	assert.LessOrEqual(t, len(grid), MaxTimePoints)
	assert.InDelta(t, 100.0, grid[len(grid)-1], 1e-6)
}

func TestTimeGrid_ExtremeWindowStepRatio_Bounded(t *testing.T) {
	// a nanosecond-scale step over an astronomical window overflows any
	// integer step count; the cap must still hold without panicking
	grid, err := TimeGrid(0, 1e15, 1e-9)
	assert.NoError(t, err)
	assert.LessOrEqual(t, len(grid), MaxTimePoints)
	assert.Equal(t, 0.0, grid[0])
	assert.InDelta(t, 1e15, grid[len(grid)-1], 1)
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			t.Fatalf("grid not strictly ascending at %d: %v then %v", i-1, grid[i-1], grid[i])
		}
	}
}

func TestTimeGrid_InvalidArguments(t *testing.T) {
	_, err := TimeGrid(10, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = TimeGrid(0, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestConcentrationSeries_Max(t *testing.T) {
	series := ConcentrationSeries{Points: []SeriesPoint{
		{TimeDays: 0, Concentration: 10},
		{TimeDays: 1, Concentration: 40},
		{TimeDays: 2, Concentration: 25},
	}}
	peak := series.Max()
	assert.Equal(t, 1.0, peak.TimeDays)
	assert.Equal(t, 40.0, peak.Concentration)

	assert.Equal(t, SeriesPoint{}, ConcentrationSeries{}.Max())
}
