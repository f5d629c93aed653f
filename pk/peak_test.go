package pk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleDosePeak_AnalyticTmax(t *testing.T) {
	// GIVEN a one-compartment engine and a medium ester
	engine := NewEngine(DefaultEngineConfig())
	compound := mediumEster()

	// WHEN computing the single-dose peak
	peak, err := engine.SingleDosePeak(compound, 250, RouteIntramuscular, 70, 1)
	assert.NoError(t, err)

	// THEN Tmax = ln(ka/ke)/(ka-ke)
	ka := compound.Routes[RouteIntramuscular].KaPerDay
	ke := compound.KePerDay()
	wantTmax := math.Log(ka/ke) / (ka - ke)
	assert.InDelta(t, wantTmax, peak.TimeDays, 1e-12)

	// AND Cmax is the engine's own value at Tmax
	cmax, err := engine.ConcentrationAt(wantTmax, singleDose(compound, 0, 250), 70, 1)
	assert.NoError(t, err)
	assert.InDelta(t, cmax, peak.Concentration, 1e-9)
}

func TestSingleDosePeak_ScalesWithCalibrationFactor(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	compound := mediumEster()

	plain, err := engine.SingleDosePeak(compound, 250, RouteIntramuscular, 70, 1)
	assert.NoError(t, err)
	scaled, err := engine.SingleDosePeak(compound, 250, RouteIntramuscular, 70, 2)
	assert.NoError(t, err)

	assert.InDelta(t, plain.TimeDays, scaled.TimeDays, 1e-12)
	assert.InDelta(t, plain.Concentration*2, scaled.Concentration, plain.Concentration*1e-9)
}

// The sampled timeline search must land within a grid cell of the analytic
// single-dose peak.
func TestTimelinePeak_MatchesAnalyticForSingleDose(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	compound := mediumEster()
	events := singleDose(compound, 0, 250)

	analytic, err := engine.SingleDosePeak(compound, 250, RouteIntramuscular, 70, 1)
	assert.NoError(t, err)
	sampled, err := engine.TimelinePeak(events, 0, 30, 70, 1)
	assert.NoError(t, err)

	assert.InDelta(t, analytic.TimeDays, sampled.TimeDays, compound.HalfLifeDays/16+1e-9)
	assert.InDelta(t, 1.0, sampled.Concentration/analytic.Concentration, 0.01)
}

func TestTimelinePeak_NoEvents(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	_, err := engine.TimelinePeak(nil, 0, 30, 70, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestBlendPeak_CompositeCurve(t *testing.T) {
	// GIVEN a fast/slow two-ester blend
	engine := NewEngine(DefaultEngineConfig())
	fast := fastEster()
	slow := mediumEster()
	blend := BlendDefinition{
		{Compound: fast, ConcMgPerML: 100},
		{Compound: slow, ConcMgPerML: 150},
	}

	// WHEN searching the composite single-dose peak
	peak, err := engine.BlendPeak(blend, 250, RouteIntramuscular, 70, 1)
	assert.NoError(t, err)

	// THEN the peak sits inside the search horizon
	assert.Greater(t, peak.Concentration, 0.0)
	assert.GreaterOrEqual(t, peak.TimeDays, 0.0)
	assert.LessOrEqual(t, peak.TimeDays, 90.0)

	// AND dominates each component's isolated share contribution
	fastAlone, err := engine.SingleDosePeak(fast, 100, RouteIntramuscular, 70, 1)
	assert.NoError(t, err)
	slowAlone, err := engine.SingleDosePeak(slow, 150, RouteIntramuscular, 70, 1)
	assert.NoError(t, err)
	floor := math.Max(fastAlone.Concentration, slowAlone.Concentration)
	assert.GreaterOrEqual(t, peak.Concentration, floor*0.99)
}

func TestBlendPeak_InvalidBlend(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	blend := BlendDefinition{{Compound: mediumEster(), ConcMgPerML: 0}}

	_, err := engine.BlendPeak(blend, 250, RouteIntramuscular, 70, 1)
	assert.ErrorIs(t, err, ErrInvalidBlend)
}
