package pk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngineConfig_FieldEquivalence(t *testing.T) {
	got := NewEngineConfig(true, 0.25, 0.12, 280)
	want := EngineConfig{
		TwoCompartment:     true,
		K12:                0.25,
		K21:                0.12,
		EndogenousBaseline: 280,
	}
	assert.Equal(t, want, got)
}

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.False(t, cfg.TwoCompartment)
	assert.Equal(t, 0.3, cfg.K12)
	assert.Equal(t, 0.15, cfg.K21)
	assert.Equal(t, 0.0, cfg.EndogenousBaseline)
}

func TestClampCalibrationFactor(t *testing.T) {
	assert.Equal(t, 1.0, ClampCalibrationFactor(1.0))
	assert.Equal(t, MinCalibrationFactor, ClampCalibrationFactor(0.001))
	assert.Equal(t, MaxCalibrationFactor, ClampCalibrationFactor(42))
}
