package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDominantFrequency(t *testing.T) {
	const rate = 48000.0
	sine := Sine(48000, 440, rate)
	s := make([]float32, len(sine))
	for i, v := range sine {
		s[i] = float32(v)
	}

	AssertRelativeError(t, 440, DominantFrequency(s, rate), 0.01)
	assert.InDelta(t, 1.0, float64(Peak(s)), 1e-3)
	assert.InDelta(t, 0.7071, RMS(s), 1e-3)
}

func TestBuilders(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, Constant(3, 0.5))
	assert.Equal(t, []float32{1, 1.5, 2}, Ramp(3, 1, 0.5))
	AssertSilent(t, make([]float32, 8))
	AssertNotSilent(t, Ramp(2, 0, 1))
}
