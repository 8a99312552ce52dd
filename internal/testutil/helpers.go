// Package testutil provides reusable test helpers for synthesizer tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-6
	GainTolerance    = 1e-3
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float32) bool {
	t.Helper()
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(f, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float32, minVal, maxVal float32) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertSilent verifies that every sample is exactly zero.
func AssertSilent(t *testing.T, s []float32) bool {
	t.Helper()
	for i, v := range s {
		if v != 0 {
			return assert.Fail(t, "buffer not silent", "s[%d]=%g", i, v)
		}
	}
	return true
}

// AssertNotSilent verifies that at least one sample is non-zero.
func AssertNotSilent(t *testing.T, s []float32) bool {
	t.Helper()
	if Peak(s) == 0 {
		return assert.Fail(t, "buffer is silent", "all %d samples are zero", len(s))
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertEnvelopesEqual verifies two envelopes match sample by sample.
func AssertEnvelopesEqual(t *testing.T, expected, actual []float32, tolerance float64) bool {
	t.Helper()
	if !assert.Len(t, actual, len(expected)) {
		return false
	}
	for i := range expected {
		if !assert.InDelta(t, expected[i], actual[i], tolerance, "sample %d", i) {
			return false
		}
	}
	return true
}

// Peak returns the largest absolute sample value.
func Peak(s []float32) float32 {
	var p float32
	for _, v := range s {
		p = max(p, float32(math.Abs(float64(v))))
	}
	return p
}

// RMS returns the root mean square of the samples.
func RMS(s []float32) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(s)))
}

// Constant returns an envelope of n samples all set to v.
func Constant(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Ramp returns an envelope of n samples starting at start and growing by step.
func Ramp(n int, start, step float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = start + float32(i)*step
	}
	return s
}

// Sine returns n samples of a unit sine at freq Hz sampled at rate Hz.
func Sine(n int, freq, rate float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return s
}

// DominantFrequency estimates the frequency of a signal from its positive
// zero crossings.
func DominantFrequency(s []float32, rate float64) float64 {
	first, last, count := -1, -1, 0
	for i := 1; i < len(s); i++ {
		if s[i-1] <= 0 && s[i] > 0 {
			if first < 0 {
				first = i
			}
			last = i
			count++
		}
	}
	if count < 2 {
		return 0
	}
	return float64(count-1) * rate / float64(last-first)
}
