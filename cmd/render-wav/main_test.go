package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeak(t *testing.T) {
	assert.Zero(t, peak(nil))
	assert.InDelta(t, 0.75, float64(peak([][]float32{{0.1, -0.75}, {0.5}})), 1e-7)
}
