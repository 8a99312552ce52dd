package simdops

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOps_SharedTables(t *testing.T) {
	assert.Same(t, Float32Ops(), Float32Ops())
	assert.Same(t, Float64Ops(), Float64Ops())
}

func TestOps_DotProductAndScale(t *testing.T) {
	ops := Float32Ops()
	a := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	b := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}

	assert.InDelta(t, 45.0, float64(ops.DotProductUnsafe(a, b)), 1e-5)
	assert.InDelta(t, 45.0, float64(ops.Sum(a)), 1e-5)

	dst := make([]float32, len(a))
	ops.Scale(dst, a, 0.5)
	for i := range a {
		assert.InDelta(t, float64(a[i])*0.5, float64(dst[i]), 1e-6)
	}
}

func TestOps_Interleave2(t *testing.T) {
	ops := Float64Ops()
	left := []float64{1, 3, 5}
	right := []float64{2, 4, 6}
	dst := make([]float64, 6)

	ops.Interleave2(dst, left, right)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, dst)
}

func TestOps_Float64Sum(t *testing.T) {
	a := []float64{0.5, 1.5, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 56.0, Float64Ops().Sum(a), 1e-12)
	assert.Zero(t, Float64Ops().Sum(nil))
}

func TestRotate_PreservesMagnitude(t *testing.T) {
	const n = 17
	rot := make([]complex128, n)
	inc := make([]complex128, n)
	for i := range rot {
		rot[i] = 1
		inc[i] = cmplx.Rect(1, 2*math.Pi*float64(i+1)/64)
	}

	next := make([]complex128, n)
	for range 64 {
		Rotate(next, rot, inc)
		rot, next = next, rot
	}

	for i, r := range rot {
		require.InDelta(t, 1.0, cmplx.Abs(r), 1e-9, "rotator %d drifted", i)
		// i+1 full turns after 64 steps lands back on 1+0i
		assert.InDelta(t, 1.0, real(r), 1e-9)
		assert.InDelta(t, 0.0, imag(r), 1e-9)
	}
}

func TestInfo_NotEmpty(t *testing.T) {
	assert.NotEmpty(t, Info())
}
