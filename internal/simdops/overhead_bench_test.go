package simdops

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/tphakala/simd/f32"
)

// BenchmarkDirectF32DotProduct measures direct SIMD call overhead for a bank
// of 64 active bins.
func BenchmarkDirectF32DotProduct(b *testing.B) {
	amps, sines := benchBank(64)

	b.ReportAllocs()
	for b.Loop() {
		_ = f32.DotProductUnsafe(amps, sines)
	}
}

// BenchmarkIndirectF32DotProduct measures indirect call through Ops struct.
func BenchmarkIndirectF32DotProduct(b *testing.B) {
	ops := Float32Ops()
	amps, sines := benchBank(64)

	b.ReportAllocs()
	for b.Loop() {
		_ = ops.DotProductUnsafe(amps, sines)
	}
}

func BenchmarkRotate64(b *testing.B) {
	rot := make([]complex128, 64)
	inc := make([]complex128, 64)
	next := make([]complex128, 64)
	for i := range rot {
		rot[i] = 1
		inc[i] = cmplx.Rect(1, 2*math.Pi*float64(i+1)*110/48000)
	}

	b.ReportAllocs()
	for b.Loop() {
		Rotate(next, rot, inc)
		rot, next = next, rot
	}
}

func benchBank(n int) ([]float32, []float32) {
	amps := make([]float32, n)
	sines := make([]float32, n)
	for i := range amps {
		amps[i] = float32(i) * 0.01
		sines[i] = float32(math.Sin(float64(i)))
	}
	return amps, sines
}
