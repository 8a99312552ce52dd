package wavio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePlanarReadMono(t *testing.T) {
	for _, depth := range []int{16, 24, 32} {
		path := filepath.Join(t.TempDir(), "out.wav")
		left := []float32{0, 0.5, -0.5, 1, 2}
		right := []float32{0, 0.5, 0.5, -1, -2}
		require.NoError(t, WritePlanar(path, [][]float32{left, right}, 44100, depth))

		mono, info, err := ReadMono(path)
		require.NoError(t, err)
		assert.Equal(t, Info{SampleRate: 44100, Channels: 2, BitDepth: depth}, info)

		want := []float64{0, 0.5, 0, 0, 0}
		require.Len(t, mono, len(want))
		for i := range want {
			assert.InDelta(t, want[i], mono[i], 1e-4, "depth %d sample %d", depth, i)
		}
	}
}

func TestWritePlanar_Errors(t *testing.T) {
	dir := t.TempDir()
	require.ErrorIs(t, WritePlanar(filepath.Join(dir, "a.wav"), nil, 48000, 16), ErrChannels)
	require.ErrorIs(t, WritePlanar(filepath.Join(dir, "b.wav"), [][]float32{{0}, {0, 0}}, 48000, 16), ErrChannels)
	require.ErrorIs(t, WritePlanar(filepath.Join(dir, "c.wav"), [][]float32{{0}}, 48000, 12), ErrBitDepth)
}

func TestReadMono_Errors(t *testing.T) {
	_, _, err := ReadMono("/nonexistent/file.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")

	invalid := filepath.Join(t.TempDir(), "invalid.wav")
	require.NoError(t, os.WriteFile(invalid, []byte("not a wav file"), 0o644))
	_, _, err = ReadMono(invalid)
	require.ErrorIs(t, err, ErrInvalidWAV)
}

func TestToPCM(t *testing.T) {
	assert.Equal(t, 32767, toPCM(1, maxInt16))
	assert.Equal(t, -32767, toPCM(-3, maxInt16))
	assert.Equal(t, 0, toPCM(0, maxInt24))
	assert.Equal(t, 4194304, toPCM(0.5, maxInt24))
}
