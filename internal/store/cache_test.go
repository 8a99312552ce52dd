package store

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-spectral-synth/internal/table"
)

func TestCache_RoundTripIsBitExact(t *testing.T) {
	s := New(Options{Debug: true})
	a := harmonic(40, 5, 9)
	a.Bins[2].Envelope[3] = math.Float32frombits(0x3eaaaaab) // 1/3 rounded
	require.NoError(t, s.Set(a))
	b := cqt(80, 7, 3, 2.5)
	b.ApplyThreshold(3)
	b.LimitActiveBins(2)
	require.NoError(t, s.Set(b))

	path := filepath.Join(t.TempDir(), "tables.bin")
	require.NoError(t, s.SaveCache(path))

	got := New(Options{})
	require.NoError(t, got.LoadCache(path))

	assert.True(t, got.Debug())
	assert.Equal(t, 2, got.NumTables())
	for note := range table.NumNotes {
		want, have := s.Table(note), got.Table(note)
		if want == nil {
			assert.Nil(t, have, "note %d", note)
			continue
		}
		require.NotNil(t, have, "note %d", note)
		assert.Equal(t, want.Variant, have.Variant)
		assert.Equal(t, want.Config, have.Config)
		assert.Equal(t, want.MidiNote, have.MidiNote)
		assert.Equal(t, want.BinsPerSemitone, have.BinsPerSemitone)
		assert.Equal(t, want.ActiveBins(), have.ActiveBins())
		require.Len(t, have.Bins, len(want.Bins))
		for i := range want.Bins {
			assert.Equal(t, math.Float64bits(want.Bins[i].Frequency), math.Float64bits(have.Bins[i].Frequency))
			for k := range want.Bins[i].Envelope {
				assert.Equal(t, math.Float32bits(want.Bins[i].Envelope[k]), math.Float32bits(have.Bins[i].Envelope[k]))
			}
		}
	}
}

func TestCache_RejectsBadData(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Set(cqt(60, 2, 2, 1)))

	var buf bytes.Buffer
	require.NoError(t, s.WriteCache(&buf))
	good := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("NOPE"), good[4:]...)},
		{"bad version", append(append([]byte{}, good[:4]...), append([]byte{9, 0}, good[6:]...)...)},
		{"truncated", good[:len(good)-3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := New(Options{})
			require.NoError(t, target.Set(harmonic(10, 2, 2)))

			err := target.ReadCache(bytes.NewReader(tt.data))
			require.ErrorIs(t, err, ErrBadCache)
			assert.NotNil(t, target.Table(10), "store untouched on error")
		})
	}
}
