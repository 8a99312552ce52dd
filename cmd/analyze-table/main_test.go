package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-spectral-synth/internal/analysis"
	"github.com/tphakala/go-spectral-synth/internal/table"
	"github.com/tphakala/go-spectral-synth/internal/tablefile"
	"github.com/tphakala/go-spectral-synth/internal/testutil"
	"github.com/tphakala/go-spectral-synth/internal/wavio"
)

func writeTone(t *testing.T, note int) string {
	t.Helper()
	const rate = 44100
	sine := testutil.Sine(rate/2, table.NoteFrequency(note), rate)
	ch := make([]float32, len(sine))
	for i, v := range sine {
		ch[i] = float32(0.5 * v)
	}
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, wavio.WritePlanar(path, [][]float32{ch}, rate, 16))
	return path
}

func TestAnalyzeFile_EstimatesNote(t *testing.T) {
	in := writeTone(t, 64)
	out := filepath.Join(t.TempDir(), "tone.txt")

	tbl, err := analyzeFile(in, out, autoNote, analysis.DefaultOptions(), false)
	require.NoError(t, err)
	assert.Equal(t, 64, tbl.MidiNote)
	assert.InDelta(t, 0.5, float64(tbl.Bins[0].Envelope[tbl.EnvelopeLength()/2]), 0.08)

	f, err := (&tablefile.Parser{}).ParseFile(out)
	require.NoError(t, err)
	assert.Equal(t, tablefile.KindHarmonic, f.Kind)
	assert.Equal(t, 64, f.Table.MidiNote)
	assert.Equal(t, tbl.NumBins(), f.Table.NumBins())
}

func TestAnalyzeFile_ExplicitNote(t *testing.T) {
	in := writeTone(t, 60)
	out := filepath.Join(t.TempDir(), "tone.txt")

	opts := analysis.Options{WindowSize: 2048, HopSize: 1024, NumHarmonics: 4}
	tbl, err := analyzeFile(in, out, 60, opts, true)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.NumBins())
}

func TestAnalyzeFile_MissingInput(t *testing.T) {
	_, err := analyzeFile("/nonexistent/file.wav", filepath.Join(t.TempDir(), "x.txt"), autoNote, analysis.DefaultOptions(), false)
	require.Error(t, err)
}
