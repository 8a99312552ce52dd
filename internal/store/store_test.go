package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-spectral-synth/internal/table"
	"github.com/tphakala/go-spectral-synth/internal/tablefile"
	"github.com/tphakala/go-spectral-synth/internal/testutil"
)

var testConfig = table.Config{SampleRate: 44100, HopSize: 441}

func cqt(note, numBins, envLen int, bps float64) *table.Table {
	bins := make([]table.Bin, numBins)
	for i := range bins {
		bins[i] = table.Bin{
			Frequency: 110 * float64(i+1),
			Envelope:  testutil.Constant(envLen, float32(i+1)),
		}
	}
	return table.NewIndexShifted(testConfig, note, bps, bins)
}

func harmonic(note, numBins, envLen int) *table.Table {
	bins := make([]table.Bin, numBins)
	for i := range bins {
		bins[i] = table.Bin{Envelope: testutil.Ramp(envLen, 1/float32(i+1), 0.01)}
	}
	return table.NewHarmonic(testConfig, note, bins)
}

// ===== Slots =====

func TestStore_SetAndTable(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Set(cqt(60, 4, 8, 1)))
	require.ErrorIs(t, s.Set(cqt(128, 4, 8, 1)), ErrNoteRange)

	assert.NotNil(t, s.Table(60))
	assert.Nil(t, s.Table(61))
	assert.Nil(t, s.Table(-1))
	assert.Nil(t, s.Table(200))
	assert.Equal(t, 1, s.NumTables())

	snap := s.Snapshot()
	assert.Same(t, s.Table(60), snap.Table(60))
	assert.Nil(t, snap.Table(128))

	s.Clear()
	assert.Zero(t, s.NumTables())
	assert.NotNil(t, snap.Table(60), "snapshot is independent of the store")
}

// ===== Densification =====

func TestPrepareTables_SingleTableExtrapolates(t *testing.T) {
	s := New(Options{})
	src := table.NewIndexShifted(testConfig, 60, 1.0/12, []table.Bin{
		{Frequency: 440, Envelope: []float32{1, 2, 3, 4}},
		{Frequency: 880, Envelope: []float32{5, 6, 7, 8}},
	})
	require.NoError(t, s.Set(src))

	require.NoError(t, s.PrepareTablesFull())
	assert.Equal(t, table.NumNotes, s.NumTables())

	up := s.Table(72)
	require.NotNil(t, up)
	assert.Equal(t, 72, up.MidiNote)
	require.Len(t, up.Bins, 2)
	// one octave at 1/12 bins per semitone moves everything up one bin
	assert.Equal(t, []float32{0, 0, 0, 0}, up.Bins[0].Envelope)
	assert.Equal(t, []float32{1, 2, 3, 4}, up.Bins[1].Envelope)
	assert.Equal(t, 4, up.EnvelopeLength())
	assert.InDelta(t, 880.0, up.Bins[1].Frequency, 0, "frequency grid is fixed")

	down := s.Table(48)
	require.NotNil(t, down)
	assert.Equal(t, []float32{5, 6, 7, 8}, down.Bins[0].Envelope)
	assert.Equal(t, []float32{0, 0, 0, 0}, down.Bins[1].Envelope)

	assert.Same(t, src, s.Table(60), "authored table is kept")
	assert.Equal(t, NoError, s.Sanity())
}

func TestPrepareTables_InterpolatesBetweenAuthored(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Set(harmonic(48, 6, 10)))
	require.NoError(t, s.Set(harmonic(60, 6, 6)))

	require.NoError(t, s.PrepareTablesAutoRange())
	assert.Equal(t, 13, s.NumTables())
	assert.Nil(t, s.Table(47))
	assert.Nil(t, s.Table(61))

	mid := s.Table(54)
	require.NotNil(t, mid)
	assert.True(t, mid.IsValid())
	assert.InDelta(t, table.NoteFrequency(54), mid.Bins[0].Frequency, 1e-9)
	assert.Equal(t, 6, mid.EnvelopeLength())
	assert.Equal(t, NoError, s.Sanity())
}

func TestPrepareTables_UsesOnlyAuthoredNeighbors(t *testing.T) {
	s := New(Options{})
	lo := cqt(40, 16, 4, 1)
	hi := cqt(44, 16, 4, 1)
	for i := range hi.Bins {
		hi.Bins[i].Envelope = testutil.Constant(4, 0)
	}
	require.NoError(t, s.Set(lo))
	require.NoError(t, s.Set(hi))

	require.NoError(t, s.PrepareTables(44, 40))

	// note 43 blends lo at 1/4 weight; chaining through 42 would differ
	got := s.Table(43)
	require.NotNil(t, got)
	// bin 8 comes from lo bin 5 (value 6) at weight 0.25
	testutil.AssertEnvelopesEqual(t, testutil.Constant(4, 1.5), got.Bins[8].Envelope, 1e-6)
}

func TestPrepareTables_Errors(t *testing.T) {
	s := New(Options{})
	require.ErrorIs(t, s.PrepareTablesAutoRange(), ErrNoTables)
	require.ErrorIs(t, s.PrepareTablesFull(), ErrNoTables)

	require.NoError(t, s.Set(cqt(60, 2, 4, 1)))
	require.NoError(t, s.Set(cqt(72, 2, 4, 1)))
	require.ErrorIs(t, s.PrepareTablesAutoRange(), table.ErrUncoveredBin)
	assert.Equal(t, 2, s.NumTables())
}

func TestPrepareTables_FailureLeavesStoreUnchanged(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Set(harmonic(60, 2, 4)))
	other := table.NewHarmonic(table.Config{SampleRate: 48000, HopSize: 480}, 72, []table.Bin{
		{Envelope: testutil.Constant(4, 1)},
		{Envelope: testutil.Constant(4, 0.5)},
	})
	require.NoError(t, s.Set(other))

	// Notes below 60 extrapolate fine; note 61 hits the mismatched layouts.
	require.ErrorIs(t, s.PrepareTablesFull(), table.ErrConfigMismatch)
	assert.Equal(t, 2, s.NumTables())
	assert.Nil(t, s.Table(59))
	assert.Nil(t, s.Table(61))
}

// ===== Sanity =====

func TestSanity(t *testing.T) {
	s := New(Options{})
	assert.Equal(t, NoError, s.Sanity())
	require.NoError(t, s.Sanity().Err())

	require.NoError(t, s.Set(cqt(60, 4, 4, 1)))
	require.NoError(t, s.Set(cqt(62, 5, 4, 1)))
	assert.Equal(t, InvalidNumBins, s.Sanity())

	broken := cqt(64, 4, 4, 1)
	broken.Config.HopSize = 0
	require.NoError(t, s.Set(broken))

	code := s.Sanity()
	assert.Equal(t, InvalidTables|InvalidNumBins, code)
	assert.Equal(t, "InvalidTables|InvalidNumBins", code.String())
	require.ErrorIs(t, code.Err(), ErrSanity)
}

// ===== Bin activity =====

func TestStore_ThresholdAndLimit(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Set(cqt(60, 6, 4, 1)))
	require.NoError(t, s.Set(cqt(70, 6, 4, 1)))

	s.ApplyThreshold(4)
	assert.Equal(t, []int{3, 4, 5}, s.Table(70).ActiveBins())

	s.LimitActiveBins(1)
	assert.Equal(t, []int{5}, s.Table(60).ActiveBins())

	s.UnlimitActiveBins()
	assert.Equal(t, []int{3, 4, 5}, s.Table(60).ActiveBins())
	assert.Equal(t, 6, s.MaxBins())
}

// ===== Import =====

func writeTable(t *testing.T, dir, name string, tb *table.Table) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, tablefile.WriteFile(path, tb))
	return path
}

func TestImportTextFile_Single(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "c4.txt", harmonic(60, 3, 5))

	s := New(Options{})
	require.NoError(t, s.ImportTextFile(path, false))
	require.NotNil(t, s.Table(60))
	assert.Equal(t, table.Harmonic, s.Table(60).Variant)
}

func TestImportTextFile_IncludeParallel(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "notes")
	require.NoError(t, os.Mkdir(sub, 0o755))

	var names []string
	for note := 36; note <= 96; note += 12 {
		name := fmt.Sprintf("n%d.txt", note)
		writeTable(t, sub, name, harmonic(note, 4, 8))
		names = append(names, filepath.Join("notes", name))
	}

	var buf bytes.Buffer
	require.NoError(t, tablefile.WriteInclude(&buf, names))
	incPath := filepath.Join(dir, "all.txt")
	require.NoError(t, os.WriteFile(incPath, buf.Bytes(), 0o600))

	for _, parallel := range []bool{false, true} {
		s := New(Options{})
		require.NoError(t, s.ImportTextFile(incPath, parallel))
		assert.Equal(t, 6, s.NumTables(), "parallel=%v", parallel)
		lo, hi, ok := s.Range()
		require.True(t, ok)
		assert.Equal(t, 36, lo)
		assert.Equal(t, 96, hi)
	}
}

func TestImportTextFile_FailedFileLeavesNoTable(t *testing.T) {
	dir := t.TempDir()
	good := writeTable(t, dir, "good.txt", harmonic(60, 3, 5))
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad,
		[]byte("[HarmonicTableFile]\nMidiNote=62\nSampleRate=44100\nHopSize=441\nHarmonic=1\nAmplitudes=1,oops,3\n"), 0o600))

	inc := filepath.Join(dir, "inc.txt")
	require.NoError(t, os.WriteFile(inc,
		[]byte("[IncludeFile]\nInclude="+filepath.Base(good)+"\nInclude="+filepath.Base(bad)+"\n"), 0o600))

	s := New(Options{})
	err := s.ImportTextFile(inc, true)
	require.ErrorIs(t, err, tablefile.ErrMalformedNumber)
	assert.NotNil(t, s.Table(60))
	assert.Nil(t, s.Table(62))
}

func TestImportTextFile_SelfIncludeStops(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "loop.txt")
	require.NoError(t, os.WriteFile(inc, []byte("[IncludeFile]\nInclude=loop.txt\n"), 0o600))

	s := New(Options{})
	require.ErrorIs(t, s.ImportTextFile(inc, false), ErrIncludeDepth)
}

func TestImportTextFile_MissingFile(t *testing.T) {
	s := New(Options{})
	require.ErrorIs(t, s.ImportTextFile(filepath.Join(t.TempDir(), "nope.txt"), false), os.ErrNotExist)
}
