// Package table implements the spectral table data model: a set of frequency
// bins, each carrying an amplitude envelope sampled at a fixed hop rate,
// together with the pitch-shift and interpolation rules of the two table
// variants.
package table

import (
	"errors"
	"fmt"
	"math"
)

// Variant selects the shift and interpolation strategy of a table.
type Variant int

const (
	// IndexShifted tables live on a fixed logarithmic frequency grid.
	// Pitch shifting moves envelopes between bins by an integer offset.
	IndexShifted Variant = iota

	// Harmonic tables hold harmonic (i+1) in bin i. Pitch shifting only
	// recomputes bin frequencies and is lossless.
	Harmonic
)

// String returns the file tag name of the variant.
func (v Variant) String() string {
	switch v {
	case IndexShifted:
		return "CQT"
	case Harmonic:
		return "Harmonic"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// MIDI note range covered by tables.
const (
	MinNote  = 0
	MaxNote  = 127
	NumNotes = MaxNote + 1
)

// Reference tuning.
const (
	referenceFreq = 440.0
	referenceNote = 69
	semitones     = 12.0
)

var (
	// ErrConfigMismatch is returned when two tables disagree on sample rate,
	// hop size, variant or bin resolution.
	ErrConfigMismatch = errors.New("table config mismatch")

	// ErrUncoveredBin is returned when an interpolated bin has no source on
	// either side of the bracket.
	ErrUncoveredBin = errors.New("interpolated bin not covered by either table")

	// ErrInvalidTable is returned when an operation receives a table that
	// fails IsValid.
	ErrInvalidTable = errors.New("invalid table")
)

// Config holds the analysis parameters shared by every bin of a table.
type Config struct {
	// SampleRate is the sample rate of the analyzed audio in Hz.
	SampleRate float64

	// HopSize is the number of analysis samples between envelope points.
	HopSize float64
}

// Valid reports whether both parameters are positive.
func (c Config) Valid() bool {
	return c.SampleRate > 0 && c.HopSize > 0
}

// EnvelopeRate returns the number of envelope points per second.
func (c Config) EnvelopeRate() float64 {
	return c.SampleRate / c.HopSize
}

// Bin is one partial: a center frequency and its amplitude envelope.
type Bin struct {
	Frequency float64
	Envelope  []float32
}

// Table is a spectral table for a single MIDI note.
type Table struct {
	Config   Config
	MidiNote int
	Variant  Variant

	// BinsPerSemitone is the grid resolution of IndexShifted tables.
	BinsPerSemitone float64

	Bins []Bin

	threshold float32
	limit     int
	active    []int
}

// NewIndexShifted creates an IndexShifted table. The bins are used as given.
func NewIndexShifted(cfg Config, note int, binsPerSemitone float64, bins []Bin) *Table {
	t := &Table{
		Config:          cfg,
		MidiNote:        note,
		Variant:         IndexShifted,
		BinsPerSemitone: binsPerSemitone,
		Bins:            bins,
	}
	t.RefreshActiveBins()
	return t
}

// NewHarmonic creates a Harmonic table. Bin frequencies are recomputed from
// the note so bin i sits on harmonic i+1.
func NewHarmonic(cfg Config, note int, bins []Bin) *Table {
	t := &Table{
		Config:   cfg,
		MidiNote: note,
		Variant:  Harmonic,
		Bins:     bins,
	}
	t.retune(note)
	t.RefreshActiveBins()
	return t
}

// NoteFrequency returns the equal-tempered frequency of a MIDI note.
func NoteFrequency(note int) float64 {
	return referenceFreq * math.Pow(2, float64(note-referenceNote)/semitones)
}

// FrequencyNote returns the nearest MIDI note for a frequency in Hz.
func FrequencyNote(freq float64) int {
	return int(math.Round(semitones*math.Log2(freq/referenceFreq) + referenceNote))
}

// IsValid reports whether the table can be rendered and interpolated.
func (t *Table) IsValid() bool {
	if t == nil || !t.Config.Valid() || len(t.Bins) == 0 {
		return false
	}
	if t.MidiNote < MinNote || t.MidiNote > MaxNote {
		return false
	}
	if t.Variant == IndexShifted && t.BinsPerSemitone <= 0 {
		return false
	}
	n := len(t.Bins[0].Envelope)
	if n < 1 {
		return false
	}
	for i := range t.Bins {
		if len(t.Bins[i].Envelope) != n {
			return false
		}
	}
	return true
}

// NumBins returns the number of bins.
func (t *Table) NumBins() int {
	return len(t.Bins)
}

// EnvelopeLength returns the length of the longest envelope.
func (t *Table) EnvelopeLength() int {
	n := 0
	for i := range t.Bins {
		n = max(n, len(t.Bins[i].Envelope))
	}
	return n
}

// Duration returns the playback length of the table in seconds.
func (t *Table) Duration() float64 {
	if !t.Config.Valid() {
		return 0
	}
	return float64(t.EnvelopeLength()) / t.Config.EnvelopeRate()
}

// NormalizeBinLengths zero-pads every envelope to the longest one.
func (t *Table) NormalizeBinLengths() {
	n := t.EnvelopeLength()
	for i := range t.Bins {
		env := t.Bins[i].Envelope
		if len(env) == n {
			continue
		}
		padded := make([]float32, n)
		copy(padded, env)
		t.Bins[i].Envelope = padded
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	c.Bins = make([]Bin, len(t.Bins))
	for i, b := range t.Bins {
		c.Bins[i] = Bin{Frequency: b.Frequency, Envelope: append([]float32(nil), b.Envelope...)}
	}
	c.active = append([]int(nil), t.active...)
	return &c
}

// sameLayout reports whether two tables can be blended.
func sameLayout(a, b *Table) bool {
	if a.Config != b.Config || a.Variant != b.Variant {
		return false
	}
	if a.Variant == IndexShifted && a.BinsPerSemitone != b.BinsPerSemitone {
		return false
	}
	return true
}

// EstimateMidiNote returns the note of the bin holding the loudest envelope
// sample. ok is false when the table has no energy.
func (t *Table) EstimateMidiNote() (note int, ok bool) {
	var peak float32
	loudest := -1
	for i := range t.Bins {
		if p := envelopePeak(t.Bins[i].Envelope); p > peak {
			peak = p
			loudest = i
		}
	}
	if loudest < 0 || t.Bins[loudest].Frequency <= 0 {
		return 0, false
	}
	return min(max(FrequencyNote(t.Bins[loudest].Frequency), MinNote), MaxNote), true
}

func envelopePeak(env []float32) float32 {
	var peak float32
	for _, v := range env {
		if v < 0 {
			v = -v
		}
		peak = max(peak, v)
	}
	return peak
}
