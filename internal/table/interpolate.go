package table

import (
	"fmt"

	"github.com/tphakala/go-spectral-synth/internal/simdops"
)

// Interpolate builds a table for note from the bracketing tables lo and hi
// (lo.MidiNote <= note <= hi.MidiNote) by cross-fading their envelopes.
//
// The result has lo's bin count. Bins covered by both sources blend over the
// shorter envelope; bins covered by one source copy it. The result is not
// length-normalized.
func Interpolate(lo, hi *Table, note int) (*Table, error) {
	if !lo.IsValid() || !hi.IsValid() {
		return nil, ErrInvalidTable
	}
	if !sameLayout(lo, hi) {
		return nil, fmt.Errorf("%w: notes %d and %d", ErrConfigMismatch, lo.MidiNote, hi.MidiNote)
	}
	if note < lo.MidiNote || note > hi.MidiNote {
		return nil, fmt.Errorf("%w: note %d outside [%d, %d]", ErrInvalidTable, note, lo.MidiNote, hi.MidiNote)
	}

	switch note {
	case lo.MidiNote:
		return lo.Clone(), nil
	case hi.MidiNote:
		return hi.Clone(), nil
	}

	frac := float32(note-lo.MidiNote) / float32(hi.MidiNote-lo.MidiNote)

	var (
		bins []Bin
		err  error
	)
	switch lo.Variant {
	case IndexShifted:
		bins, err = blendShifted(lo, hi, note, frac)
	default:
		bins = blendHarmonic(lo, hi, frac)
	}
	if err != nil {
		return nil, err
	}

	out := &Table{
		Config:          lo.Config,
		MidiNote:        note,
		Variant:         lo.Variant,
		BinsPerSemitone: lo.BinsPerSemitone,
		Bins:            bins,
		threshold:       lo.threshold,
		limit:           lo.limit,
	}
	if out.Variant == Harmonic {
		out.retune(note)
	}
	out.RefreshActiveBins()
	return out, nil
}

func blendShifted(lo, hi *Table, note int, frac float32) ([]Bin, error) {
	offLo := binOffset(note-lo.MidiNote, lo.BinsPerSemitone)
	offHi := binOffset(note-hi.MidiNote, hi.BinsPerSemitone)

	bins := make([]Bin, len(lo.Bins))
	for i := range bins {
		bins[i].Frequency = lo.Bins[i].Frequency
		a := sourceEnvelope(lo, i-offLo)
		b := sourceEnvelope(hi, i-offHi)
		switch {
		case a != nil && b != nil:
			bins[i].Envelope = blend(a, b, frac)
		case a != nil:
			bins[i].Envelope = append([]float32(nil), a...)
		case b != nil:
			bins[i].Envelope = append([]float32(nil), b...)
		default:
			return nil, fmt.Errorf("%w: bin %d at note %d", ErrUncoveredBin, i, note)
		}
	}
	return bins, nil
}

func blendHarmonic(lo, hi *Table, frac float32) []Bin {
	bins := make([]Bin, len(lo.Bins))
	for i := range bins {
		if i < len(hi.Bins) {
			bins[i].Envelope = blend(lo.Bins[i].Envelope, hi.Bins[i].Envelope, frac)
			continue
		}
		bins[i].Envelope = append([]float32(nil), lo.Bins[i].Envelope...)
	}
	return bins
}

func sourceEnvelope(t *Table, idx int) []float32 {
	if idx < 0 || idx >= len(t.Bins) {
		return nil
	}
	return t.Bins[idx].Envelope
}

// blend returns (1-frac)·a + frac·b over the shorter of the two envelopes.
func blend(a, b []float32, frac float32) []float32 {
	n := min(len(a), len(b))
	out := make([]float32, n)
	simdops.Float32Ops().Scale(out, a[:n], 1-frac)
	for k := range out {
		out[k] += frac * b[k]
	}
	return out
}
