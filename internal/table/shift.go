package table

import "math"

// ShiftTo re-pitches the table in place to the given note.
//
// Harmonic tables recompute bin frequencies. IndexShifted tables move each
// envelope up by round(Δnote·BinsPerSemitone) bins: bins pushed past either
// edge are dropped and vacated bins are zero-filled. Bin frequencies stay on
// the grid.
func (t *Table) ShiftTo(note int) {
	if note == t.MidiNote {
		return
	}
	switch t.Variant {
	case Harmonic:
		t.retune(note)
	case IndexShifted:
		t.shiftIndices(binOffset(note-t.MidiNote, t.BinsPerSemitone))
	}
	t.MidiNote = note
	t.RefreshActiveBins()
}

// Shifted returns a re-pitched copy, leaving t untouched.
func (t *Table) Shifted(note int) *Table {
	c := t.Clone()
	c.ShiftTo(note)
	return c
}

func binOffset(deltaNotes int, binsPerSemitone float64) int {
	return int(math.Round(float64(deltaNotes) * binsPerSemitone))
}

func (t *Table) retune(note int) {
	fundamental := NoteFrequency(note)
	for i := range t.Bins {
		t.Bins[i].Frequency = float64(i+1) * fundamental
	}
}

// shiftIndices applies new[i] = old[i-offset].
func (t *Table) shiftIndices(offset int) {
	if offset == 0 {
		return
	}
	n := len(t.Bins)
	envLen := t.EnvelopeLength()
	old := make([][]float32, n)
	for i := range t.Bins {
		old[i] = t.Bins[i].Envelope
	}
	for i := range t.Bins {
		src := i - offset
		if src < 0 || src >= n {
			t.Bins[i].Envelope = make([]float32, envLen)
			continue
		}
		t.Bins[i].Envelope = old[src]
	}
}
