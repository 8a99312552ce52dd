package store

import (
	"fmt"

	"github.com/tphakala/go-spectral-synth/internal/table"
)

// PrepareTables fills every empty slot in [lo, hi] from the nearest authored
// tables. A slot between two authored tables is interpolated; a slot with a
// neighbor on one side only gets a shifted copy of it. Only tables present
// before the call are used as neighbors. On error the store is left
// unchanged.
func (s *Store) PrepareTables(lo, hi int) error {
	if lo > hi {
		lo, hi = hi, lo
	}
	lo = max(lo, table.MinNote)
	hi = min(hi, table.MaxNote)

	s.mu.Lock()
	defer s.mu.Unlock()

	authored := s.tables
	filled := authored
	created := 0
	for note := lo; note <= hi; note++ {
		if authored[note] != nil {
			continue
		}
		below := nearest(&authored, note, -1)
		above := nearest(&authored, note, +1)

		var (
			t   *table.Table
			err error
		)
		switch {
		case below != nil && above != nil:
			t, err = table.Interpolate(below, above, note)
		case below != nil:
			t = below.Shifted(note)
		case above != nil:
			t = above.Shifted(note)
		default:
			return ErrNoTables
		}
		if err != nil {
			return fmt.Errorf("prepare note %d: %w", note, err)
		}
		t.NormalizeBinLengths()
		t.RefreshActiveBins()
		filled[note] = t
		created++
	}
	s.tables = filled

	s.log.Debug("prepared notes %d..%d, %d tables created", lo, hi, created)
	return nil
}

// PrepareTablesAutoRange densifies between the lowest and highest populated
// notes.
func (s *Store) PrepareTablesAutoRange() error {
	lo, hi, ok := s.Range()
	if !ok {
		return ErrNoTables
	}
	return s.PrepareTables(lo, hi)
}

// PrepareTablesFull densifies the whole MIDI range, extrapolating beyond the
// authored tables.
func (s *Store) PrepareTablesFull() error {
	return s.PrepareTables(table.MinNote, table.MaxNote)
}

func nearest(tables *[table.NumNotes]*table.Table, note, dir int) *table.Table {
	for i := note + dir; i >= table.MinNote && i <= table.MaxNote; i += dir {
		if tables[i] != nil {
			return tables[i]
		}
	}
	return nil
}
