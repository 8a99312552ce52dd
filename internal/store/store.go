// Package store holds one optional spectral table per MIDI note, builds the
// dense note range from a sparse set of authored tables and persists the
// result as a binary cache.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tphakala/go-spectral-synth/internal/logging"
	"github.com/tphakala/go-spectral-synth/internal/table"
)

var (
	// ErrNoTables is returned when densifying an empty store.
	ErrNoTables = errors.New("store holds no tables")

	// ErrNoteRange is returned for tables whose note is outside 0..127.
	ErrNoteRange = errors.New("midi note out of range")

	// ErrSanity wraps a non-zero ErrorCode.
	ErrSanity = errors.New("table store failed consistency check")
)

// ErrorCode is a set of consistency problems reported by Sanity.
type ErrorCode uint8

const (
	// NoError means every stored table is valid and all share a bin count.
	NoError ErrorCode = 0

	// InvalidTables means at least one stored table fails IsValid.
	InvalidTables ErrorCode = 1 << 0

	// InvalidNumBins means stored tables disagree on the number of bins.
	InvalidNumBins ErrorCode = 1 << 1
)

// String lists the flags set in c.
func (c ErrorCode) String() string {
	if c == NoError {
		return "NoError"
	}
	var parts []string
	if c&InvalidTables != 0 {
		parts = append(parts, "InvalidTables")
	}
	if c&InvalidNumBins != 0 {
		parts = append(parts, "InvalidNumBins")
	}
	return strings.Join(parts, "|")
}

// Err converts c into an error wrapping ErrSanity, or nil for NoError.
func (c ErrorCode) Err() error {
	if c == NoError {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrSanity, c)
}

// Options configures a Store.
type Options struct {
	// Debug enables import progress logging and is persisted in the cache.
	Debug bool

	// Logger receives progress messages. Nil discards them.
	Logger *logging.Logger
}

// Store is a fixed array of tables indexed by MIDI note. It is filled during
// startup and read-only afterwards.
type Store struct {
	mu     sync.RWMutex
	tables [table.NumNotes]*table.Table
	debug  bool
	log    *logging.Logger
}

// New creates an empty store.
func New(opts Options) *Store {
	s := &Store{debug: opts.Debug}
	if opts.Debug {
		s.log = opts.Logger.Named("store")
	}
	return s
}

// Debug reports whether debug mode is enabled.
func (s *Store) Debug() bool {
	return s.debug
}

// Table returns the table for note, or nil if the slot is empty.
func (s *Store) Table(note int) *table.Table {
	if note < table.MinNote || note > table.MaxNote {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[note]
}

// Snapshot returns a copy of the slot array for lock-free reads once the
// store is fully prepared.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot(s.tables)
	return &snap
}

// Snapshot is an immutable view of the store's slots.
type Snapshot [table.NumNotes]*table.Table

// Table returns the table for note, or nil.
func (s *Snapshot) Table(note int) *table.Table {
	if note < table.MinNote || note > table.MaxNote {
		return nil
	}
	return s[note]
}

// Set stores t in the slot of its MIDI note, replacing any previous table.
func (s *Store) Set(t *table.Table) error {
	if t.MidiNote < table.MinNote || t.MidiNote > table.MaxNote {
		return fmt.Errorf("%w: %d", ErrNoteRange, t.MidiNote)
	}
	s.mu.Lock()
	s.tables[t.MidiNote] = t
	s.mu.Unlock()
	return nil
}

// Clear empties every slot.
func (s *Store) Clear() {
	s.mu.Lock()
	s.tables = [table.NumNotes]*table.Table{}
	s.mu.Unlock()
}

// NumTables returns the number of populated slots.
func (s *Store) NumTables() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tables {
		if t != nil {
			n++
		}
	}
	return n
}

// Range returns the lowest and highest populated notes.
func (s *Store) Range() (lo, hi int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lo, hi = -1, -1
	for i, t := range s.tables {
		if t == nil {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	return lo, hi, lo >= 0
}

// Sanity checks that every table is valid and that all tables share one
// bin count.
func (s *Store) Sanity() ErrorCode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code := NoError
	numBins := -1
	for _, t := range s.tables {
		if t == nil {
			continue
		}
		if !t.IsValid() {
			code |= InvalidTables
		}
		switch {
		case numBins < 0:
			numBins = t.NumBins()
		case numBins != t.NumBins():
			code |= InvalidNumBins
		}
	}
	return code
}

// MaxBins returns the largest bin count of any stored table.
func (s *Store) MaxBins() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tables {
		if t != nil {
			n = max(n, t.NumBins())
		}
	}
	return n
}

// ApplyThreshold deactivates quiet bins in every table.
func (s *Store) ApplyThreshold(level float32) {
	s.each(func(t *table.Table) { t.ApplyThreshold(level) })
}

// LimitActiveBins keeps at most n loud bins active in every table.
func (s *Store) LimitActiveBins(n int) {
	s.each(func(t *table.Table) { t.LimitActiveBins(n) })
}

// UnlimitActiveBins removes the bin limit from every table.
func (s *Store) UnlimitActiveBins() {
	s.each(func(t *table.Table) { t.UnlimitActiveBins() })
}

func (s *Store) each(fn func(*table.Table)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tables {
		if t != nil {
			fn(t)
		}
	}
}
