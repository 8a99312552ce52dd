package synth

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/tphakala/go-spectral-synth/internal/logging"
	"github.com/tphakala/go-spectral-synth/internal/store"
)

// Tables holds one spectral table per MIDI note.
type Tables = store.Store

// TableOptions configures LoadTables.
type TableOptions struct {
	// Path is a table file or an include file listing table files.
	Path string

	// CachePath is the binary cache. When it holds a consistent cache the
	// text files are not read; otherwise it is written after importing.
	// Empty disables caching.
	CachePath string

	// Parallel imports the entries of an include file concurrently.
	Parallel bool

	// Debug logs import progress.
	Debug bool

	// Threshold deactivates bins whose envelope peak is below it.
	Threshold float32

	// MaxActiveBins keeps only the loudest bins active. Zero keeps all.
	MaxActiveBins int

	Logger *logging.Logger
}

// NewTables creates an empty table store.
func NewTables(debug bool, logger *logging.Logger) *Tables {
	return store.New(store.Options{Debug: debug, Logger: logger})
}

// LoadTables loads tables from the cache if possible and otherwise imports
// the text files, fills every MIDI note and writes the cache.
func LoadTables(opts TableOptions) (*Tables, error) {
	log := opts.Logger.Named("tables")

	if opts.CachePath != "" {
		t := NewTables(opts.Debug, opts.Logger)
		err := t.LoadCache(opts.CachePath)
		if err == nil {
			err = t.Sanity().Err()
		}
		switch {
		case err == nil:
			applyBinOptions(t, opts)
			log.Info("loaded %d tables from cache %s", t.NumTables(), opts.CachePath)
			return t, nil
		case errors.Is(err, fs.ErrNotExist):
			log.Debug("no cache at %s", opts.CachePath)
		default:
			log.Warn("ignoring cache %s: %v", opts.CachePath, err)
		}
	}

	if opts.Path == "" {
		return nil, fmt.Errorf("%w: no table path", ErrNoTables)
	}

	t := NewTables(opts.Debug, opts.Logger)
	if err := t.ImportTextFile(opts.Path, opts.Parallel); err != nil {
		return nil, fmt.Errorf("import %s: %w", opts.Path, err)
	}
	authored := t.NumTables()

	if err := t.PrepareTablesFull(); err != nil {
		return nil, err
	}
	if err := t.Sanity().Err(); err != nil {
		return nil, err
	}
	applyBinOptions(t, opts)
	log.Info("imported %d tables from %s, %d after filling", authored, opts.Path, t.NumTables())

	if opts.CachePath != "" {
		if err := t.SaveCache(opts.CachePath); err != nil {
			log.Warn("writing cache %s: %v", opts.CachePath, err)
		}
	}
	return t, nil
}

// applyBinOptions replaces the threshold and bin limit of every table with
// the requested ones, including those restored from a cache.
func applyBinOptions(t *Tables, opts TableOptions) {
	t.ApplyThreshold(max(opts.Threshold, 0))
	t.LimitActiveBins(opts.MaxActiveBins)
}
