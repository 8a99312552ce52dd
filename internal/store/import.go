package store

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-spectral-synth/internal/tablefile"
)

// maxIncludeDepth bounds nested include files.
const maxIncludeDepth = 16

// ErrIncludeDepth is returned when include files nest too deeply.
var ErrIncludeDepth = errors.New("include files nested too deeply")

// ImportTextFile imports a table or include file. With parallel set, the
// entries of a top-level include file are imported concurrently; nested
// include files are imported sequentially. A file that fails to parse never
// touches the store.
func (s *Store) ImportTextFile(path string, parallel bool) error {
	return s.importFile(path, parallel, 0)
}

func (s *Store) importFile(path string, parallel bool, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("%w: %s", ErrIncludeDepth, path)
	}

	p := tablefile.Parser{Logger: s.log}
	f, err := p.ParseFile(path)
	if err != nil {
		return err
	}

	if f.Kind != tablefile.KindInclude {
		return s.Set(f.Table)
	}

	s.log.Debug("importing include file %s (%d entries)", path, len(f.Includes))
	if !parallel {
		var errs []error
		for _, inc := range f.Includes {
			if err := s.importFile(inc, false, depth+1); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var g errgroup.Group
	for _, inc := range f.Includes {
		g.Go(func() error {
			return s.importFile(inc, false, depth+1)
		})
	}
	return g.Wait()
}
