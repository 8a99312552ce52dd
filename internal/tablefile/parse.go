// Package tablefile reads and writes the line-oriented spectral table text
// format.
//
// A file starts with a tag line selecting its kind:
//
//	[CQTTableFile]        one IndexShifted table
//	[HarmonicTableFile]   one Harmonic table
//	[IncludeFile]         a list of Include=<path> lines
//
// followed by key=value lines. Keys are case-insensitive. Each bin is a
// Frequency (or Harmonic) line followed by an Amplitudes line holding a
// comma separated envelope.
package tablefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/go-spectral-synth/internal/logging"
	"github.com/tphakala/go-spectral-synth/internal/table"
)

// Kind is the kind of a table text file.
type Kind int

const (
	KindUnknown Kind = iota
	KindCQT
	KindHarmonic
	KindInclude
)

// String returns the tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindCQT:
		return tagCQT
	case KindHarmonic:
		return tagHarmonic
	case KindInclude:
		return tagInclude
	default:
		return "unknown"
	}
}

const (
	tagCQT      = "[CQTTableFile]"
	tagHarmonic = "[HarmonicTableFile]"
	tagInclude  = "[IncludeFile]"

	commentPrefix = "//"

	// progressEvery is the bin count between debug progress messages.
	progressEvery = 20

	// maxLineSize bounds a single Amplitudes line.
	maxLineSize = 64 << 20

	// MaxHarmonic is the largest accepted Harmonic number.
	MaxHarmonic = 1 << 16
)

var (
	// ErrUnknownFileKind is returned when no line carries a known tag.
	ErrUnknownFileKind = errors.New("unknown table file kind")

	// ErrMalformedNumber is returned when a numeric value cannot be parsed.
	ErrMalformedNumber = errors.New("malformed number")

	// ErrAmplitudesBeforeKey is returned when an Amplitudes line is not
	// preceded by a Frequency or Harmonic line in the same bin.
	ErrAmplitudesBeforeKey = errors.New("amplitudes without preceding frequency or harmonic")

	// ErrInvalidTable is returned when a parsed table fails validation.
	ErrInvalidTable = errors.New("parsed table is invalid")
)

// ParseError carries the location of a parse failure.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// File is the parsed content of one table text file.
type File struct {
	Kind Kind

	// Table is set for KindCQT and KindHarmonic.
	Table *table.Table

	// Includes holds the include paths of a KindInclude file, resolved
	// against the directory of the including file.
	Includes []string
}

// Parser reads table text files.
type Parser struct {
	// Logger receives per-file and bin progress messages at debug level.
	Logger *logging.Logger
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := p.Parse(f, path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for i, inc := range parsed.Includes {
		if !filepath.IsAbs(inc) {
			parsed.Includes[i] = filepath.Join(dir, inc)
		}
	}
	return parsed, nil
}

// Parse parses a table text file. name is used in error messages.
func (p *Parser) Parse(r io.Reader, name string) (*File, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	kind := detectKind(lines)
	switch kind {
	case KindInclude:
		return &File{Kind: kind, Includes: parseIncludes(lines)}, nil
	case KindCQT, KindHarmonic:
		p.Logger.Debug("importing %s table %s", kind, name)
		t, err := p.parseTable(kind, lines, name)
		if err != nil {
			return nil, err
		}
		p.Logger.Debug("finished importing %s (%d bins)", name, t.NumBins())
		return &File{Kind: kind, Table: t}, nil
	default:
		return nil, &ParseError{File: name, Err: ErrUnknownFileKind}
	}
}

// DetectKind returns the kind of the file at path.
func DetectKind(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return KindUnknown, err
	}
	return detectKind(lines), nil
}

func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

// detectKind returns the kind of the first line that is a known tag.
func detectKind(lines []string) Kind {
	for _, line := range lines {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case strings.ToLower(tagInclude):
			return KindInclude
		case strings.ToLower(tagCQT):
			return KindCQT
		case strings.ToLower(tagHarmonic):
			return KindHarmonic
		}
	}
	return KindUnknown
}

type key int

const (
	keyNone key = iota
	keyInclude
	keySampleRate
	keyHopSize
	keyBinsPerSemitone
	keyFrequency
	keyAmplitudes
	keyMidiNote
	keyHarmonic
)

var keyNames = map[string]key{
	"include":         keyInclude,
	"samplerate":      keySampleRate,
	"hopsize":         keyHopSize,
	"binspersemitone": keyBinsPerSemitone,
	"frequency":       keyFrequency,
	"amplitudes":      keyAmplitudes,
	"amplitude":       keyAmplitudes,
	"midinote":        keyMidiNote,
	"harmonic":        keyHarmonic,
}

// splitLine splits a line at the first '='.
func splitLine(line string) (key, string) {
	name, value, ok := strings.Cut(line, "=")
	if !ok {
		return keyNone, ""
	}
	return keyNames[strings.ToLower(strings.TrimSpace(name))], strings.TrimSpace(value)
}

func parseIncludes(lines []string) []string {
	var includes []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), commentPrefix) {
			continue
		}
		if k, v := splitLine(line); k == keyInclude && v != "" {
			includes = append(includes, v)
		}
	}
	return includes
}

type tableBuilder struct {
	cfg             table.Config
	note            int
	hasNote         bool
	binsPerSemitone float64

	bins     []table.Bin
	harmonic map[int][]float32
	maxHarm  int

	// current is the pending Frequency or Harmonic value.
	current    float64
	hasCurrent bool
}

func (p *Parser) parseTable(kind Kind, lines []string, name string) (*table.Table, error) {
	b := &tableBuilder{}
	if kind == KindHarmonic {
		b.harmonic = make(map[int][]float32)
	}
	lastReported := 0
	fail := func(line int, err error) error {
		return &ParseError{File: name, Line: line, Err: err}
	}

	for i, line := range lines {
		lineNo := i + 1
		if strings.HasPrefix(strings.TrimSpace(line), commentPrefix) {
			continue
		}
		k, v := splitLine(line)
		switch k {
		case keyMidiNote:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fail(lineNo, fmt.Errorf("%w: MidiNote %q", ErrMalformedNumber, v))
			}
			b.note, b.hasNote = n, true
		case keySampleRate, keyHopSize, keyBinsPerSemitone, keyFrequency, keyHarmonic:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fail(lineNo, fmt.Errorf("%w: %q", ErrMalformedNumber, v))
			}
			if err := b.set(kind, k, f); err != nil {
				return nil, fail(lineNo, fmt.Errorf("%w: %q", err, v))
			}
		case keyAmplitudes:
			if !b.hasCurrent {
				return nil, fail(lineNo, ErrAmplitudesBeforeKey)
			}
			env, err := parseValueList(v)
			if err != nil {
				return nil, fail(lineNo, err)
			}
			n := b.addBin(env)
			if p.Logger.Enabled(logging.LevelDebug) && n/progressEvery > lastReported {
				lastReported = n / progressEvery
				p.Logger.Debug("%d bins into %s", n, name)
			}
		}
	}

	t, err := b.build(kind)
	if err != nil {
		return nil, fail(0, err)
	}
	return t, nil
}

func (b *tableBuilder) set(kind Kind, k key, v float64) error {
	switch k {
	case keySampleRate:
		b.cfg.SampleRate = v
	case keyHopSize:
		b.cfg.HopSize = v
	case keyBinsPerSemitone:
		b.binsPerSemitone = v
	case keyFrequency:
		if kind != KindCQT {
			return nil
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: Frequency", ErrMalformedNumber)
		}
		b.current, b.hasCurrent = v, true
	case keyHarmonic:
		if kind != KindHarmonic {
			return nil
		}
		if !validHarmonic(v) {
			return fmt.Errorf("%w: Harmonic must be an integer in [1, %d]", ErrMalformedNumber, MaxHarmonic)
		}
		b.current, b.hasCurrent = v, true
	}
	return nil
}

// validHarmonic rejects NaN, fractional and out of range harmonic numbers.
func validHarmonic(v float64) bool {
	return v >= 1 && v <= MaxHarmonic && v == math.Trunc(v)
}

// addBin stores env under the pending key and returns the bin count.
func (b *tableBuilder) addBin(env []float32) int {
	defer func() { b.current, b.hasCurrent = 0, false }()
	if b.harmonic == nil {
		b.bins = append(b.bins, table.Bin{Frequency: b.current, Envelope: env})
		return len(b.bins)
	}
	h := int(b.current)
	b.harmonic[h] = env
	b.maxHarm = max(b.maxHarm, h)
	return len(b.harmonic)
}

func (b *tableBuilder) build(kind Kind) (*table.Table, error) {
	var t *table.Table
	switch kind {
	case KindHarmonic:
		if !b.hasNote {
			return nil, fmt.Errorf("%w: harmonic table without MidiNote", ErrInvalidTable)
		}
		// Harmonic=1 is the fundamental; missing harmonics stay silent.
		bins := make([]table.Bin, b.maxHarm)
		for h, env := range b.harmonic {
			if h >= 1 {
				bins[h-1].Envelope = env
			}
		}
		t = table.NewHarmonic(b.cfg, b.note, bins)
	default:
		t = table.NewIndexShifted(b.cfg, b.note, b.binsPerSemitone, b.bins)
		if !b.hasNote {
			note, ok := t.EstimateMidiNote()
			if !ok {
				return nil, fmt.Errorf("%w: no MidiNote and no energy to estimate one", ErrInvalidTable)
			}
			t.MidiNote = note
		}
	}

	t.NormalizeBinLengths()
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: note %d, %d bins", ErrInvalidTable, t.MidiNote, t.NumBins())
	}
	t.RefreshActiveBins()
	return t, nil
}

// parseValueList parses comma separated floats. A malformed final value is
// ignored so trailing separators and stray characters at line end are
// accepted.
func parseValueList(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float32, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			if i == len(fields)-1 {
				break
			}
			return nil, fmt.Errorf("%w: amplitude %d %q", ErrMalformedNumber, i, field)
		}
		out = append(out, float32(v))
	}
	return out, nil
}
