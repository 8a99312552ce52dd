package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tphakala/go-spectral-synth/internal/table"
)

// Cache layout, little endian:
//
//	magic [4]byte "SPTC", version uint16, debug uint8
//	128 slots: present uint8, then for present slots:
//	  variant uint8, note int32, sampleRate, hopSize, binsPerSemitone float64,
//	  threshold float32, limit int32, numBins uint32,
//	  numBins × (frequency float64, envLen uint32, envLen × float32)
const (
	cacheMagic   = "SPTC"
	cacheVersion = 1

	maxCacheBins   = 1 << 20
	maxCacheEnvLen = 1 << 26
)

// ErrBadCache is returned for cache data that is not a valid table cache.
var ErrBadCache = errors.New("invalid table cache")

type slotHeader struct {
	Variant         uint8
	Note            int32
	SampleRate      float64
	HopSize         float64
	BinsPerSemitone float64
	Threshold       float32
	Limit           int32
	NumBins         uint32
}

type binHeader struct {
	Frequency float64
	EnvLen    uint32
}

// WriteCache serializes every slot and the debug flag.
func (s *Store) WriteCache(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bw := bufio.NewWriter(w)
	le := binary.LittleEndian

	if _, err := bw.WriteString(cacheMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, le, uint16(cacheVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, le, boolByte(s.debug)); err != nil {
		return err
	}

	for _, t := range s.tables {
		if err := binary.Write(bw, le, boolByte(t != nil)); err != nil {
			return err
		}
		if t == nil {
			continue
		}
		hdr := slotHeader{
			Variant:         uint8(t.Variant),
			Note:            int32(t.MidiNote),
			SampleRate:      t.Config.SampleRate,
			HopSize:         t.Config.HopSize,
			BinsPerSemitone: t.BinsPerSemitone,
			Threshold:       t.Threshold(),
			Limit:           int32(t.Limit()),
			NumBins:         uint32(len(t.Bins)),
		}
		if err := binary.Write(bw, le, &hdr); err != nil {
			return err
		}
		for _, b := range t.Bins {
			bh := binHeader{Frequency: b.Frequency, EnvLen: uint32(len(b.Envelope))}
			if err := binary.Write(bw, le, &bh); err != nil {
				return err
			}
			if err := binary.Write(bw, le, b.Envelope); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadCache replaces the store content and debug flag with cache data.
// The store is left unchanged on error.
func (s *Store) ReadCache(r io.Reader) error {
	br := bufio.NewReader(r)
	le := binary.LittleEndian

	magic := make([]byte, len(cacheMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("%w: %w", ErrBadCache, err)
	}
	if string(magic) != cacheMagic {
		return fmt.Errorf("%w: bad magic %q", ErrBadCache, magic)
	}
	var version uint16
	var debug uint8
	if err := binary.Read(br, le, &version); err != nil {
		return fmt.Errorf("%w: %w", ErrBadCache, err)
	}
	if version != cacheVersion {
		return fmt.Errorf("%w: version %d", ErrBadCache, version)
	}
	if err := binary.Read(br, le, &debug); err != nil {
		return fmt.Errorf("%w: %w", ErrBadCache, err)
	}

	var tables [table.NumNotes]*table.Table
	for slot := range tables {
		t, err := readSlot(br)
		if err != nil {
			return fmt.Errorf("%w: slot %d: %w", ErrBadCache, slot, err)
		}
		if t != nil && t.MidiNote != slot {
			return fmt.Errorf("%w: slot %d holds note %d", ErrBadCache, slot, t.MidiNote)
		}
		tables[slot] = t
	}

	s.mu.Lock()
	s.tables = tables
	s.debug = debug != 0
	s.mu.Unlock()
	return nil
}

func readSlot(r io.Reader) (*table.Table, error) {
	le := binary.LittleEndian
	var present uint8
	if err := binary.Read(r, le, &present); err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}

	var hdr slotHeader
	if err := binary.Read(r, le, &hdr); err != nil {
		return nil, err
	}
	if hdr.NumBins > maxCacheBins {
		return nil, fmt.Errorf("bin count %d too large", hdr.NumBins)
	}

	bins := make([]table.Bin, hdr.NumBins)
	for i := range bins {
		var bh binHeader
		if err := binary.Read(r, le, &bh); err != nil {
			return nil, err
		}
		if bh.EnvLen > maxCacheEnvLen {
			return nil, fmt.Errorf("envelope length %d too large", bh.EnvLen)
		}
		env := make([]float32, bh.EnvLen)
		if err := binary.Read(r, le, env); err != nil {
			return nil, err
		}
		bins[i] = table.Bin{Frequency: bh.Frequency, Envelope: env}
	}

	cfg := table.Config{SampleRate: hdr.SampleRate, HopSize: hdr.HopSize}
	var t *table.Table
	switch table.Variant(hdr.Variant) {
	case table.IndexShifted:
		t = table.NewIndexShifted(cfg, int(hdr.Note), hdr.BinsPerSemitone, bins)
	case table.Harmonic:
		t = &table.Table{Config: cfg, MidiNote: int(hdr.Note), Variant: table.Harmonic, Bins: bins}
	default:
		return nil, fmt.Errorf("unknown variant %d", hdr.Variant)
	}
	t.ApplyThreshold(hdr.Threshold)
	t.LimitActiveBins(int(hdr.Limit))
	return t, nil
}

// SaveCache writes the cache to path.
func (s *Store) SaveCache(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteCache(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadCache reads the cache at path.
func (s *Store) LoadCache(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.ReadCache(f)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
