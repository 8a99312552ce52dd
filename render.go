package synth

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/score"
)

// Event is a MIDI message scheduled at Time seconds.
type Event = score.Event

// Render plays events offline and returns seconds of planar output, one
// slice per output channel. Events are applied at the start of the block
// containing their time. Render prepares the synth itself and must not be
// used while an audio host is running it.
func (s *Synth) Render(events []Event, seconds float64) ([][]float32, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, fmt.Errorf("%w: render length %g", ErrInvalidConfig, seconds)
	}

	cfg := s.config.CallbackConfig()
	s.AllNotesOff()
	if err := s.Prepare(cfg); err != nil {
		return nil, err
	}

	total := int(math.Round(seconds * cfg.SampleRate))
	out := make([][]float32, cfg.OutChannels)
	for ch := range out {
		out[ch] = make([]float32, total)
	}

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int { return cmp.Compare(a.Time, b.Time) })

	bufs := audio.NewBuffers(cfg)
	next := 0
	for pos := 0; pos < total; pos += cfg.FrameSize {
		end := pos + cfg.FrameSize
		for next < len(sorted) {
			at := int(math.Round(sorted[next].Time * cfg.SampleRate))
			if at >= end {
				break
			}
			s.HandleMidi(uint32(max(at, 0)), sorted[next].Msg)
			next++
		}

		s.Process(cfg, bufs)
		n := min(cfg.FrameSize, total-pos)
		for ch := range out {
			copy(out[ch][pos:pos+n], bufs.Out[ch][:n])
		}
	}
	return out, nil
}
