// Package mixer sums voice output into the output channels of a block.
package mixer

import (
	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/simdops"
)

// DefaultGain is the level applied to the voice sum.
const DefaultGain = 0.5

// Source adds one block of audio to channel 0.
type Source interface {
	Process(cfg audio.CallbackConfig, bufs *audio.Buffers)
}

// Mixer renders its sources into channel 0, applies the gain and copies the
// result to every other output channel.
type Mixer struct {
	sources []Source
	gain    float32
}

// New creates a mixer over sources.
func New(gain float32, sources ...Source) *Mixer {
	return &Mixer{sources: sources, gain: gain}
}

// Gain returns the output gain.
func (m *Mixer) Gain() float32 { return m.gain }

// Process clears bufs.Out and renders one block.
func (m *Mixer) Process(cfg audio.CallbackConfig, bufs *audio.Buffers) {
	bufs.ClearOut()
	if len(bufs.Out) == 0 {
		return
	}
	for _, s := range m.sources {
		s.Process(cfg, bufs)
	}

	first := bufs.Out[0]
	n := min(cfg.FrameSize, len(first))
	simdops.Float32Ops().Scale(first[:n], first[:n], m.gain)
	for _, ch := range bufs.Out[1:] {
		copy(ch, first[:n])
	}
}
