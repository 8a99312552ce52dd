// Package audio defines the block-based audio callback contract and adapts
// it to hosts that pull interleaved buffers of arbitrary size.
package audio

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned for unusable callback configurations.
var ErrInvalidConfig = errors.New("invalid audio callback config")

// CallbackConfig describes the blocks a Callback is asked to render.
type CallbackConfig struct {
	// SampleRate is the output sample rate in Hz.
	SampleRate float64

	// FrameSize is the number of frames per block.
	FrameSize int

	InChannels  int
	OutChannels int
}

// Validate checks that the configuration can be rendered.
func (c CallbackConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %g", ErrInvalidConfig, c.SampleRate)
	case c.FrameSize <= 0:
		return fmt.Errorf("%w: frame size %d", ErrInvalidConfig, c.FrameSize)
	case c.OutChannels <= 0:
		return fmt.Errorf("%w: %d output channels", ErrInvalidConfig, c.OutChannels)
	case c.InChannels < 0:
		return fmt.Errorf("%w: %d input channels", ErrInvalidConfig, c.InChannels)
	}
	return nil
}

// Buffers holds planar input and output channels for one block.
type Buffers struct {
	In  [][]float32
	Out [][]float32
}

// NewBuffers allocates planar buffers for cfg.
func NewBuffers(cfg CallbackConfig) *Buffers {
	b := &Buffers{
		In:  make([][]float32, cfg.InChannels),
		Out: make([][]float32, cfg.OutChannels),
	}
	for i := range b.In {
		b.In[i] = make([]float32, cfg.FrameSize)
	}
	for i := range b.Out {
		b.Out[i] = make([]float32, cfg.FrameSize)
	}
	return b
}

// ClearOut zeroes every output channel.
func (b *Buffers) ClearOut() {
	for _, ch := range b.Out {
		clear(ch)
	}
}

// Callback renders audio in fixed-size blocks.
type Callback interface {
	// Prepare sizes internal state for cfg. It is called before the first
	// Process call and never concurrently with Process.
	Prepare(cfg CallbackConfig) error

	// Process renders one block into bufs.Out. It must not block.
	Process(cfg CallbackConfig, bufs *Buffers)
}
