package audio

import (
	"github.com/tphakala/go-spectral-synth/internal/simdops"
)

const stereoChannels = 2

// Blocker runs a Callback in fixed blocks and serves interleaved samples in
// whatever amounts a host asks for. Leftover samples of a block are queued
// for the next request.
type Blocker struct {
	cb   Callback
	cfg  CallbackConfig
	bufs *Buffers

	block []float32
	fifo  *FIFO
}

// NewBlocker prepares cb for cfg and returns the adapter.
func NewBlocker(cb Callback, cfg CallbackConfig) (*Blocker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cb.Prepare(cfg); err != nil {
		return nil, err
	}
	n := cfg.FrameSize * cfg.OutChannels
	return &Blocker{
		cb:    cb,
		cfg:   cfg,
		bufs:  NewBuffers(cfg),
		block: make([]float32, n),
		fifo:  NewFIFO(n),
	}, nil
}

// Config returns the block configuration.
func (b *Blocker) Config() CallbackConfig { return b.cfg }

// Fill writes len(dst) interleaved samples. len(dst) should be a multiple
// of the output channel count.
func (b *Blocker) Fill(dst []float32) {
	for len(dst) > 0 {
		if b.fifo.Available() == 0 {
			b.renderBlock()
		}
		n := b.fifo.ReadInto(dst)
		dst = dst[n:]
	}
}

// Reset drops queued samples.
func (b *Blocker) Reset() {
	b.fifo.Clear()
}

func (b *Blocker) renderBlock() {
	b.bufs.ClearOut()
	b.cb.Process(b.cfg, b.bufs)
	Interleave(b.block, b.bufs.Out)
	b.fifo.Write(b.block)
}

// Interleave writes planar channels into dst frame by frame.
func Interleave(dst []float32, channels [][]float32) {
	switch len(channels) {
	case 0:
		return
	case 1:
		copy(dst, channels[0])
	case stereoChannels:
		simdops.Float32Ops().Interleave2(dst, channels[0], channels[1])
	default:
		nch := len(channels)
		for ch, src := range channels {
			for i, s := range src {
				dst[i*nch+ch] = s
			}
		}
	}
}
