package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-spectral-synth/internal/audio"
)

type constSource float32

func (c constSource) Process(cfg audio.CallbackConfig, bufs *audio.Buffers) {
	for i := range cfg.FrameSize {
		bufs.Out[0][i] += float32(c)
	}
}

func TestMixer_SumsScalesAndFansOut(t *testing.T) {
	cfg := audio.CallbackConfig{SampleRate: 48000, FrameSize: 16, OutChannels: 3}
	bufs := audio.NewBuffers(cfg)
	bufs.Out[2][5] = 99 // stale data is cleared

	m := New(DefaultGain, constSource(0.25), constSource(0.75), constSource(1))
	m.Process(cfg, bufs)

	for ch := range bufs.Out {
		for i, v := range bufs.Out[ch] {
			assert.InDelta(t, 1.0, float64(v), 1e-6, "channel %d sample %d", ch, i)
		}
	}
	assert.Equal(t, float32(DefaultGain), m.Gain())
}

func TestMixer_NoSourcesIsSilent(t *testing.T) {
	cfg := audio.CallbackConfig{SampleRate: 48000, FrameSize: 8, OutChannels: 2}
	bufs := audio.NewBuffers(cfg)
	bufs.Out[0][0] = 1

	New(1).Process(cfg, bufs)
	assert.Equal(t, make([]float32, 8), bufs.Out[0])
	assert.Equal(t, make([]float32, 8), bufs.Out[1])
}

func TestMixer_DoesNotAllocate(t *testing.T) {
	cfg := audio.CallbackConfig{SampleRate: 48000, FrameSize: 64, OutChannels: 2}
	bufs := audio.NewBuffers(cfg)
	m := New(0.5, constSource(0.1))

	assert.Zero(t, testing.AllocsPerRun(20, func() { m.Process(cfg, bufs) }))
}
