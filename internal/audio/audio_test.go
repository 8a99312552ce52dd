package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter writes a running frame index to channel 0 and its negation to
// channel 1.
type counter struct {
	prepared int
	blocks   int
	next     float32
}

func (c *counter) Prepare(CallbackConfig) error {
	c.prepared++
	return nil
}

func (c *counter) Process(cfg CallbackConfig, bufs *Buffers) {
	c.blocks++
	for i := range cfg.FrameSize {
		bufs.Out[0][i] = c.next
		if len(bufs.Out) > 1 {
			bufs.Out[1][i] = -c.next
		}
		c.next++
	}
}

func TestCallbackConfig_Validate(t *testing.T) {
	good := CallbackConfig{SampleRate: 48000, FrameSize: 64, OutChannels: 2}
	require.NoError(t, good.Validate())

	for _, bad := range []CallbackConfig{
		{SampleRate: 0, FrameSize: 64, OutChannels: 2},
		{SampleRate: 48000, FrameSize: 0, OutChannels: 2},
		{SampleRate: 48000, FrameSize: 64, OutChannels: 0},
		{SampleRate: 48000, FrameSize: 64, OutChannels: 1, InChannels: -1},
	} {
		require.ErrorIs(t, bad.Validate(), ErrInvalidConfig, "%+v", bad)
	}
}

func TestFIFO(t *testing.T) {
	f := NewFIFO(5)
	assert.Equal(t, 8, f.Capacity())

	assert.Equal(t, 8, f.Write([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}))
	assert.Zero(t, f.Space())

	dst := make([]float32, 3)
	assert.Equal(t, 3, f.ReadInto(dst))
	assert.Equal(t, []float32{1, 2, 3}, dst)

	// wraps around the end of the buffer
	assert.Equal(t, 2, f.Write([]float32{10, 11}))
	out := make([]float32, 10)
	assert.Equal(t, 7, f.ReadInto(out))
	assert.Equal(t, []float32{4, 5, 6, 7, 8, 10, 11}, out[:7])

	f.Write([]float32{1})
	f.Clear()
	assert.Zero(t, f.Available())
}

func TestBlocker_ServesOddSizedRequests(t *testing.T) {
	cb := &counter{}
	b, err := NewBlocker(cb, CallbackConfig{SampleRate: 48000, FrameSize: 4, OutChannels: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, cb.prepared)

	var got []float32
	for _, frames := range []int{3, 1, 6, 2} {
		dst := make([]float32, frames*2)
		b.Fill(dst)
		got = append(got, dst...)
	}

	require.Len(t, got, 24)
	for i := range 12 {
		assert.Equal(t, float32(i), got[2*i], "left frame %d", i)
		assert.Equal(t, float32(-i), got[2*i+1], "right frame %d", i)
	}
	assert.Equal(t, 3, cb.blocks)
}

func TestBlocker_RejectsBadConfig(t *testing.T) {
	_, err := NewBlocker(&counter{}, CallbackConfig{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestInterleave(t *testing.T) {
	dst := make([]float32, 6)
	Interleave(dst, [][]float32{{1, 2}, {3, 4}, {5, 6}})
	assert.Equal(t, []float32{1, 3, 5, 2, 4, 6}, dst)

	mono := make([]float32, 2)
	Interleave(mono, [][]float32{{7, 8}})
	assert.Equal(t, []float32{7, 8}, mono)
}

func TestBuffers_ClearOut(t *testing.T) {
	b := NewBuffers(CallbackConfig{SampleRate: 1, FrameSize: 3, InChannels: 1, OutChannels: 2})
	require.Len(t, b.In, 1)
	require.Len(t, b.Out, 2)
	b.Out[1][2] = 5
	b.ClearOut()
	assert.Equal(t, []float32{0, 0, 0}, b.Out[1])
}
