package audiohost

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-spectral-synth/internal/audio"
)

// rampCallback writes a per-channel constant that grows with every block.
type rampCallback struct {
	prepared int
	block    float32
}

func (c *rampCallback) Prepare(audio.CallbackConfig) error {
	c.prepared++
	return nil
}

func (c *rampCallback) Process(_ audio.CallbackConfig, bufs *audio.Buffers) {
	c.block++
	for ch, out := range bufs.Out {
		for i := range out {
			out[i] = c.block + float32(ch)/10
		}
	}
}

var testCfg = audio.CallbackConfig{SampleRate: 48000, FrameSize: 4, OutChannels: 2}

func decode(p []byte) []float32 {
	out := make([]float32, len(p)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*bytesPerSample:]))
	}
	return out
}

func TestParseBackend(t *testing.T) {
	for _, name := range []string{"oto", "portaudio", "headless"} {
		b, err := ParseBackend(name)
		require.NoError(t, err)
		assert.Equal(t, Backend(name), b)
	}
	_, err := ParseBackend("alsa")
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(&rampCallback{}, testCfg, Options{Backend: "jack"})
	require.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Open(&rampCallback{}, audio.CallbackConfig{}, Options{Backend: BackendHeadless})
	require.ErrorIs(t, err, audio.ErrInvalidConfig)
}

func TestHeadless_ReadInterleavesFloat32(t *testing.T) {
	cb := &rampCallback{}
	host, err := Open(cb, testCfg, Options{Backend: BackendHeadless})
	require.NoError(t, err)
	defer host.Close()
	assert.Equal(t, 1, cb.prepared)
	assert.Equal(t, BackendHeadless, host.Backend())

	h, ok := host.(*Headless)
	require.True(t, ok)

	// 6 frames span two blocks of 4 frames.
	p := make([]byte, 6*2*bytesPerSample)
	n, err := h.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)

	want := []float32{1, 1.1, 1, 1.1, 1, 1.1, 1, 1.1, 2, 2.1, 2, 2.1}
	got := decode(p)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "sample %d", i)
	}
}

func TestHeadless_StartStop(t *testing.T) {
	cb := &rampCallback{}
	host, err := Open(cb, audio.CallbackConfig{SampleRate: 48000, FrameSize: 48, OutChannels: 1}, Options{Backend: BackendHeadless})
	require.NoError(t, err)
	h := host.(*Headless)

	require.NoError(t, h.Start())
	require.NoError(t, h.Start())
	assert.Eventually(t, func() bool { return h.Blocks() >= 5 }, 2*time.Second, time.Millisecond)

	require.NoError(t, h.Stop())
	stopped := h.Blocks()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, h.Blocks())

	require.NoError(t, h.Close())
	require.NoError(t, h.Stop())
}
