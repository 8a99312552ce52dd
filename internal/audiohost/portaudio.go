//go:build portaudio

package audiohost

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/logging"
)

var paShared struct {
	mu   sync.Mutex
	refs int
}

func acquirePortAudio() error {
	paShared.mu.Lock()
	defer paShared.mu.Unlock()
	if paShared.refs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
	}
	paShared.refs++
	return nil
}

func releasePortAudio() error {
	paShared.mu.Lock()
	defer paShared.mu.Unlock()
	if paShared.refs == 0 {
		return nil
	}
	paShared.refs--
	if paShared.refs == 0 {
		return portaudio.Terminate()
	}
	return nil
}

type portAudioHost struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	closed bool
	log    *logging.Logger
}

func openPortAudio(b *audio.Blocker, opts Options, log *logging.Logger) (Host, error) {
	if err := acquirePortAudio(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	cfg := b.Config()
	frames := int(opts.BufferDuration.Seconds() * cfg.SampleRate)
	stream, err := portaudio.OpenDefaultStream(0, cfg.OutChannels, cfg.SampleRate, frames,
		func(out []float32) { b.Fill(out) })
	if err != nil {
		_ = releasePortAudio()
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	log.Debug("opened %g Hz, %d channels, %d frames per buffer", cfg.SampleRate, cfg.OutChannels, frames)
	return &portAudioHost{stream: stream, log: log}, nil
}

func (h *portAudioHost) Backend() Backend { return BackendPortAudio }

func (h *portAudioHost) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("%w: host closed", ErrDeviceConfig)
	}
	return h.stream.Start()
}

func (h *portAudioHost) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	return h.stream.Stop()
}

func (h *portAudioHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.stream.Close()
	if rerr := releasePortAudio(); err == nil {
		err = rerr
	}
	h.log.Debug("closed")
	return err
}
