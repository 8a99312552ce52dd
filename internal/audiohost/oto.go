//go:build !headless

package audiohost

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/logging"
)

// oto allows a single context per process. It is created on first use and
// suspended while no host holds it.
var otoShared struct {
	mu       sync.Mutex
	ctx      *oto.Context
	rate     int
	channels int
	refs     int
}

func acquireOto(rate, channels int, opts Options) (*oto.Context, error) {
	s := &otoShared
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   opts.BufferDuration,
		})
		if err != nil {
			return nil, err
		}
		<-ready
		s.ctx, s.rate, s.channels = ctx, rate, channels
	} else if s.rate != rate || s.channels != channels {
		return nil, fmt.Errorf("%w: oto context is %d Hz x %d, requested %d Hz x %d",
			ErrDeviceConfig, s.rate, s.channels, rate, channels)
	}

	if s.refs == 0 {
		if err := s.ctx.Resume(); err != nil {
			return nil, err
		}
	}
	s.refs++
	return s.ctx, nil
}

func releaseOto() error {
	s := &otoShared
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return nil
	}
	s.refs--
	if s.refs == 0 {
		return s.ctx.Suspend()
	}
	return nil
}

type otoHost struct {
	mu     sync.Mutex
	player *oto.Player
	closed bool
	log    *logging.Logger
}

func openOto(b *audio.Blocker, opts Options, log *logging.Logger) (Host, error) {
	cfg := b.Config()
	ctx, err := acquireOto(int(cfg.SampleRate), cfg.OutChannels, opts)
	if err != nil {
		return nil, fmt.Errorf("open oto: %w", err)
	}
	h := &otoHost{player: ctx.NewPlayer(newBlockReader(b)), log: log}
	log.Debug("opened %g Hz, %d channels, buffer %v", cfg.SampleRate, cfg.OutChannels, opts.BufferDuration)
	return h, nil
}

func (h *otoHost) Backend() Backend { return BackendOto }

func (h *otoHost) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("%w: host closed", ErrDeviceConfig)
	}
	h.player.Play()
	return nil
}

func (h *otoHost) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.player.Pause()
	return h.player.Err()
}

func (h *otoHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.player.Close()
	if rerr := releaseOto(); err == nil {
		err = rerr
	}
	h.log.Debug("closed")
	return err
}
