package audiohost

import (
	"context"
	"sync"
	"time"

	"github.com/tphakala/go-spectral-synth/internal/audio"
)

// Headless renders blocks at the real-time rate and discards them. Read
// pulls samples directly when the host is stopped.
type Headless struct {
	mu     sync.Mutex
	r      *blockReader
	period time.Duration
	cancel context.CancelFunc
	done   chan struct{}
	blocks uint64
}

// NewHeadless creates a stopped headless host.
func NewHeadless(b *audio.Blocker) *Headless {
	cfg := b.Config()
	period := time.Duration(float64(cfg.FrameSize) / cfg.SampleRate * float64(time.Second))
	return &Headless{r: newBlockReader(b), period: period}
}

// Backend returns BackendHeadless.
func (h *Headless) Backend() Backend { return BackendHeadless }

// Start begins rendering in the background.
func (h *Headless) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.run(ctx, h.done)
	return nil
}

func (h *Headless) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	cfg := h.r.b.Config()
	block := make([]float32, cfg.FrameSize*cfg.OutChannels)
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.Lock()
			h.r.b.Fill(block)
			h.blocks++
			h.mu.Unlock()
		}
	}
}

// Stop halts background rendering and waits for it to finish.
func (h *Headless) Stop() error {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// Close stops the host.
func (h *Headless) Close() error {
	return h.Stop()
}

// Blocks returns the number of blocks rendered in the background.
func (h *Headless) Blocks() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blocks
}

// Read fills p with little-endian float32 samples.
func (h *Headless) Read(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.r.Read(p)
}
