// Package audiohost plays an audio.Callback on an output device.
//
// The oto backend is built by default and can be excluded with the headless
// build tag. The portaudio backend needs cgo and the portaudio build tag.
// The headless backend renders in real time without a device.
package audiohost

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/logging"
)

// Backend names an output implementation.
type Backend string

const (
	BackendOto       Backend = "oto"
	BackendPortAudio Backend = "portaudio"
	BackendHeadless  Backend = "headless"
)

// DefaultBufferDuration is the device buffer length requested from the
// backend.
const DefaultBufferDuration = 20 * time.Millisecond

const bytesPerSample = 4

var (
	// ErrUnknownBackend is returned for unrecognized backend names.
	ErrUnknownBackend = errors.New("unknown audio backend")

	// ErrUnavailable is returned for backends not compiled into the binary.
	ErrUnavailable = errors.New("audio backend not available in this build")

	// ErrDeviceConfig is returned when the device cannot honor a request.
	ErrDeviceConfig = errors.New("audio device configuration mismatch")
)

// Host is a running or stopped output stream.
type Host interface {
	Start() error
	Stop() error
	Close() error
	Backend() Backend
}

// Options configures Open.
type Options struct {
	Backend Backend

	// BufferDuration is the device buffer length. Zero selects
	// DefaultBufferDuration.
	BufferDuration time.Duration

	Logger *logging.Logger
}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendOto, BackendPortAudio, BackendHeadless:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Open prepares cb for cfg and creates a stopped host on the selected
// backend.
func Open(cb audio.Callback, cfg audio.CallbackConfig, opts Options) (Host, error) {
	if opts.BufferDuration <= 0 {
		opts.BufferDuration = DefaultBufferDuration
	}
	if opts.Backend == "" {
		opts.Backend = BackendOto
	}

	b, err := audio.NewBlocker(cb, cfg)
	if err != nil {
		return nil, err
	}
	log := opts.Logger.Named(string(opts.Backend))

	switch opts.Backend {
	case BackendOto:
		return openOto(b, opts, log)
	case BackendPortAudio:
		return openPortAudio(b, opts, log)
	case BackendHeadless:
		return NewHeadless(b), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}

// blockReader serves a Blocker as a stream of little-endian float32 bytes.
type blockReader struct {
	b   *audio.Blocker
	buf []float32
}

func newBlockReader(b *audio.Blocker) *blockReader {
	cfg := b.Config()
	return &blockReader{b: b, buf: make([]float32, cfg.FrameSize*cfg.OutChannels)}
}

// Read fills p with whole samples. It never fails.
func (r *blockReader) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample
	if n > len(r.buf) {
		r.buf = make([]float32, n)
	}
	samples := r.buf[:n]
	r.b.Fill(samples)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	return n * bytesPerSample, nil
}
