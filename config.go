package synth

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/logging"
	"github.com/tphakala/go-spectral-synth/internal/voice"
)

var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid synth configuration")

	// ErrNoTables indicates a missing table store.
	ErrNoTables = errors.New("no tables")
)

// Config holds synthesizer configuration.
type Config struct {
	// SampleRate is the output sample rate in Hz.
	SampleRate float64

	// FrameSize is the number of frames rendered per block.
	FrameSize int

	// OutChannels is the number of output channels. Every channel carries
	// the same mono mix.
	OutChannels int

	// NumVoices is the number of synthesis voices.
	NumVoices int

	// MaxNotes bounds the number of tracked note events. Zero selects the
	// allocator default.
	MaxNotes int

	// Gain scales the voice sum.
	Gain float32

	// AttackSeconds and ReleaseSeconds set the envelope gate timing.
	AttackSeconds  float64
	ReleaseSeconds float64

	// Logger receives control path messages. Nil discards them.
	Logger *logging.Logger
}

// DefaultConfig returns a configuration for 48 kHz stereo output with 16
// voices.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:     DefaultSampleRate,
		FrameSize:      DefaultFrameSize,
		OutChannels:    DefaultOutChannels,
		NumVoices:      DefaultNumVoices,
		Gain:           DefaultGain,
		AttackSeconds:  defaultRender.AttackSeconds,
		ReleaseSeconds: defaultRender.ReleaseSeconds,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}

	if c.FrameSize <= 0 {
		return fmt.Errorf("%w: frame size must be positive", ErrInvalidConfig)
	}

	if c.OutChannels < 1 || c.OutChannels > maxOutChannels {
		return fmt.Errorf("%w: output channels must be 1-%d", ErrInvalidConfig, maxOutChannels)
	}

	if c.NumVoices < 1 || c.NumVoices > maxNumVoices {
		return fmt.Errorf("%w: voices must be 1-%d", ErrInvalidConfig, maxNumVoices)
	}

	if c.MaxNotes < 0 || c.MaxNotes > voice.MaxNotes {
		return fmt.Errorf("%w: max notes must be 0-%d", ErrInvalidConfig, voice.MaxNotes)
	}

	if c.Gain < 0 {
		return fmt.Errorf("%w: gain must not be negative", ErrInvalidConfig)
	}

	if c.AttackSeconds < 0 || c.ReleaseSeconds < 0 {
		return fmt.Errorf("%w: gate times must not be negative", ErrInvalidConfig)
	}

	return nil
}

// CallbackConfig returns the block configuration for the output stream.
func (c *Config) CallbackConfig() audio.CallbackConfig {
	return audio.CallbackConfig{
		SampleRate:  c.SampleRate,
		FrameSize:   c.FrameSize,
		OutChannels: c.OutChannels,
	}
}
