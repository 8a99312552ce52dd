package synth

import (
	"github.com/tphakala/go-spectral-synth/internal/mixer"
	"github.com/tphakala/go-spectral-synth/internal/render"
)

// Default engine parameters.
const (
	DefaultSampleRate  = 48000
	DefaultFrameSize   = 256
	DefaultOutChannels = 2
	DefaultNumVoices   = 16
	DefaultGain        = mixer.DefaultGain
)

// Limits
const (
	maxOutChannels = 256
	maxNumVoices   = 1024
)

// defaultRender is the gate timing used by DefaultConfig.
var defaultRender = render.DefaultOptions()
