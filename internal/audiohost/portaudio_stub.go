//go:build !portaudio

package audiohost

import (
	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/logging"
)

func openPortAudio(*audio.Blocker, Options, *logging.Logger) (Host, error) {
	return nil, ErrUnavailable
}
