// Package analysis builds spectral tables from recorded audio.
//
// A recording of a single note is cut into Hann-windowed frames every
// HopSize samples. Each frame is transformed with a real FFT and the
// magnitude at every harmonic of the note's fundamental becomes one point
// of that harmonic's envelope.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-spectral-synth/internal/simdops"
	"github.com/tphakala/go-spectral-synth/internal/table"
)

// Analysis defaults.
const (
	DefaultWindowSize   = 4096
	DefaultHopSize      = 512
	DefaultNumHarmonics = 32

	// magnitudeScale turns a one-sided FFT magnitude into a sine amplitude.
	magnitudeScale = 2.0
)

var (
	// ErrInvalidOptions is returned for unusable analysis parameters.
	ErrInvalidOptions = errors.New("invalid analysis options")

	// ErrNoSignal is returned when the input holds no usable audio.
	ErrNoSignal = errors.New("no signal to analyze")
)

// Options configures Analyze.
type Options struct {
	// WindowSize is the FFT frame length in samples.
	WindowSize int

	// HopSize is the distance between frames in samples.
	HopSize int

	// NumHarmonics caps the number of harmonics extracted. Harmonics at or
	// above Nyquist are never extracted.
	NumHarmonics int
}

// DefaultOptions returns the default analysis parameters.
func DefaultOptions() Options {
	return Options{
		WindowSize:   DefaultWindowSize,
		HopSize:      DefaultHopSize,
		NumHarmonics: DefaultNumHarmonics,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	switch {
	case o.WindowSize < 2:
		return fmt.Errorf("%w: window size %d", ErrInvalidOptions, o.WindowSize)
	case o.HopSize <= 0:
		return fmt.Errorf("%w: hop size %d", ErrInvalidOptions, o.HopSize)
	case o.NumHarmonics <= 0:
		return fmt.Errorf("%w: %d harmonics", ErrInvalidOptions, o.NumHarmonics)
	}
	return nil
}

// Analyze builds a Harmonic table for note from mono samples recorded at
// sampleRate. Input shorter than one window is zero padded.
func Analyze(samples []float64, sampleRate float64, note int, opts Options) (*table.Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %g", ErrInvalidOptions, sampleRate)
	}
	if note < table.MinNote || note > table.MaxNote {
		return nil, fmt.Errorf("%w: note %d", ErrInvalidOptions, note)
	}
	if len(samples) == 0 {
		return nil, ErrNoSignal
	}

	f0 := table.NoteFrequency(note)
	numHarmonics := min(opts.NumHarmonics, int(math.Ceil(sampleRate/2/f0))-1)
	if numHarmonics <= 0 {
		return nil, fmt.Errorf("%w: note %d has no harmonic below Nyquist", ErrInvalidOptions, note)
	}

	win := window.Hann(opts.WindowSize)
	norm := magnitudeScale / simdops.Float64Ops().Sum(win)

	binOf := make([]int, numHarmonics)
	for h := range binOf {
		binOf[h] = int(math.Round(float64(h+1) * f0 * float64(opts.WindowSize) / sampleRate))
	}

	numFrames := 1
	if len(samples) > opts.WindowSize {
		numFrames += (len(samples) - opts.WindowSize) / opts.HopSize
	}

	envelopes := make([][]float32, numHarmonics)
	for h := range envelopes {
		envelopes[h] = make([]float32, numFrames)
	}

	transform := fourier.NewFFT(opts.WindowSize)
	frame := make([]float64, opts.WindowSize)
	var coeffs []complex128
	for k := range numFrames {
		start := k * opts.HopSize
		clear(frame)
		copy(frame, samples[start:min(start+opts.WindowSize, len(samples))])
		floats.Mul(frame, win)

		coeffs = transform.Coefficients(coeffs, frame)
		for h, b := range binOf {
			if b < len(coeffs) {
				envelopes[h][k] = float32(cmplx.Abs(coeffs[b]) * norm)
			}
		}
	}

	bins := make([]table.Bin, numHarmonics)
	for h := range bins {
		bins[h] = table.Bin{Envelope: envelopes[h]}
	}
	cfg := table.Config{SampleRate: sampleRate, HopSize: float64(opts.HopSize)}
	return table.NewHarmonic(cfg, note, bins), nil
}

// EstimateNote returns the MIDI note nearest the strongest spectral peak of
// the first windowSize samples.
func EstimateNote(samples []float64, sampleRate float64, windowSize int) (int, error) {
	if windowSize < 2 || sampleRate <= 0 {
		return 0, fmt.Errorf("%w: window size %d, sample rate %g", ErrInvalidOptions, windowSize, sampleRate)
	}
	if len(samples) == 0 {
		return 0, ErrNoSignal
	}

	frame := make([]float64, windowSize)
	copy(frame, samples)
	window.Apply(frame, window.Hann)

	spectrum := fft.FFTReal(frame)
	mags := make([]float64, windowSize/2+1)
	for i := 1; i < len(mags); i++ {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	peak := floats.MaxIdx(mags)
	if mags[peak] == 0 {
		return 0, ErrNoSignal
	}

	pos := float64(peak)
	if peak > 0 && peak < len(mags)-1 {
		pos += parabolicOffset(mags[peak-1], mags[peak], mags[peak+1])
	}
	freq := pos * sampleRate / float64(windowSize)
	note := table.FrequencyNote(freq)
	return max(table.MinNote, min(table.MaxNote, note)), nil
}

// parabolicOffset returns the vertex offset of a parabola through three
// equally spaced points, in [-0.5, 0.5].
func parabolicOffset(a, b, c float64) float64 {
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	return max(-0.5, min(0.5, 0.5*(a-c)/den))
}
