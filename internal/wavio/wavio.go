// Package wavio reads and writes PCM WAV files as float samples.
package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	formatPCM = 1
)

var (
	// ErrInvalidWAV is returned for files the decoder rejects.
	ErrInvalidWAV = errors.New("invalid WAV file")

	// ErrBitDepth is returned for unsupported sample sizes.
	ErrBitDepth = errors.New("unsupported bit depth")

	// ErrChannels is returned for inconsistent channel data.
	ErrChannels = errors.New("invalid channel data")
)

// Info describes a decoded file.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// maxValue returns the full-scale integer for a bit depth.
func maxValue(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, nil
	case bitsPerSample24:
		return maxInt24, nil
	case bitsPerSample32:
		return maxInt32, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
}

// ReadMono decodes path and averages its channels into one float signal in
// [-1, 1].
func ReadMono(path string) ([]float64, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, Info{}, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode %s: %w", path, err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if info.Channels < 1 {
		return nil, info, fmt.Errorf("%w: %d channels", ErrChannels, info.Channels)
	}
	full, err := maxValue(info.BitDepth)
	if err != nil {
		return nil, info, err
	}

	frames := len(buf.Data) / info.Channels
	out := make([]float64, frames)
	scale := 1 / (full * float64(info.Channels))
	for i := range frames {
		var sum float64
		for ch := range info.Channels {
			sum += float64(buf.Data[i*info.Channels+ch])
		}
		out[i] = sum * scale
	}
	return out, info, nil
}

// WritePlanar encodes planar float channels as PCM at bitDepth. Samples are
// clipped to [-1, 1].
func WritePlanar(path string, channels [][]float32, sampleRate, bitDepth int) error {
	if len(channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrChannels)
	}
	frames := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel lengths differ", ErrChannels)
		}
	}
	full, err := maxValue(bitDepth)
	if err != nil {
		return err
	}

	nch := len(channels)
	data := make([]int, frames*nch)
	for ch, src := range channels {
		for i, v := range src {
			data[i*nch+ch] = toPCM(v, full)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	enc := wav.NewEncoder(f, sampleRate, bitDepth, nch, formatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: nch, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return f.Close()
}

func toPCM(v float32, full float64) int {
	x := math.Max(-1, math.Min(1, float64(v)))
	return int(math.Round(x * full))
}
