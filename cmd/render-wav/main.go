// Command render-wav renders a Lua score through the synthesizer into a
// WAV file.
//
// Usage:
//
//	render-wav -tables tables/piano.txt score.lua out.wav
//	render-wav -tables tables/piano.txt -cache piano.cache -bits 24 score.lua out.wav
//	render-wav -tables tables/piano.txt -tail 2 -voices 32 score.lua out.wav
//
// The output length is the time of the last score event plus the tail.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	synth "github.com/tphakala/go-spectral-synth"
	"github.com/tphakala/go-spectral-synth/internal/logging"
	"github.com/tphakala/go-spectral-synth/internal/score"
	"github.com/tphakala/go-spectral-synth/internal/wavio"
)

const (
	defaultBitDepth = 16
	defaultTail     = 1.0
	minRequiredArgs = 2
)

var errUsage = errors.New("insufficient arguments")

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tablesPath := flag.String("tables", "", "Table file or include file")
	cachePath := flag.String("cache", "", "Binary table cache (read if valid, written otherwise)")
	rate := flag.Float64("rate", synth.DefaultSampleRate, "Output sample rate in Hz")
	bits := flag.Int("bits", defaultBitDepth, "Output bit depth: 16, 24 or 32")
	channels := flag.Int("channels", synth.DefaultOutChannels, "Output channels")
	voices := flag.Int("voices", synth.DefaultNumVoices, "Number of voices")
	gain := flag.Float64("gain", synth.DefaultGain, "Output gain")
	release := flag.Float64("release", synth.DefaultConfig().ReleaseSeconds, "Gate release time in seconds")
	tail := flag.Float64("tail", defaultTail, "Seconds rendered after the last event")
	threshold := flag.Float64("threshold", 0, "Deactivate bins quieter than this peak level")
	maxBins := flag.Int("max-bins", 0, "Keep only the N loudest bins per table (0 keeps all)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs || *tablesPath == "" && *cachePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] score.lua output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errUsage
	}
	scorePath, outputPath := args[0], args[1]

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewStderr(level)

	tables, err := synth.LoadTables(synth.TableOptions{
		Path:          *tablesPath,
		CachePath:     *cachePath,
		Parallel:      true,
		Debug:         *verbose,
		Threshold:     float32(*threshold),
		MaxActiveBins: *maxBins,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	sc, err := score.RunFile(context.Background(), scorePath)
	if err != nil {
		return err
	}

	cfg := synth.DefaultConfig()
	cfg.SampleRate = *rate
	cfg.OutChannels = *channels
	cfg.NumVoices = *voices
	cfg.Gain = float32(*gain)
	cfg.ReleaseSeconds = *release
	cfg.Logger = logger
	s, err := synth.New(cfg, tables)
	if err != nil {
		return err
	}

	events := sc.Events()
	seconds := sc.Duration() + *tail
	start := time.Now()
	out, err := s.Render(events, seconds)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := wavio.WritePlanar(outputPath, out, int(*rate), *bits); err != nil {
		return err
	}

	fmt.Printf("Rendered %s -> %s\n", filepath.Base(scorePath), filepath.Base(outputPath))
	fmt.Printf("  %d events, %.2fs at %g Hz (%d channels, %d-bit)\n", len(events), seconds, *rate, *channels, *bits)
	fmt.Printf("  Peak: %.3f\n", peak(out))
	fmt.Printf("  Render time: %.2fs, Speed: %.1fx realtime\n", elapsed.Seconds(), seconds/elapsed.Seconds())
	logger.Debug("%s", s.Info())
	return nil
}

// peak returns the largest absolute sample over all channels.
func peak(channels [][]float32) float32 {
	var p float32
	for _, ch := range channels {
		for _, v := range ch {
			p = max(p, v, -v)
		}
	}
	return p
}
