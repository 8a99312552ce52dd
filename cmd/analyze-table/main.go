// Command analyze-table turns a WAV recording of a single note into a
// harmonic spectral table file.
//
// Usage:
//
//	analyze-table input.wav output.txt
//	analyze-table -note 60 -harmonics 48 input.wav output.txt
//	analyze-table -window 8192 -hop 256 input.wav output.txt
//
// Without -note the note is estimated from the strongest spectral peak.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tphakala/go-spectral-synth/internal/analysis"
	"github.com/tphakala/go-spectral-synth/internal/table"
	"github.com/tphakala/go-spectral-synth/internal/tablefile"
	"github.com/tphakala/go-spectral-synth/internal/wavio"
)

const (
	autoNote        = -1
	minRequiredArgs = 2
)

var errUsage = errors.New("insufficient arguments")

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := analysis.DefaultOptions()
	note := flag.Int("note", autoNote, "MIDI note of the recording (-1 estimates it)")
	windowSize := flag.Int("window", defaults.WindowSize, "FFT window size in samples")
	hopSize := flag.Int("hop", defaults.HopSize, "Hop size in samples")
	harmonics := flag.Int("harmonics", defaults.NumHarmonics, "Maximum number of harmonics")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.txt\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errUsage
	}
	inputPath, outputPath := args[0], args[1]

	opts := analysis.Options{WindowSize: *windowSize, HopSize: *hopSize, NumHarmonics: *harmonics}
	tbl, err := analyzeFile(inputPath, outputPath, *note, opts, *verbose)
	if err != nil {
		return err
	}

	fmt.Printf("Analyzed %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  Note %d, %d harmonics, %d envelope points (%.2fs)\n",
		tbl.MidiNote, tbl.NumBins(), tbl.EnvelopeLength(), tbl.Duration())
	return nil
}

// analyzeFile reads inputPath, builds the table for note (estimated when
// note is autoNote) and writes it to outputPath.
func analyzeFile(inputPath, outputPath string, note int, opts analysis.Options, verbose bool) (*table.Table, error) {
	samples, info, err := wavio.ReadMono(inputPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit, %d frames",
			info.SampleRate, info.Channels, info.BitDepth, len(samples))
	}

	rate := float64(info.SampleRate)
	if note == autoNote {
		note, err = analysis.EstimateNote(samples, rate, opts.WindowSize)
		if err != nil {
			return nil, err
		}
		if verbose {
			log.Printf("Estimated note: %d (%.2f Hz)", note, table.NoteFrequency(note))
		}
	}

	tbl, err := analysis.Analyze(samples, rate, note, opts)
	if err != nil {
		return nil, err
	}
	if err := tablefile.WriteFile(outputPath, tbl); err != nil {
		return nil, err
	}
	return tbl, nil
}
