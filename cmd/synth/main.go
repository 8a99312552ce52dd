// Command synth plays spectral tables live.
//
// Usage:
//
//	synth -tables tables/piano.txt
//	synth -tables tables/piano.txt -cache piano.cache -voices 32
//	synth -cache piano.cache -score tune.lua
//	synth -tables tables/piano.txt -backend portaudio   # needs -tags portaudio
//
// Keys a w s e d f t g y h u j k o l p ; ' play a chromatic scale from C.
// z and x change octave, space releases every note and q quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	synth "github.com/tphakala/go-spectral-synth"
	"github.com/tphakala/go-spectral-synth/internal/audiohost"
	"github.com/tphakala/go-spectral-synth/internal/logging"
	"github.com/tphakala/go-spectral-synth/internal/midi"
	"github.com/tphakala/go-spectral-synth/internal/score"
)

var (
	errUsage = errors.New("no tables given")
	errQuit  = errors.New("quit")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := synth.DefaultConfig()
	tablesPath := flag.String("tables", "", "Table file or include file")
	cachePath := flag.String("cache", "", "Binary table cache (read if valid, written otherwise)")
	backend := flag.String("backend", defaultBackend, "Audio backend: oto, portaudio, headless")
	bufferDur := flag.Duration("buffer", audiohost.DefaultBufferDuration, "Device buffer length")
	rate := flag.Float64("rate", defaults.SampleRate, "Output sample rate in Hz")
	frames := flag.Int("frames", defaults.FrameSize, "Frames per render block")
	channels := flag.Int("channels", defaults.OutChannels, "Output channels")
	voices := flag.Int("voices", defaults.NumVoices, "Number of voices")
	gain := flag.Float64("gain", float64(defaults.Gain), "Output gain")
	attack := flag.Float64("attack", defaults.AttackSeconds, "Gate attack time in seconds")
	release := flag.Float64("release", defaults.ReleaseSeconds, "Gate release time in seconds")
	threshold := flag.Float64("threshold", 0, "Deactivate bins quieter than this peak level")
	maxBins := flag.Int("max-bins", 0, "Keep only the N loudest bins per table (0 keeps all)")
	scorePath := flag.String("score", "", "Lua score to play")
	hold := flag.Duration("hold", defaultHold, "How long a key press holds its note")
	tail := flag.Duration("tail", defaultTail, "Time to keep playing after the score ends")
	levelName := flag.String("log-level", defaultLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	if *tablesPath == "" && *cachePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -tables file [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errUsage
	}

	level, err := logging.ParseLevel(*levelName)
	if err != nil {
		return err
	}
	logger := logging.NewStderr(level)

	hostBackend, err := audiohost.ParseBackend(*backend)
	if err != nil {
		return err
	}

	tables, err := synth.LoadTables(synth.TableOptions{
		Path:          *tablesPath,
		CachePath:     *cachePath,
		Parallel:      true,
		Debug:         level == logging.LevelDebug,
		Threshold:     float32(*threshold),
		MaxActiveBins: *maxBins,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	var events []score.Event
	if *scorePath != "" {
		sc, err := score.RunFile(context.Background(), *scorePath)
		if err != nil {
			return err
		}
		events = sc.Events()
	}

	cfg := synth.DefaultConfig()
	cfg.SampleRate = *rate
	cfg.FrameSize = *frames
	cfg.OutChannels = *channels
	cfg.NumVoices = *voices
	cfg.Gain = float32(*gain)
	cfg.AttackSeconds = *attack
	cfg.ReleaseSeconds = *release
	cfg.Logger = logger
	s, err := synth.New(cfg, tables)
	if err != nil {
		return err
	}

	host, err := audiohost.Open(s, cfg.CallbackConfig(), audiohost.Options{
		Backend:        hostBackend,
		BufferDuration: *bufferDur,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer host.Close()
	if err := host.Start(); err != nil {
		return err
	}
	logger.Info("%s", s.Info())

	var caster midi.Caster
	caster.Add(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if len(events) > 0 {
		g.Go(func() error {
			if err := playScore(ctx, &caster, events, start); err != nil {
				return err
			}
			if interactive {
				return nil
			}
			select {
			case <-time.After(*tail):
				return errQuit
			case <-ctx.Done():
				return nil
			}
		})
	}
	if interactive {
		g.Go(func() error {
			return playKeyboard(ctx, &caster, *hold, start, logger)
		})
	} else if len(events) == 0 {
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	}

	err = g.Wait()
	s.AllNotesOff()
	logger.Info("%s", s.Info())
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// timestamp returns milliseconds since start.
func timestamp(start time.Time) uint32 {
	return uint32(time.Since(start).Milliseconds())
}

// playScore sends events at their times relative to start.
func playScore(ctx context.Context, caster *midi.Caster, events []score.Event, start time.Time) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for _, e := range events {
		wait := time.Duration(e.Time*float64(time.Second)) - time.Since(start)
		if wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil
			}
		}
		caster.Send(timestamp(start), e.Msg)
	}
	return nil
}

// playKeyboard reads raw key presses from stdin until quit or cancellation.
func playKeyboard(ctx context.Context, caster *midi.Caster, hold time.Duration, start time.Time, logger *logging.Logger) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n > 0 {
				select {
				case keys <- buf[0]:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	kb := newKeyboard()
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-keys:
			if !ok {
				return errQuit
			}
			action := kb.press(b)
			if action.quit {
				return errQuit
			}
			if b == keyOctaveDown || b == keyOctaveUp {
				logger.Debug("octave %d", kb.octave)
			}
			if action.msg == nil {
				continue
			}
			caster.Send(timestamp(start), action.msg)
			if action.hasNote {
				note := action.note
				time.AfterFunc(hold, func() {
					caster.Send(timestamp(start), midi.NoteOffMessage(keyboardChannel, note))
				})
			}
		}
	}
}
