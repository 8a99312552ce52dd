package synth

import (
	"fmt"
	"sync"

	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/logging"
	"github.com/tphakala/go-spectral-synth/internal/midi"
	"github.com/tphakala/go-spectral-synth/internal/mixer"
	"github.com/tphakala/go-spectral-synth/internal/render"
	"github.com/tphakala/go-spectral-synth/internal/simdops"
	"github.com/tphakala/go-spectral-synth/internal/store"
	"github.com/tphakala/go-spectral-synth/internal/voice"
)

// StackConfig describes how voices are grouped into stacks.
type StackConfig = voice.StackConfig

// Synth is a polyphonic spectral synthesizer. It implements the audio
// callback contract of internal/audio and the MIDI listener contract of
// internal/midi.
type Synth struct {
	config  Config
	tables  *store.Snapshot
	maxBins int

	voices []*render.Voice
	mixer  *mixer.Mixer

	mu    sync.Mutex // guards alloc
	alloc *voice.Allocator

	log *logging.Logger
}

// New creates a synthesizer playing tables. The tables are snapshotted;
// later changes to the store are not seen.
func New(config *Config, tables *Tables) (*Synth, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if tables == nil {
		return nil, ErrNoTables
	}

	s := &Synth{
		config:  *config,
		tables:  tables.Snapshot(),
		maxBins: tables.MaxBins(),
		voices:  make([]*render.Voice, config.NumVoices),
		log:     config.Logger.Named("synth"),
	}

	opts := render.Options{AttackSeconds: config.AttackSeconds, ReleaseSeconds: config.ReleaseSeconds}
	targets := make([]voice.Target, config.NumVoices)
	sources := make([]mixer.Source, config.NumVoices)
	for i := range s.voices {
		v := render.NewVoice(i, s.tables, opts)
		s.voices[i] = v
		targets[i] = v
		sources[i] = v
	}

	s.alloc = voice.NewAllocator(targets, config.MaxNotes)
	s.alloc.SetPolicy(voice.OldestPolicy{})
	s.mixer = mixer.New(config.Gain, sources...)

	s.log.Debug("created %d voices, %d bins max", config.NumVoices, s.maxBins)
	return s, nil
}

// Config returns the configuration the synth was created with.
func (s *Synth) Config() Config {
	return s.config
}

// Prepare sizes every voice for cfg. Any sounding note is cut.
func (s *Synth) Prepare(cfg audio.CallbackConfig) error {
	for _, v := range s.voices {
		if err := v.Prepare(cfg, s.maxBins); err != nil {
			return fmt.Errorf("voice %d: %w", v.ID(), err)
		}
	}
	s.log.Debug("prepared for %g Hz, %d frames, %d channels", cfg.SampleRate, cfg.FrameSize, cfg.OutChannels)
	return nil
}

// Process renders one block into bufs.Out.
func (s *Synth) Process(cfg audio.CallbackConfig, bufs *audio.Buffers) {
	s.mixer.Process(cfg, bufs)
}

// NoteOn starts a note.
func (s *Synth) NoteOn(_ uint32, ch, note, vel uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alloc.NoteOn(ch, note, vel)
}

// NoteOff releases the oldest sounding or waiting instance of a note.
func (s *Synth) NoteOff(_ uint32, ch, note uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alloc.NoteOff(ch, note)
}

// MidiEvent handles non-note messages. All Notes Off and All Sound Off
// release every note; other messages are ignored.
func (s *Synth) MidiEvent(_ uint32, msg []byte) {
	_, cc, _, ok := midi.ControlChange(msg)
	if !ok {
		s.log.Debug("ignored midi message % x", msg)
		return
	}
	switch cc {
	case midi.CCAllNotesOff, midi.CCAllSoundOff:
		s.AllNotesOff()
	default:
		s.log.Debug("ignored controller %d", cc)
	}
}

// HandleMidi decodes a raw MIDI message.
func (s *Synth) HandleMidi(ts uint32, msg []byte) {
	midi.Dispatch(ts, msg, s)
}

// AllNotesOff releases every note and drops waiting events.
func (s *Synth) AllNotesOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alloc.AllNotesOff()
}

// SetStackConfig regroups voices and returns the achieved configuration.
func (s *Synth) SetStackConfig(cfg StackConfig) StackConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	got := s.alloc.SetStackConfig(cfg)
	if got != cfg {
		s.log.Warn("stack config %+v clamped to %+v", cfg, got)
	}
	return got
}

// Info is a snapshot of the synthesizer state.
type Info struct {
	Voices       int
	Stacks       int
	ActiveNotes  int
	WaitingNotes int
	Tables       int
	MaxBins      int

	// Steals counts note assignments that took over a sounding voice.
	Steals uint64

	// SIMD describes the detected CPU features.
	SIMD string
}

// String formats the info on one line.
func (i Info) String() string {
	return fmt.Sprintf("voices=%d stacks=%d active=%d waiting=%d tables=%d bins=%d steals=%d simd=%s",
		i.Voices, i.Stacks, i.ActiveNotes, i.WaitingNotes, i.Tables, i.MaxBins, i.Steals, i.SIMD)
}

// Info returns the current state.
func (s *Synth) Info() Info {
	info := Info{
		Voices:  len(s.voices),
		MaxBins: s.maxBins,
		SIMD:    simdops.Info(),
	}
	for note := range s.tables {
		if s.tables[note] != nil {
			info.Tables++
		}
	}
	for _, v := range s.voices {
		info.Steals += v.Steals()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	info.Stacks = s.alloc.NumStacks()
	info.ActiveNotes = s.alloc.NumActiveNotes()
	info.WaitingNotes = s.alloc.NumInactiveNotes()
	return info
}
