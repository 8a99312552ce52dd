// Package synth is a real-time polyphonic additive synthesizer driven by
// spectral tables.
//
// A spectral table describes one MIDI note as a set of partials, each with
// a frequency and an amplitude envelope sampled at the analysis hop rate.
// Tables are authored for a sparse set of notes and the missing notes are
// derived by interpolation before playback starts.
//
// # Features
//
//   - Two table layouts: index-shifted (fixed constant-Q frequency grid) and
//     harmonic (partials on integer multiples of the note frequency)
//   - Dense note range built from sparse tables by shifting and blending
//   - Binary table cache for fast startup
//   - Stack-based voice allocation with pluggable policies and stealing
//   - Allocation-free audio path with complex rotator oscillators
//   - Optional SIMD acceleration via github.com/tphakala/simd
//   - MIDI input, Lua scores and offline rendering
//
// # Quick Start
//
// Load tables, create a synthesizer and render a few notes offline:
//
//	tables, err := synth.LoadTables(synth.TableOptions{
//	    Path:      "tables/piano.txt",
//	    CachePath: "tables/piano.cache",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := synth.New(synth.DefaultConfig(), tables)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := s.Render([]synth.Event{
//	    {Time: 0, Msg: []byte{0x90, 60, 100}},
//	    {Time: 1, Msg: []byte{0x80, 60, 0}},
//	}, 2)
//
// For live playback, hand the Synth to an audio host as its callback and
// feed MIDI messages to HandleMidi from any goroutine.
//
// # Architecture
//
// The control path (MIDI, scores, UI) runs the voice allocator under a
// mutex. Each note assignment is handed to its voice through a single-word
// atomic cell. The audio path drains those cells at the start of every
// block and never locks, allocates or blocks.
//
//	MIDI -> Allocator -> Voice cells -> Voices -> Mixer -> host
//
// # Thread Safety
//
// NoteOn, NoteOff, HandleMidi, AllNotesOff, SetStackConfig and Info may be
// called from any goroutine. Prepare and Process belong to the audio host
// and must not run concurrently with each other or with Render.
package synth
