// Package score runs Lua scripts that describe timed MIDI events.
//
// Scripts call the following functions, with times in seconds:
//
//	note_on(t, ch, note [, vel])
//	note_off(t, ch, note)
//	note(t, dur, ch, note [, vel])
//	all_notes_off(t)
//
// Channels are 0-15, notes and velocities 0-127. The default velocity is
// 100.
package score

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	lua "github.com/yuin/gopher-lua"

	"github.com/tphakala/go-spectral-synth/internal/midi"
)

const defaultVelocity = 100

// ErrScript is returned when a script fails to run.
var ErrScript = errors.New("score script failed")

// Event is a MIDI message scheduled at Time seconds.
type Event struct {
	Time float64
	Msg  []byte
}

// Score collects the events of one script run.
type Score struct {
	events []Event
}

// Events returns the events sorted by time. Events at the same time keep
// the order in which the script emitted them.
func (s *Score) Events() []Event {
	out := slices.Clone(s.events)
	slices.SortStableFunc(out, func(a, b Event) int { return cmp.Compare(a.Time, b.Time) })
	return out
}

// Duration returns the time of the last event.
func (s *Score) Duration() float64 {
	var d float64
	for _, e := range s.events {
		d = max(d, e.Time)
	}
	return d
}

// RunString runs src and returns the events it emitted. name labels the
// chunk in error messages.
func RunString(ctx context.Context, src, name string) (*Score, error) {
	return run(ctx, name, func(L *lua.LState) error {
		fn, err := L.LoadString(src)
		if err != nil {
			return err
		}
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})
}

// RunFile runs the script at path.
func RunFile(ctx context.Context, path string) (*Score, error) {
	return run(ctx, path, func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

func run(ctx context.Context, name string, exec func(*lua.LState) error) (*Score, error) {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	s := &Score{}
	s.register(L)

	if err := exec(L); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScript, name, err)
	}
	return s, nil
}

func (s *Score) register(L *lua.LState) {
	L.SetGlobal("note_on", L.NewFunction(s.luaNoteOn))
	L.SetGlobal("note_off", L.NewFunction(s.luaNoteOff))
	L.SetGlobal("note", L.NewFunction(s.luaNote))
	L.SetGlobal("all_notes_off", L.NewFunction(s.luaAllNotesOff))
}

func (s *Score) add(t float64, msg []byte) {
	s.events = append(s.events, Event{Time: t, Msg: msg})
}

func (s *Score) luaNoteOn(L *lua.LState) int {
	t := checkTime(L, 1)
	ch := checkRange(L, 2, 15)
	note := checkRange(L, 3, 127)
	vel := optRange(L, 4, 127, defaultVelocity)
	s.add(t, midi.NoteOnMessage(ch, note, vel))
	return 0
}

func (s *Score) luaNoteOff(L *lua.LState) int {
	t := checkTime(L, 1)
	ch := checkRange(L, 2, 15)
	note := checkRange(L, 3, 127)
	s.add(t, midi.NoteOffMessage(ch, note))
	return 0
}

func (s *Score) luaNote(L *lua.LState) int {
	t := checkTime(L, 1)
	dur := checkTime(L, 2)
	ch := checkRange(L, 3, 15)
	note := checkRange(L, 4, 127)
	vel := optRange(L, 5, 127, defaultVelocity)
	s.add(t, midi.NoteOnMessage(ch, note, vel))
	s.add(t+dur, midi.NoteOffMessage(ch, note))
	return 0
}

func (s *Score) luaAllNotesOff(L *lua.LState) int {
	t := checkTime(L, 1)
	s.add(t, midi.ControlChangeMessage(0, midi.CCAllNotesOff, 0))
	return 0
}

func checkTime(L *lua.LState, n int) float64 {
	t := float64(L.CheckNumber(n))
	if t < 0 {
		L.ArgError(n, "time must not be negative")
	}
	return t
}

func checkRange(L *lua.LState, n, hi int) uint8 {
	v := L.CheckInt(n)
	if v < 0 || v > hi {
		L.ArgError(n, fmt.Sprintf("value %d out of range 0-%d", v, hi))
	}
	return uint8(v)
}

func optRange(L *lua.LState, n, hi, def int) uint8 {
	if L.Get(n) == lua.LNil {
		return uint8(def)
	}
	return checkRange(L, n, hi)
}
