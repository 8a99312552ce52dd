package main

import "github.com/tphakala/go-spectral-synth/internal/midi"

// pianoKeys maps keys to semitones above the current octave's C, laid out
// like a piano on a QWERTY keyboard.
var pianoKeys = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6, 'g': 7,
	'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12, 'o': 13, 'l': 14, 'p': 15,
	';': 16, '\'': 17,
}

// keyAction is the result of one key press.
type keyAction struct {
	// msg is a MIDI message to send, or nil.
	msg []byte

	// note is set for note-on messages; the caller schedules its release.
	note    uint8
	hasNote bool

	quit bool
}

// keyboard turns terminal key presses into MIDI messages.
type keyboard struct {
	octave int
}

func newKeyboard() *keyboard {
	return &keyboard{octave: defaultOctave}
}

// press handles one byte read from the terminal.
func (k *keyboard) press(b byte) keyAction {
	switch b {
	case keyQuit, keyCtrlC, keyEscape:
		return keyAction{quit: true}
	case keyOctaveDown:
		k.octave = max(minOctave, k.octave-1)
		return keyAction{}
	case keyOctaveUp:
		k.octave = min(maxOctave, k.octave+1)
		return keyAction{}
	case keyPanic:
		return keyAction{msg: midi.ControlChangeMessage(keyboardChannel, midi.CCAllNotesOff, 0)}
	}

	offset, ok := pianoKeys[b]
	if !ok {
		return keyAction{}
	}
	note := (k.octave+1)*notesPerOctave + offset
	if note < 0 || note > 127 {
		return keyAction{}
	}
	return keyAction{
		msg:     midi.NoteOnMessage(keyboardChannel, uint8(note), keyboardVelocity),
		note:    uint8(note),
		hasNote: true,
	}
}
