package main

import "time"

// Default command-line flag values
const (
	defaultBackend = "oto"
	defaultHold    = 400 * time.Millisecond
	defaultTail    = time.Second
	defaultLevel   = "info"
)

// Keyboard layout
const (
	defaultOctave    = 4
	minOctave        = -1
	maxOctave        = 9
	notesPerOctave   = 12
	keyboardChannel  = 0
	keyboardVelocity = 100
)

// Control keys
const (
	keyOctaveDown = 'z'
	keyOctaveUp   = 'x'
	keyPanic      = ' '
	keyQuit       = 'q'
	keyCtrlC      = 0x03
	keyEscape     = 0x1B
)
