// Package midi decodes raw MIDI messages and fans them out to listeners.
package midi

import "sync"

// Status nibbles.
const (
	statusNoteOff = 0x8
	statusNoteOn  = 0x9
	statusCC      = 0xB
)

// Channel mode controllers handled by the synthesizer.
const (
	CCAllSoundOff = 120
	CCAllNotesOff = 123
)

// defaultVelocity is used for note-on messages without a velocity byte.
const defaultVelocity = 127

// Listener receives decoded MIDI events. ts is a host timestamp.
type Listener interface {
	NoteOn(ts uint32, ch, note, vel uint8)
	NoteOff(ts uint32, ch, note uint8)
	MidiEvent(ts uint32, msg []byte)
}

// Dispatch decodes msg and calls the matching listener method. A note-on
// with velocity 0 is delivered as a note-off. Messages that are not notes
// go to MidiEvent unchanged.
func Dispatch(ts uint32, msg []byte, l Listener) {
	if len(msg) == 0 {
		return
	}
	status := msg[0] >> 4
	ch := msg[0] & 0x0F

	switch {
	case status == statusNoteOn && len(msg) >= 2:
		vel := uint8(defaultVelocity)
		if len(msg) >= 3 {
			vel = msg[2] & 0x7F
		}
		if vel == 0 {
			l.NoteOff(ts, ch, msg[1]&0x7F)
			return
		}
		l.NoteOn(ts, ch, msg[1]&0x7F, vel)
	case status == statusNoteOff && len(msg) >= 2:
		l.NoteOff(ts, ch, msg[1]&0x7F)
	default:
		l.MidiEvent(ts, msg)
	}
}

// ControlChange reports whether msg is a control change and returns its
// channel, controller and value.
func ControlChange(msg []byte) (ch, controller, value uint8, ok bool) {
	if len(msg) < 3 || msg[0]>>4 != statusCC {
		return 0, 0, 0, false
	}
	return msg[0] & 0x0F, msg[1] & 0x7F, msg[2] & 0x7F, true
}

// NoteOnMessage encodes a note-on message.
func NoteOnMessage(ch, note, vel uint8) []byte {
	return []byte{statusNoteOn<<4 | ch&0x0F, note & 0x7F, vel & 0x7F}
}

// NoteOffMessage encodes a note-off message.
func NoteOffMessage(ch, note uint8) []byte {
	return []byte{statusNoteOff<<4 | ch&0x0F, note & 0x7F, 0}
}

// ControlChangeMessage encodes a control change message.
func ControlChangeMessage(ch, controller, value uint8) []byte {
	return []byte{statusCC<<4 | ch&0x0F, controller & 0x7F, value & 0x7F}
}

// Caster forwards raw messages to every registered listener.
type Caster struct {
	mu        sync.RWMutex
	listeners []Listener
}

// Add registers l. Adding the same listener twice has no effect.
func (c *Caster) Add(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, x := range c.listeners {
		if x == l {
			return
		}
	}
	c.listeners = append(c.listeners, l)
}

// Remove unregisters l.
func (c *Caster) Remove(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.listeners {
		if x == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of listeners.
func (c *Caster) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listeners)
}

// Send decodes msg for every listener.
func (c *Caster) Send(ts uint32, msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.listeners {
		Dispatch(ts, msg, l)
	}
}
