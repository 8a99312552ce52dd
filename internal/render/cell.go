package render

import "sync/atomic"

type eventKind uint32

const (
	eventNone eventKind = iota
	eventNoteOn
	eventNoteOff
)

const stolenBit = 1 << 2

// pendingEvent is a note assignment packed into one word:
// bits 0-1 kind, bit 2 stolen, 8-15 note, 16-23 velocity, 24-31 channel.
type pendingEvent uint32

func packNoteOn(ch, note, vel uint8, stolen bool) pendingEvent {
	e := uint32(eventNoteOn) | uint32(note)<<8 | uint32(vel)<<16 | uint32(ch)<<24
	if stolen {
		e |= stolenBit
	}
	return pendingEvent(e)
}

func (e pendingEvent) kind() eventKind { return eventKind(e & 3) }
func (e pendingEvent) stolen() bool    { return e&stolenBit != 0 }
func (e pendingEvent) note() uint8     { return uint8(e >> 8) }
func (e pendingEvent) velocity() uint8 { return uint8(e >> 16) }
func (e pendingEvent) channel() uint8  { return uint8(e >> 24) }

// cell is a single-slot handoff between the control path and the audio
// path. A newer post overwrites an older one that was not taken yet.
type cell struct {
	v atomic.Uint32
}

func (c *cell) post(e pendingEvent) { c.v.Store(uint32(e)) }

func (c *cell) take() pendingEvent { return pendingEvent(c.v.Swap(0)) }
