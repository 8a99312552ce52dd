// Package voice schedules note events onto a bounded pool of synthesis
// voices.
//
// Voices are grouped into stacks. A stack plays one note event at a time on
// all of its voices. A Policy decides which stack receives a new note and
// which waiting note, if any, takes over a stack that was just released.
package voice

// MaxNotes is the default bound on tracked note events.
const MaxNotes = 16 * 128

// EventID identifies a note event. NoEvent marks an idle stack.
type EventID uint64

// NoEvent is the EventID of no event.
const NoEvent EventID = 0

// EventState tells whether a note event is currently sounding on a stack.
type EventState int

const (
	Idle EventState = iota
	Playing
)

// String returns the state name.
func (s EventState) String() string {
	if s == Playing {
		return "Playing"
	}
	return "Idle"
}

// NoteEvent is a held key.
type NoteEvent struct {
	ID       EventID
	Channel  uint8
	Note     uint8
	Velocity uint8
	State    EventState
}

// Target receives the note assignments of one synthesis voice.
type Target interface {
	// NoteOn starts note on the voice. stolen is set when the voice was
	// taken from another sounding note.
	NoteOn(ch, note, vel uint8, stolen bool)

	// NoteOff releases the current note.
	NoteOff()
}

// Handle is the allocator's view of one voice.
type Handle struct {
	id     int
	target Target
	active bool

	note, ch, vel uint8

	stack *Stack
}

// ID returns the voice index.
func (h *Handle) ID() int { return h.id }

// Active reports whether the voice holds a note.
func (h *Handle) Active() bool { return h.active }

// Note returns the channel, note and velocity last assigned to the voice.
func (h *Handle) Note() (ch, note, vel uint8) { return h.ch, h.note, h.vel }

// Stack returns the stack the voice belongs to, or nil.
func (h *Handle) Stack() *Stack { return h.stack }

// IsPlaying reports whether the voice was assigned e's channel and note.
func (h *Handle) IsPlaying(e *NoteEvent) bool {
	return h.ch == e.Channel && h.note == e.Note
}

func (h *Handle) noteOn(e *NoteEvent, stolen bool) {
	h.active = true
	h.ch, h.note, h.vel = e.Channel, e.Note, e.Velocity
	h.target.NoteOn(e.Channel, e.Note, e.Velocity, stolen)
}

func (h *Handle) noteOff() {
	h.active = false
	h.target.NoteOff()
}

// Stack is a group of voices that play the same note event.
type Stack struct {
	id      int
	handles []*Handle
	noteID  EventID

	noteOnCounter  uint64
	noteOffCounter uint64
}

// ID returns the stack index.
func (s *Stack) ID() int { return s.id }

// NoteID returns the event the stack plays, or NoEvent.
func (s *Stack) NoteID() EventID { return s.noteID }

// NoteOnCounter returns the allocator's note-on count at the stack's last
// allocation.
func (s *Stack) NoteOnCounter() uint64 { return s.noteOnCounter }

// NoteOffCounter returns the allocator's note-off count at the stack's last
// release.
func (s *Stack) NoteOffCounter() uint64 { return s.noteOffCounter }

// Active reports whether any voice of the stack is active.
func (s *Stack) Active() bool {
	for _, h := range s.handles {
		if h.active {
			return true
		}
	}
	return false
}

// NumVoices returns the number of voices in the stack.
func (s *Stack) NumVoices() int { return len(s.handles) }

// Voice returns the i-th voice of the stack. Voice 0 is the master voice.
func (s *Stack) Voice(i int) *Handle { return s.handles[i] }

func (s *Stack) noteOn(counter uint64, e *NoteEvent, stolen bool) {
	s.noteOnCounter = counter
	s.noteID = e.ID
	for _, h := range s.handles {
		h.noteOn(e, stolen)
	}
}

func (s *Stack) noteOff(counter uint64) {
	s.noteOffCounter = counter
	s.noteID = NoEvent
	for _, h := range s.handles {
		h.noteOff()
	}
}

func (s *Stack) add(h *Handle) {
	s.handles = append(s.handles, h)
	h.stack = s
}

func (s *Stack) remove(h *Handle) {
	for i, x := range s.handles {
		if x == h {
			s.handles = append(s.handles[:i], s.handles[i+1:]...)
			break
		}
	}
	h.stack = nil
}
