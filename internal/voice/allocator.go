package voice

// StackConfig describes how voices are grouped.
type StackConfig struct {
	NumStacks int
	StackSize int
}

// State is the read side of an Allocator offered to a Policy, plus the
// ability to regroup voices.
type State interface {
	NumNoteEvents() int
	NoteEvent(i int) *NoteEvent
	NumStacks() int
	Stack(i int) *Stack
	NumVoices() int
	SetStackConfig(cfg StackConfig) StackConfig
}

// Policy decides stack allocation.
type Policy interface {
	// AllocOnNoteOn returns the stack that plays e, or nil to leave e
	// waiting. Returning a sounding stack steals it.
	AllocOnNoteOn(st State, e *NoteEvent) *Stack

	// AllocOnNoteOff returns a waiting event to play on the freed stack,
	// or nil.
	AllocOnNoteOff(st State, freed *Stack) *NoteEvent

	// Prepare is called when the policy is installed.
	Prepare(st State)

	// Suspend is called when the policy is replaced.
	Suspend(st State)
}

// Allocator maps note events to voice stacks. It is not safe for
// concurrent use; callers serialize the control path.
type Allocator struct {
	handles []*Handle
	stacks  []Stack
	pool    []*Stack

	notes    []NoteEvent
	maxNotes int

	policy Policy

	eventCounter   EventID
	noteOnCounter  uint64
	noteOffCounter uint64
}

// NewAllocator creates an allocator over targets, one voice each, tracking
// at most maxNotes note events (MaxNotes if maxNotes <= 0). Voices start in
// one stack each and no policy is installed.
func NewAllocator(targets []Target, maxNotes int) *Allocator {
	if maxNotes <= 0 {
		maxNotes = MaxNotes
	}
	n := len(targets)
	a := &Allocator{
		handles:  make([]*Handle, n),
		stacks:   make([]Stack, n),
		pool:     make([]*Stack, 0, n),
		notes:    make([]NoteEvent, 0, maxNotes),
		maxNotes: maxNotes,
	}
	for i, t := range targets {
		a.handles[i] = &Handle{id: i, target: t}
		a.stacks[i] = Stack{id: i, handles: make([]*Handle, 0, n)}
	}
	a.SetStackConfig(StackConfig{NumStacks: n, StackSize: 1})
	return a
}

// SetPolicy replaces the allocation policy, suspending the previous one.
func (a *Allocator) SetPolicy(p Policy) {
	if a.policy != nil {
		a.policy.Suspend(a)
	}
	a.policy = p
	if p != nil {
		p.Prepare(a)
	}
}

// NoteOn registers a new note event and lets the policy place it.
// At capacity the event is dropped.
func (a *Allocator) NoteOn(ch, note, vel uint8) {
	if len(a.notes) >= a.maxNotes {
		return
	}

	a.eventCounter++
	if a.eventCounter == NoEvent {
		a.eventCounter++
	}
	a.notes = append(a.notes, NoteEvent{
		ID:       a.eventCounter,
		Channel:  ch,
		Note:     note,
		Velocity: vel,
		State:    Idle,
	})
	e := &a.notes[len(a.notes)-1]

	if a.policy == nil {
		return
	}
	if s := a.policy.AllocOnNoteOn(a, e); s != nil && a.inPool(s) {
		a.allocStack(e, s, false)
	}
}

// NoteOff ends the oldest event matching ch and note. If it was sounding,
// its stack is freed and the policy may hand the stack to a waiting event.
func (a *Allocator) NoteOff(ch, note uint8) {
	idx := a.findNote(ch, note)
	if idx < 0 {
		return
	}
	e := &a.notes[idx]

	if e.State != Playing {
		a.removeNote(idx)
		return
	}

	s := a.stackPlaying(e.ID)
	if s != nil {
		a.freeStack(s)
	}
	a.removeNote(idx)

	if a.policy == nil || s == nil {
		return
	}
	if next := a.policy.AllocOnNoteOff(a, s); next != nil {
		if i := a.findEvent(next.ID); i >= 0 {
			a.allocStack(&a.notes[i], s, true)
		}
	}
}

// AllNotesOff releases every stack and voice and forgets all events.
func (a *Allocator) AllNotesOff() {
	for i := range a.stacks {
		if a.stacks[i].Active() {
			a.freeStack(&a.stacks[i])
		}
	}
	for _, h := range a.handles {
		if h.active {
			h.noteOff()
		}
	}
	a.notes = a.notes[:0]
}

// SetStackConfig regroups the voices and returns the configuration that
// was achieved.
//
// StackSize is clamped to the voice count and NumStacks to the number of
// full stacks that fit. Voice v joins stack v % NumStacks; voices beyond
// NumStacks*StackSize are left unassigned. Voices that change stack are
// released first, and stacks leaving the pool stop their note.
func (a *Allocator) SetStackConfig(req StackConfig) StackConfig {
	n := len(a.handles)
	cfg := req
	cfg.StackSize = min(cfg.StackSize, n)
	if cfg.StackSize <= 0 || cfg.NumStacks <= 0 {
		cfg = StackConfig{}
	} else {
		cfg.NumStacks = min(cfg.NumStacks, n/cfg.StackSize)
	}

	used := cfg.NumStacks * cfg.StackSize
	for i := range used {
		if s := &a.stacks[i%cfg.NumStacks]; a.handles[i].stack != s {
			a.moveVoice(a.handles[i], s)
		}
	}
	for i := used; i < n; i++ {
		a.moveVoice(a.handles[i], nil)
	}

	a.pool = a.pool[:0]
	for i := range cfg.NumStacks {
		a.pool = append(a.pool, &a.stacks[i])
	}
	for i := cfg.NumStacks; i < len(a.stacks); i++ {
		if a.stacks[i].noteID != NoEvent {
			a.freeStack(&a.stacks[i])
		}
	}
	return cfg
}

// NumActiveNotes returns the number of sounding events.
func (a *Allocator) NumActiveNotes() int {
	return a.countNotes(Playing)
}

// NumInactiveNotes returns the number of waiting events.
func (a *Allocator) NumInactiveNotes() int {
	return a.countNotes(Idle)
}

// NumNoteEvents returns the number of tracked events.
func (a *Allocator) NumNoteEvents() int { return len(a.notes) }

// NoteEvent returns the i-th tracked event in arrival order.
func (a *Allocator) NoteEvent(i int) *NoteEvent { return &a.notes[i] }

// NumStacks returns the number of stacks in the pool.
func (a *Allocator) NumStacks() int { return len(a.pool) }

// Stack returns the i-th pooled stack.
func (a *Allocator) Stack(i int) *Stack { return a.pool[i] }

// NumVoices returns the number of voices.
func (a *Allocator) NumVoices() int { return len(a.handles) }

// Voice returns the handle of voice i, or nil.
func (a *Allocator) Voice(i int) *Handle {
	if i < 0 || i >= len(a.handles) {
		return nil
	}
	return a.handles[i]
}

func (a *Allocator) allocStack(e *NoteEvent, s *Stack, forceSteal bool) {
	if s.noteID == e.ID {
		return
	}
	stolen := false
	if s.noteID != NoEvent {
		a.freeStack(s)
		stolen = true
	}
	a.noteOnCounter++
	s.noteOn(a.noteOnCounter, e, stolen || forceSteal)
	e.State = Playing
}

func (a *Allocator) freeStack(s *Stack) {
	if i := a.findEvent(s.noteID); i >= 0 {
		a.notes[i].State = Idle
	}
	a.noteOffCounter++
	s.noteOff(a.noteOffCounter)
}

func (a *Allocator) moveVoice(h *Handle, to *Stack) {
	if h.stack != nil {
		h.stack.remove(h)
		h.noteOff()
	}
	if to != nil {
		to.add(h)
	}
}

func (a *Allocator) inPool(s *Stack) bool {
	for _, p := range a.pool {
		if p == s {
			return true
		}
	}
	return false
}

func (a *Allocator) stackPlaying(id EventID) *Stack {
	for _, s := range a.pool {
		if s.noteID == id {
			return s
		}
	}
	return nil
}

func (a *Allocator) findNote(ch, note uint8) int {
	for i := range a.notes {
		if a.notes[i].Channel == ch && a.notes[i].Note == note {
			return i
		}
	}
	return -1
}

func (a *Allocator) findEvent(id EventID) int {
	if id == NoEvent {
		return -1
	}
	for i := range a.notes {
		if a.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (a *Allocator) removeNote(i int) {
	a.notes = append(a.notes[:i], a.notes[i+1:]...)
}

func (a *Allocator) countNotes(state EventState) int {
	n := 0
	for i := range a.notes {
		if a.notes[i].State == state {
			n++
		}
	}
	return n
}
