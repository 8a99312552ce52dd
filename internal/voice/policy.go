package voice

// OldestPolicy plays each note on one voice. A new note takes the idle
// stack that was released longest ago; with no idle stack it steals the
// stack whose note started first. Released stacks are not refilled.
type OldestPolicy struct{}

// AllocOnNoteOn picks the longest-idle stack, else the oldest sounding one.
func (OldestPolicy) AllocOnNoteOn(st State, _ *NoteEvent) *Stack {
	n := st.NumStacks()
	if n == 0 {
		return nil
	}

	var idle *Stack
	for i := range n {
		s := st.Stack(i)
		if s.Active() {
			continue
		}
		if idle == nil || s.NoteOffCounter() < idle.NoteOffCounter() {
			idle = s
		}
	}
	if idle != nil {
		return idle
	}

	oldest := st.Stack(0)
	for i := 1; i < n; i++ {
		if s := st.Stack(i); s.NoteOnCounter() < oldest.NoteOnCounter() {
			oldest = s
		}
	}
	return oldest
}

// AllocOnNoteOff never refills a released stack.
func (OldestPolicy) AllocOnNoteOff(State, *Stack) *NoteEvent {
	return nil
}

// Prepare puts every voice in its own stack.
func (OldestPolicy) Prepare(st State) {
	st.SetStackConfig(StackConfig{NumStacks: st.NumVoices(), StackSize: 1})
}

// Suspend does nothing.
func (OldestPolicy) Suspend(State) {}
