package score

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-spectral-synth/internal/midi"
)

func TestRunString_SortsEvents(t *testing.T) {
	src := `
note(1.0, 0.5, 0, 64)
note_on(0, 2, 60, 90)
note_off(2, 2, 60)
all_notes_off(3)
`
	s, err := RunString(context.Background(), src, "test")
	require.NoError(t, err)

	want := []Event{
		{Time: 0, Msg: midi.NoteOnMessage(2, 60, 90)},
		{Time: 1, Msg: midi.NoteOnMessage(0, 64, defaultVelocity)},
		{Time: 1.5, Msg: midi.NoteOffMessage(0, 64)},
		{Time: 2, Msg: midi.NoteOffMessage(2, 60)},
		{Time: 3, Msg: midi.ControlChangeMessage(0, midi.CCAllNotesOff, 0)},
	}
	assert.Equal(t, want, s.Events())
	assert.InDelta(t, 3.0, s.Duration(), 1e-12)
}

func TestRunString_LoopsAndStableOrder(t *testing.T) {
	src := `
for i = 0, 3 do
  note_on(0, 0, 60 + i)
end
`
	s, err := RunString(context.Background(), src, "loop")
	require.NoError(t, err)

	events := s.Events()
	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, byte(60+i), e.Msg[1])
	}
}

func TestRunString_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "note_on(("},
		{"negative time", "note_on(-1, 0, 60)"},
		{"channel range", "note_on(0, 16, 60)"},
		{"note range", "note_off(0, 0, 128)"},
		{"velocity range", "note(0, 1, 0, 60, 200)"},
		{"missing argument", "note_on(0)"},
		{"runtime", "error('boom')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunString(context.Background(), tt.src, tt.name)
			require.ErrorIs(t, err, ErrScript)
		})
	}
}

func TestRunString_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunString(ctx, "while true do end", "spin")
	require.ErrorIs(t, err, ErrScript)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.lua")
	require.NoError(t, os.WriteFile(path, []byte("note(0.25, 0.25, 1, 72, 64)\n"), 0o600))

	s, err := RunFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, s.Events(), 2)
	assert.Equal(t, midi.NoteOnMessage(1, 72, 64), s.Events()[0].Msg)

	_, err = RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.lua"))
	require.ErrorIs(t, err, ErrScript)
}
