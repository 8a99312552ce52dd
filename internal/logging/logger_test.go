package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_FiltersByLevel(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	lg := New(&buf, LevelWarn)

	lg.Debug("hidden %d", 1)
	lg.Info("hidden %d", 2)
	lg.Warn("shown %d", 3)
	lg.Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 3")
	assert.Contains(t, out, "[ERROR] shown 4")
}

func TestLogger_Named(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	lg := New(&buf, LevelDebug).Named("store").Named("import")

	lg.Debug("bins=%d", 20)
	assert.Contains(t, buf.String(), "[DEBUG] store.import: bins=20")
}

func TestLogger_NilAndDiscard(t *testing.T) {
	var lg *Logger
	assert.NotPanics(t, func() { lg.Info("nothing") })
	assert.False(t, lg.Enabled(LevelError))
	assert.Nil(t, lg.Named("x"))

	assert.False(t, Discard().Enabled(LevelError))
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, l)

	l, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, l)

	_, err = ParseLevel("verbose")
	require.Error(t, err)
	assert.Equal(t, "INFO", LevelInfo.String())
}
