// Package logging provides a small leveled logger with colored level tags.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

const timeFormat = "2006-01-02 15:04:05"

var tags = [...]struct {
	name string
	c    *color.Color
}{
	LevelDebug: {"DEBUG", color.New(color.FgCyan)},
	LevelInfo:  {"INFO", color.New(color.FgGreen)},
	LevelWarn:  {"WARN", color.New(color.FgYellow)},
	LevelError: {"ERROR", color.New(color.FgRed, color.Bold)},
}

// String returns the tag printed for the level.
func (l Level) String() string {
	if l >= LevelDebug && l < levelOff {
		return tags[l].name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel converts a level name such as "debug" or "WARN" to a Level.
func ParseLevel(s string) (Level, error) {
	for l := LevelDebug; l < levelOff; l++ {
		if strings.EqualFold(s, tags[l].name) {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes timestamped, leveled messages. A nil *Logger discards
// everything, so library types can hold one without checking.
type Logger struct {
	l     *log.Logger
	level Level
	name  string
}

// New creates a logger writing to w at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{l: log.New(w, "", 0), level: level}
}

// NewStderr creates a logger writing to standard error.
func NewStderr(level Level) *Logger {
	return New(os.Stderr, level)
}

// Discard returns a logger that drops every message.
func Discard() *Logger {
	return &Logger{l: log.New(io.Discard, "", 0), level: levelOff}
}

// Named returns a copy of the logger that prefixes messages with name.
func (lg *Logger) Named(name string) *Logger {
	if lg == nil {
		return nil
	}
	c := *lg
	if c.name != "" {
		name = c.name + "." + name
	}
	c.name = name
	return &c
}

// Enabled reports whether messages at level are written.
func (lg *Logger) Enabled(level Level) bool {
	return lg != nil && level >= lg.level
}

func (lg *Logger) log(level Level, msg string, args ...any) {
	if !lg.Enabled(level) {
		return
	}
	ts := time.Now().Format(timeFormat)
	tag := tags[level].c.Sprintf("[%s]", tags[level].name)
	if lg.name != "" {
		lg.l.Printf("%s %s %s: %s", ts, tag, lg.name, fmt.Sprintf(msg, args...))
		return
	}
	lg.l.Printf("%s %s %s", ts, tag, fmt.Sprintf(msg, args...))
}

func (lg *Logger) Debug(m string, a ...any) { lg.log(LevelDebug, m, a...) }
func (lg *Logger) Info(m string, a ...any)  { lg.log(LevelInfo, m, a...) }
func (lg *Logger) Warn(m string, a ...any)  { lg.log(LevelWarn, m, a...) }
func (lg *Logger) Error(m string, a ...any) { lg.log(LevelError, m, a...) }
