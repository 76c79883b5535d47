// Package logging configures the zerolog logger used across momentum-tracker.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ConsoleTimeFormat is the timestamp layout of human-readable output.
const ConsoleTimeFormat = "2006-01-02_15:04:05"

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// New builds a logger writing to w. Format "json" writes raw JSON lines, anything
// else a console writer. A nil w means stderr.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: ConsoleTimeFormat, NoColor: true}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
