// Package logging builds the zerolog loggers used across slowpost.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a level name to a zerolog level. Names are
// case-insensitive; an empty name means info. The second result is false for
// unknown names.
func ParseLevel(lvl string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info", "":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// New returns a logger writing to w at the given level. Unknown levels fall
// back to info. With pretty set, output is human-readable instead of JSON.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, _ := ParseLevel(level)
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
