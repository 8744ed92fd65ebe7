// Package logging builds the zerolog loggers used across driveport.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config string to a zerolog level, falling back to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// New returns a console logger writing to w at the given level. A nil w
// writes to stdout with colours.
func New(level string, w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	if w == nil {
		cw.Out = os.Stdout
		cw.NoColor = false
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	return zerolog.New(cw).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("app", "driveport").
		Logger()
}
