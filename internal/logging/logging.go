// Package logging wires zerolog for the whole process. Setup configures the
// global logger once at startup; packages log through zerolog's global
// log.Logger after that.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. format is "console" for
// human-readable output or "json" for structured lines; level is one of
// debug, info, warn, error (anything else falls back to info).
func Setup(level, format string) {
	zerolog.SetGlobalLevel(parseLevel(level))

	var logger zerolog.Logger
	if strings.EqualFold(format, "json") {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		writer := zerolog.ConsoleWriter{Out: os.Stderr}
		logger = zerolog.New(writer).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
