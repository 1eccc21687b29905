package shared

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger configures zerolog with pretty console output, or structured
// JSON when jsonFormat is set.
func NewLogger(level string, jsonFormat bool) zerolog.Logger {
	var zLevel zerolog.Level
	switch level {
	case "debug":
		zLevel = zerolog.DebugLevel
	case "warn":
		zLevel = zerolog.WarnLevel
	case "error":
		zLevel = zerolog.ErrorLevel
	default:
		zLevel = zerolog.InfoLevel
	}

	if jsonFormat {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		return zerolog.New(os.Stderr).
			Level(zLevel).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zLevel).
		With().
		Timestamp().
		Logger()
}
