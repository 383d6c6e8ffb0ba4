// Package logger builds the process-wide zerolog logger. Progress logs
// go to stderr so stdout stays clean for the explanation output.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console format
}

// New creates a logger and installs it as the global zerolog logger so
// package-level log calls share the same sink.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		writer := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	log.Logger = logger
	return logger
}
