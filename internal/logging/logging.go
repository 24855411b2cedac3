// Package logging configures the global zerolog logger for the commands.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at w (stderr when nil). DEV gets a
// human-readable console writer, anything else gets JSON lines. An unknown
// or empty level falls back to info.
func Setup(w io.Writer, dev bool, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if dev {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
