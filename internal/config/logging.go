package config

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global zerolog logger. JSON goes to w as-is;
// console output is colourised unless running under systemd.
func SetupLogging(w io.Writer, level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}

	// JOURNAL_STREAM is set by systemd when running as a service.
	_, underSystemd := os.LookupEnv("JOURNAL_STREAM")
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: underSystemd})
}
