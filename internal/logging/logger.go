package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// BACKFILL_LOG_LEVEL controls the log level: debug, info, warn, error (default: info).
// BACKFILL_LOG_FILE, when set, appends every event to the named file in addition
// to the console output.
func Init() {
	level := os.Getenv("BACKFILL_LOG_LEVEL")
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr}

	if path := os.Getenv("BACKFILL_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Logger = log.Output(console)
			log.Warn().Err(err).Str("path", path).Msg("could not open log file, logging to console only")
			return
		}
		log.Logger = log.Output(io.MultiWriter(console, f))
		return
	}

	log.Logger = log.Output(console)
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}
