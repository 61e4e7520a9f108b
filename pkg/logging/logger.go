// Package logging provides structured logging for the regwatch system using zerolog.
// It offers human-readable console output when attached to a terminal and
// structured JSON output for batch jobs and pipelines.
//
// Example usage:
//
//	// Get the default logger
//	log := logging.Default()
//	log.Info().Str("label", "Day 2").Msg("Reconciling snapshots")
//
//	// Carry a logger through a reconciliation run
//	ctx := logging.WithLogger(context.Background(), log)
//	ctx = logging.WithLabel(ctx, "Day 3")
//	logging.FromContext(ctx).Debug().Msg("Using logger from context")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv names the variable that sets the level of the default logger
// before any configuration is applied.
const LevelEnv = "REGWATCH_LOG_LEVEL"

var defaultLogger = newDefaultLogger()

// newDefaultLogger writes to stderr, as console output on a terminal and
// JSON otherwise. Debug and below also record the caller.
func newDefaultLogger() zerolog.Logger {
	cfg := DefaultConfig()
	if level := os.Getenv(LevelEnv); level != "" {
		cfg.Level = level
	}
	level := parseLevel(cfg.Level)
	logger := zerolog.New(getWriter(cfg)).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Default returns the process-wide logger used when a context carries none.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's global
// log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
