package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regwatch/pkg/logging"
)

func TestConfigFunctions(t *testing.T) {
	originalLogger := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		logging.SetDefault(originalLogger)
		zerolog.SetGlobalLevel(originalLevel)
	}()

	t.Run("DefaultConfig returns sensible defaults", func(t *testing.T) {
		cfg := logging.DefaultConfig()
		assert.NotNil(t, cfg)
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "auto", cfg.Format)
		assert.False(t, cfg.AddCaller)
		assert.Equal(t, "stderr", cfg.Output)
		assert.Positive(t, cfg.MaxSizeMB)
	})

	t.Run("NewLoggerFromConfig writes to a rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "regwatch.log")

		cfg := &logging.Config{
			Level:     "debug",
			Format:    "json",
			Output:    path,
			AddCaller: true,
		}

		logger := logging.NewLoggerFromConfig(cfg)
		logger.Info().Str("label", "Day 2").Msg("test message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
		assert.Contains(t, string(content), `"level":"info"`)
		assert.Contains(t, string(content), `"label":"Day 2"`)
	})

	t.Run("level filters events", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "warn.log")

		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "warn",
			Format: "json",
			Output: path,
		})

		logger.Debug().Msg("debug message")
		logger.Info().Msg("info message")
		logger.Warn().Msg("warn message")
		logger.Error().Msg("error message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		output := string(content)
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})

	t.Run("default fields are attached", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fields.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "info",
			Format: "json",
			Output: path,
			Fields: map[string]any{"job": "nightly", "attempt": 2},
		})
		logger.Info().Msg("with fields")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"job":"nightly"`)
		assert.Contains(t, string(content), `"attempt":2`)
	})

	t.Run("nil config falls back to defaults", func(t *testing.T) {
		assert.NotPanics(t, func() {
			logger := logging.NewLoggerFromConfig(nil)
			_ = logger
		})
	})
}
