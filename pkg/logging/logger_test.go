package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/regwatch/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logging.SetDefault(logger)

	logging.Default().Info().Msg("info message")
	logging.FromContext(context.Background()).Warn().Msg("warning message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, "warning message") {
		t.Errorf("Expected warning message in output, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithLabel(ctx, "Day 2")
	ctx = logging.WithOperation(ctx, "reconcile")

	logging.FromContext(ctx).Info().Msg("test message")

	testLogger.AssertContains(t, `"label":"Day 2"`)
	testLogger.AssertContains(t, `"operation":"reconcile"`)
	testLogger.AssertContains(t, "test message")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if logging.FromContext(context.Background()) != logging.Default() {
		t.Error("expected default logger for bare context")
	}
	//nolint:staticcheck // intentionally passing nil
	if logging.FromContext(nil) != logging.Default() {
		t.Error("expected default logger for nil context")
	}
}

func TestWithError(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	if got := logging.WithError(ctx, nil); got != ctx {
		t.Error("WithError(nil) should return the same context")
	}

	ctx = logging.WithError(ctx, context.DeadlineExceeded)
	logging.FromContext(ctx).Warn().Msg("step skipped")
	testLogger.AssertContains(t, "context deadline exceeded")
}
