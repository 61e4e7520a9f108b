// Package alerts reports run-level notices on stderr: change-log warnings,
// failed chain steps and save confirmations.
package alerts

import (
	"fmt"

	"github.com/agentstation/regwatch/internal/cmd/emoji"
	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/reconcile"
)

// Level represents the severity of an alert.
type Level int

const (
	// LevelError indicates a failed operation.
	LevelError Level = iota
	// LevelWarning indicates a result that needs attention.
	LevelWarning
	// LevelInfo indicates general informational messages.
	LevelInfo
	// LevelSuccess indicates successful completion of an operation.
	LevelSuccess
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Icon returns the status symbol for the level.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return emoji.Error
	case LevelWarning:
		return emoji.Warning
	case LevelSuccess:
		return emoji.Success
	default:
		return emoji.Info
	}
}

func (l Level) color() string {
	switch l {
	case LevelError:
		return "\033[31m"
	case LevelWarning:
		return "\033[33m"
	case LevelSuccess:
		return "\033[32m"
	default:
		return "\033[36m"
	}
}

const reset = "\033[0m"

// Alert is one notice.
type Alert struct {
	Level   Level
	Message string
	Details []string
	Err     error
}

// New creates an alert.
func New(level Level, format string, args ...any) *Alert {
	return &Alert{Level: level, Message: fmt.Sprintf(format, args...)}
}

// WithError attaches the underlying error.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails adds indented detail lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String renders the alert on one line.
func (a *Alert) String() string {
	msg := a.Level.Icon() + " " + a.Message
	if a.Err != nil {
		msg += ": " + a.Err.Error()
	}
	return msg
}

// FromWarning converts a change-log warning.
func FromWarning(w changelog.Warning) *Alert {
	return New(LevelWarning, "%s", w.String())
}

// ForLog returns one alert per warning attached to log.
func ForLog(log *changelog.Log) []*Alert {
	if log == nil {
		return nil
	}
	var out []*Alert
	for _, w := range log.Warnings() {
		out = append(out, FromWarning(w).WithDetails("label: "+log.Label()))
	}
	return out
}

// ForChain returns alerts for failed steps and for warnings of
// successful ones, in step order.
func ForChain(result *reconcile.ChainResult) []*Alert {
	var out []*Alert
	for _, s := range result.Steps {
		if !s.OK() {
			out = append(out, New(LevelError, "step %d (%s -> %s) failed", s.Index, s.From, s.Label).WithError(s.Err))
			continue
		}
		out = append(out, ForLog(s.Log)...)
	}
	return out
}
