package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/internal/store"
	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/reconcile"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
type Mock struct {
	ReconcilerFunc    func() (reconcile.Reconciler, error)
	StoreFunc         func() (store.Store, error)
	IngestOptionsFunc func() ingest.Options
	FillsFunc         func() map[string]snapshot.Value
	FieldsFunc        func() Fields
	LoggerFunc        func() *zerolog.Logger
	NoColorFunc       func() bool
	OutputFormatFunc  func() string
	VersionFunc       func() string
	CommitFunc        func() string
	DateFunc          func() string
	BuiltByFunc       func() string
}

// Reconciler returns the mock reconciler or one built with defaults.
func (m *Mock) Reconciler() (reconcile.Reconciler, error) {
	if m.ReconcilerFunc != nil {
		return m.ReconcilerFunc()
	}
	return reconcile.New()
}

// Store returns the mock store or an in-memory SQLite store.
func (m *Mock) Store() (store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	s, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	return s, nil
}

// IngestOptions returns the mock options or the defaults.
func (m *Mock) IngestOptions() ingest.Options {
	if m.IngestOptionsFunc != nil {
		return m.IngestOptionsFunc()
	}
	return ingest.Options{KeyField: constants.DefaultKeyField}
}

// Fills returns the mock fills or the defaults.
func (m *Mock) Fills() map[string]snapshot.Value {
	if m.FillsFunc != nil {
		return m.FillsFunc()
	}
	return ingest.DefaultFills()
}

// Fields returns the mock fields or the defaults.
func (m *Mock) Fields() Fields {
	if m.FieldsFunc != nil {
		return m.FieldsFunc()
	}
	return Fields{
		Key:    constants.DefaultKeyField,
		Name:   constants.DefaultNameField,
		Status: constants.StatusField,
		State:  constants.StateField,
	}
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// NoColor returns the mock setting or true.
func (m *Mock) NoColor() bool {
	if m.NoColorFunc != nil {
		return m.NoColorFunc()
	}
	return true
}

// OutputFormat returns the mock format or json.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
