// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on one definition of
// the app's dependencies.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/internal/store"
	"github.com/agentstation/regwatch/pkg/reconcile"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// Fields names the registry columns commands read.
type Fields struct {
	Key    string
	Name   string
	Status string
	State  string
}

// Interface defines the application context interface that commands need.
// The App struct from cmd/regwatch/app implements it; tests use Mock.
type Interface interface {
	// Reconciler returns the configured reconciler, creating it lazily.
	Reconciler() (reconcile.Reconciler, error)

	// Store returns the configured change-log store, opening it lazily.
	Store() (store.Store, error)

	// IngestOptions returns how snapshot files are parsed.
	IngestOptions() ingest.Options

	// Fills returns the null replacements applied when cleaning snapshots.
	Fills() map[string]snapshot.Value

	// Fields returns the configured column names.
	Fields() Fields

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// NoColor reports whether colored output is disabled.
	NoColor() bool

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
