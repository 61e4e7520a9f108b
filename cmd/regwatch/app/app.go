// Package app provides the application context and dependency management
// for the regwatch CLI. It centralizes configuration, dependency injection,
// and lifecycle management.
package app

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/internal/store"
	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/reconcile"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// App represents the regwatch application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazy-initialized singletons
	mu         sync.RWMutex
	reconciler reconcile.Reconciler
	store      store.Store
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the default sources and can be replaced
// using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// NoColor reports whether colored output is disabled.
func (a *App) NoColor() bool { return a.config.NoColor }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Fields returns the configured registry column names.
func (a *App) Fields() appcontext.Fields {
	return appcontext.Fields{
		Key:    a.config.KeyField,
		Name:   a.config.NameField,
		Status: a.config.StatusField,
		State:  a.config.StateField,
	}
}

// IngestOptions returns how snapshot files are parsed. The config was
// validated on load, so the field types parse.
func (a *App) IngestOptions() ingest.Options {
	types, _ := a.config.ParsedFieldTypes()
	return ingest.Options{
		KeyField:   a.config.KeyField,
		FieldTypes: types,
	}
}

// Fills returns the configured null replacements.
func (a *App) Fills() map[string]snapshot.Value {
	fills, _ := a.config.ParsedFills()
	return fills
}

// Reconciler returns the reconciler, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Reconciler() (reconcile.Reconciler, error) {
	a.mu.RLock()
	if a.reconciler != nil {
		r := a.reconciler
		a.mu.RUnlock()
		return r, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.reconciler != nil {
		return a.reconciler, nil
	}

	opts, err := a.buildReconcileOptions()
	if err != nil {
		return nil, err
	}
	r, err := reconcile.New(opts...)
	if err != nil {
		return nil, errors.NewConfigError("reconciler", err.Error(), err)
	}

	a.reconciler = r
	return r, nil
}

// Store returns the change-log store, opening it lazily if needed.
func (a *App) Store() (store.Store, error) {
	a.mu.RLock()
	if a.store != nil {
		s := a.store
		a.mu.RUnlock()
		return s, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}

	kind, err := store.ParseKind(a.config.StoreKind)
	if err != nil {
		return nil, errors.NewConfigError("store.kind", err.Error(), err)
	}
	s, err := store.Open(kind, storePath(kind, a.config.StorePath))
	if err != nil {
		return nil, err
	}

	a.store = s
	return s, nil
}

// Shutdown performs graceful shutdown of the application.
// It closes the store if one was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	s := a.store
	a.store = nil
	a.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Close()
}

// buildReconcileOptions constructs reconcile options from the app configuration.
func (a *App) buildReconcileOptions() ([]reconcile.Option, error) {
	types, err := a.config.ParsedFieldTypes()
	if err != nil {
		return nil, err
	}

	opts := []reconcile.Option{
		reconcile.WithWatchedFields(a.config.WatchedFields...),
		reconcile.WithNameField(a.config.NameField),
		reconcile.WithWorkers(a.config.Workers),
		reconcile.WithChainWorkers(a.config.ChainWorkers),
		reconcile.WithCache(a.config.CacheSize),
	}
	if len(types) > 0 {
		opts = append(opts, reconcile.WithFieldTypes(types))
	}
	return opts, nil
}

// storePath resolves the SQLite database file when path names a directory.
func storePath(kind store.Kind, path string) string {
	if path == "" {
		path = constants.DefaultStorePath
	}
	if kind == store.KindSQLite && path != ":memory:" && filepath.Ext(path) == "" {
		return filepath.Join(path, constants.SQLiteFileName)
	}
	return path
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithReconciler sets a custom reconciler (useful for testing).
func WithReconciler(r reconcile.Reconciler) Option {
	return func(a *App) error {
		a.reconciler = r
		return nil
	}
}

// WithStore sets a custom store (useful for testing).
func WithStore(s store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}
