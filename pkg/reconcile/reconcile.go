// Package reconcile compares two snapshots of the same entity set and
// produces the change log between them. It also runs chains of snapshots
// pairwise and memoizes results on request.
//
// The package does no I/O. Inputs are read-only and outputs are immutable.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/differ"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// Reconciler is the main interface for reconciling snapshots.
type Reconciler interface {
	// Reconcile compares existing (old) against updated (new) and stamps every
	// record with label. It fails with a DuplicateKeyError or SchemaError and
	// never returns a partial log.
	Reconcile(ctx context.Context, existing, updated *snapshot.Snapshot, label string) (*changelog.Log, error)

	// ReconcileChain reconciles each consecutive pair of a chain, labelling
	// each step with the later snapshot's label. Step failures are isolated.
	ReconcileChain(ctx context.Context, chain []Labeled) *ChainResult
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	nameField    string
	watched      []string
	fieldTypes   map[string]snapshot.FieldType
	chainWorkers int
	differ       differ.Differ
	cache        *runCache
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	d := options.differ
	if d == nil {
		d = differ.New(differ.WithWorkers(options.workers))
	}

	cache, err := newRunCache(options.cacheSize)
	if err != nil {
		return nil, err
	}

	return &reconciler{
		nameField:    options.nameField,
		watched:      options.watched,
		fieldTypes:   options.fieldTypes,
		chainWorkers: options.chainWorkers,
		differ:       d,
		cache:        cache,
	}, nil
}

// Reconcile performs one run: index, check schema, diff, assemble.
func (r *reconciler) Reconcile(ctx context.Context, existing, updated *snapshot.Snapshot, label string) (*changelog.Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if existing == nil || updated == nil {
		return nil, &errors.ValidationError{Field: "snapshot", Message: "both snapshots are required"}
	}
	logger := logging.FromContext(logging.WithLabel(ctx, label))

	var key cacheKey
	if r.cache != nil {
		key = keyFor(existing, updated, label)
		if log, ok := r.cache.get(key); ok {
			logger.Debug().Int("records", log.Len()).Msg("Reconcile cache hit")
			return log, nil
		}
	}

	start := time.Now()
	logger.Debug().
		Int("old_rows", existing.Len()).
		Int("new_rows", updated.Len()).
		Msg("Reconciling snapshots")

	oldIndex, err := snapshot.BuildIndex(existing)
	if err != nil {
		return nil, fmt.Errorf("old snapshot: %w", err)
	}
	newIndex, err := snapshot.BuildIndex(updated)
	if err != nil {
		return nil, fmt.Errorf("new snapshot: %w", err)
	}

	warnings, err := r.checkSchema(existing, updated)
	if err != nil {
		return nil, err
	}

	added, removed := r.differ.Membership(oldIndex, newIndex)
	common := r.differ.Common(oldIndex, newIndex)
	changes := r.differ.Fields(oldIndex, newIndex, common, r.watched)

	log := Assemble(added, removed, changes, oldIndex, newIndex, r.nameField, label, warnings...)

	logger.Debug().
		Int("added", len(added)).
		Int("removed", len(removed)).
		Int("updated", len(changes)).
		Dur("duration", time.Since(start)).
		Msg("Reconciled snapshots")

	r.cache.add(key, log)
	return log, nil
}
