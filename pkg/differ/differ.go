// Package differ provides change detection between two indexed snapshots:
// which keys were added or removed, and which watched fields changed for
// the keys present in both.
package differ

import (
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// FieldChange is one watched field whose value differs for a common key.
type FieldChange struct {
	Key      string         // Entity key
	Field    string         // Watched field name
	OldValue snapshot.Value // Value in the old snapshot
	NewValue snapshot.Value // Value in the new snapshot
}

// Differ handles change detection between snapshot indices.
type Differ interface {
	// Membership returns the keys only in updated (added) and only in
	// existing (removed), both in ascending order
	Membership(existing, updated *snapshot.Index) (added, removed []string)

	// Common returns the keys present in both indices in ascending order
	Common(existing, updated *snapshot.Index) []string

	// Fields compares watched fields for the given keys. Output is grouped
	// by key in the order of keys, then by field in watch-list order
	Fields(existing, updated *snapshot.Index, keys, watched []string) []FieldChange
}

// differ is the default implementation of Differ.
type differ struct {
	workers       int
	partitionSize int
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		workers:       constants.DefaultWorkers,
		partitionSize: constants.MinPartitionSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Membership computes additions and removals by set difference.
func (diff *differ) Membership(existing, updated *snapshot.Index) (added, removed []string) {
	added = []string{}
	removed = []string{}

	for _, key := range updated.Keys() {
		if !existing.Has(key) {
			added = append(added, key)
		}
	}

	for _, key := range existing.Keys() {
		if !updated.Has(key) {
			removed = append(removed, key)
		}
	}

	return added, removed
}

// Common computes the ascending intersection of keys.
func (diff *differ) Common(existing, updated *snapshot.Index) []string {
	smaller, larger := existing, updated
	if updated.Len() < existing.Len() {
		smaller, larger = updated, existing
	}

	common := make([]string, 0, smaller.Len())
	for _, key := range smaller.Keys() {
		if larger.Has(key) {
			common = append(common, key)
		}
	}
	return common
}

// Fields compares watched fields, partitioning the keys across workers when
// configured. Partitions are contiguous and merged in order, so the result
// does not depend on the worker count.
func (diff *differ) Fields(existing, updated *snapshot.Index, keys, watched []string) []FieldChange {
	chunks := partition(keys, diff.workers, diff.partitionSize)
	if len(chunks) <= 1 {
		return fieldChanges(existing, updated, keys, watched)
	}

	results := make([][]FieldChange, len(chunks))
	var g errgroup.Group
	g.SetLimit(diff.workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			results[i] = fieldChanges(existing, updated, chunk, watched)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	changes := make([]FieldChange, 0, total)
	for _, r := range results {
		changes = append(changes, r...)
	}
	return changes
}

// fieldChanges is the sequential comparison over one run of keys.
func fieldChanges(existing, updated *snapshot.Index, keys, watched []string) []FieldChange {
	changes := []FieldChange{}
	for _, key := range keys {
		oldRow, okOld := existing.Lookup(key)
		newRow, okNew := updated.Lookup(key)
		if !okOld || !okNew {
			continue
		}
		for _, field := range watched {
			oldValue := oldRow.Get(field)
			newValue := newRow.Get(field)
			if oldValue.Equal(newValue) {
				continue
			}
			changes = append(changes, FieldChange{
				Key:      key,
				Field:    field,
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}
	return changes
}

// partition splits keys into at most workers contiguous chunks of at least
// minSize keys each.
func partition(keys []string, workers, minSize int) [][]string {
	if workers <= 1 || len(keys) == 0 {
		return [][]string{keys}
	}
	if minSize < 1 {
		minSize = 1
	}

	size := (len(keys) + workers - 1) / workers
	if size < minSize {
		size = minSize
	}

	var chunks [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}
