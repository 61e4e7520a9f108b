package snapshot

import (
	"fmt"
	"sort"

	"github.com/agentstation/regwatch/pkg/errors"
)

// Index is a read-only key lookup over one snapshot.
type Index struct {
	snapshot *Snapshot
	byKey    map[string]int
	keys     []string
}

// BuildIndex maps every row key to its row. A key that appears twice fails
// with a DuplicateKeyError and an empty key fails with a SchemaError; rows
// are never merged or dropped.
func BuildIndex(s *Snapshot) (*Index, error) {
	idx := &Index{
		snapshot: s,
		byKey:    make(map[string]int, s.Len()),
		keys:     make([]string, 0, s.Len()),
	}
	for i, row := range s.rows {
		if row.Key == "" {
			return nil, errors.NewSchemaError(s.name, "Key", fmt.Sprintf("row %d has an empty key", i))
		}
		if first, exists := idx.byKey[row.Key]; exists {
			return nil, errors.NewDuplicateKeyError(s.name, row.Key, first, i)
		}
		idx.byKey[row.Key] = i
		idx.keys = append(idx.keys, row.Key)
	}
	sort.Strings(idx.keys)
	return idx, nil
}

// Snapshot returns the indexed snapshot.
func (ix *Index) Snapshot() *Snapshot { return ix.snapshot }

// Len returns the number of keys.
func (ix *Index) Len() int { return len(ix.keys) }

// Keys returns all keys in ascending lexical order.
func (ix *Index) Keys() []string {
	return append([]string(nil), ix.keys...)
}

// Has reports whether key is present.
func (ix *Index) Has(key string) bool {
	_, ok := ix.byKey[key]
	return ok
}

// Lookup returns the row for key.
func (ix *Index) Lookup(key string) (Row, bool) {
	i, ok := ix.byKey[key]
	if !ok {
		return Row{}, false
	}
	return ix.snapshot.rows[i], true
}

// Value returns the value of field for key, or null when either is missing.
func (ix *Index) Value(key, field string) Value {
	i, ok := ix.byKey[key]
	if !ok {
		return Null()
	}
	return ix.snapshot.rows[i].fields[field]
}
