package reconcile

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// cacheKey identifies a run by the content of its inputs.
type cacheKey struct {
	existing uint64
	updated  uint64
	label    string
}

// runCache memoizes logs. Logs are immutable so entries are shared as is.
type runCache struct {
	entries *lru.Cache[cacheKey, *changelog.Log]
}

func newRunCache(size int) (*runCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[cacheKey, *changelog.Log](size)
	if err != nil {
		return nil, err
	}
	return &runCache{entries: entries}, nil
}

func keyFor(existing, updated *snapshot.Snapshot, label string) cacheKey {
	return cacheKey{existing: existing.Digest(), updated: updated.Digest(), label: label}
}

func (c *runCache) get(key cacheKey) (*changelog.Log, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *runCache) add(key cacheKey, log *changelog.Log) {
	if c == nil {
		return
	}
	c.entries.Add(key, log)
}

func (c *runCache) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
