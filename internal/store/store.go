// Package store persists change logs. File stores write one records array
// per label; the SQLite store keeps every label in one database.
package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/errors"
)

// Store saves and loads change logs by label.
type Store interface {
	// Save writes log under its label, replacing any previous log
	Save(ctx context.Context, log *changelog.Log) error

	// Load reads the log saved under label. Missing labels fail with a
	// NotFoundError
	Load(ctx context.Context, label string) (*changelog.Log, error)

	// Labels lists saved labels in natural order ("Day 2" before "Day 10")
	Labels(ctx context.Context) ([]string, error)

	// Close releases resources held by the store
	Close() error
}

// Kind selects a store implementation.
type Kind string

// Store kinds.
const (
	KindJSON   Kind = "json"
	KindYAML   Kind = "yaml"
	KindSQLite Kind = "sqlite"
)

// ParseKind parses a store kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindJSON, KindYAML, KindSQLite:
		return k, nil
	case "yml":
		return KindYAML, nil
	case "sqlite3", "db":
		return KindSQLite, nil
	default:
		return "", fmt.Errorf("%w: store kind %q", errors.ErrUnsupportedFormat, s)
	}
}

// Open opens a store of the given kind. For file stores path is a
// directory; for SQLite it is the database file.
func Open(kind Kind, path string) (Store, error) {
	switch kind {
	case KindJSON:
		return NewJSON(path), nil
	case KindYAML:
		return NewYAML(path), nil
	case KindSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: store kind %q", errors.ErrUnsupportedFormat, kind)
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a label into a file name stem: "Day 2" becomes "day2".
func Slug(label string) string {
	return slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "")
}

func validateLabel(label string) error {
	if Slug(label) == "" {
		return errors.NewValidationError("label", label, "must contain a letter or digit")
	}
	return nil
}

// Latest loads the log with the greatest label. An empty store fails with a
// NotFoundError.
func Latest(ctx context.Context, s Store) (*changelog.Log, error) {
	labels, err := s.Labels(ctx)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, errors.NewNotFoundError("change log", "latest")
	}
	return s.Load(ctx, labels[len(labels)-1])
}

// SortLabels sorts labels in place, comparing digit runs numerically.
func SortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return naturalLess(labels[i], labels[j])
	})
}

var chunkPattern = regexp.MustCompile(`\d+|\D+`)

func naturalLess(a, b string) bool {
	ca, cb := chunkPattern.FindAllString(a, -1), chunkPattern.FindAllString(b, -1)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] == cb[i] {
			continue
		}
		na, errA := strconv.ParseUint(ca[i], 10, 64)
		nb, errB := strconv.ParseUint(cb[i], 10, 64)
		if errA == nil && errB == nil && na != nb {
			return na < nb
		}
		return ca[i] < cb[i]
	}
	return len(ca) < len(cb)
}

// Resolve loads label, or the latest log when label is empty.
func Resolve(ctx context.Context, s Store, label string) (*changelog.Log, error) {
	if strings.TrimSpace(label) == "" {
		return Latest(ctx, s)
	}
	return s.Load(ctx, label)
}
