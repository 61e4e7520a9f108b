package reconcile

import (
	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/differ"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// options configures a reconciler.
type options struct {
	nameField    string
	watched      []string
	fieldTypes   map[string]snapshot.FieldType
	workers      int
	chainWorkers int
	cacheSize    int
	differ       differ.Differ
}

func defaultOptions() *options {
	return &options{
		nameField:    constants.DefaultNameField,
		watched:      constants.DefaultWatchedFields(),
		fieldTypes:   map[string]snapshot.FieldType{},
		workers:      constants.DefaultWorkers,
		chainWorkers: constants.DefaultWorkers,
		cacheSize:    constants.DefaultCacheSize,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithWatchedFields sets the ordered list of fields compared for common keys.
func WithWatchedFields(fields ...string) Option {
	return func(o *options) error {
		if len(fields) == 0 {
			return &errors.ValidationError{
				Field:   "watched_fields",
				Message: "at least one field is required",
			}
		}
		seen := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			if f == "" {
				return &errors.ValidationError{Field: "watched_fields", Value: fields, Message: "field names cannot be empty"}
			}
			if _, dup := seen[f]; dup {
				return &errors.ValidationError{Field: "watched_fields", Value: f, Message: "listed more than once"}
			}
			seen[f] = struct{}{}
		}
		o.watched = append([]string(nil), fields...)
		return nil
	}
}

// WithNameField sets the field reported for additions and removals.
func WithNameField(field string) Option {
	return func(o *options) error {
		if field == "" {
			return &errors.ValidationError{Field: "name_field", Message: "cannot be empty"}
		}
		o.nameField = field
		return nil
	}
}

// WithFieldTypes declares semantic types for fields. Watched fields with a
// declared type must hold values of that kind in both snapshots.
func WithFieldTypes(types map[string]snapshot.FieldType) Option {
	return func(o *options) error {
		o.fieldTypes = make(map[string]snapshot.FieldType, len(types))
		for field, ft := range types {
			parsed, err := snapshot.ParseFieldType(string(ft))
			if err != nil {
				return &errors.ValidationError{Field: "field_types", Value: string(ft), Message: "unknown type for " + field}
			}
			o.fieldTypes[field] = parsed
		}
		return nil
	}
}

// WithWorkers sets the number of goroutines used by the field differ.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 0 || n > constants.MaxWorkers {
			return &errors.ValidationError{Field: "workers", Value: n, Message: "out of range"}
		}
		o.workers = n
		return nil
	}
}

// WithChainWorkers sets how many chain steps may run at once.
func WithChainWorkers(n int) Option {
	return func(o *options) error {
		if n < 0 || n > constants.MaxWorkers {
			return &errors.ValidationError{Field: "chain_workers", Value: n, Message: "out of range"}
		}
		o.chainWorkers = n
		return nil
	}
}

// WithCache memoizes up to size run results. Zero disables the cache.
func WithCache(size int) Option {
	return func(o *options) error {
		if size < 0 || size > constants.MaxCacheSize {
			return &errors.ValidationError{Field: "cache_size", Value: size, Message: "out of range"}
		}
		o.cacheSize = size
		return nil
	}
}

// WithDiffer replaces the differ. WithWorkers is ignored when set.
func WithDiffer(d differ.Differ) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{Field: "differ", Message: "cannot be nil"}
		}
		o.differ = d
		return nil
	}
}
