// Package snapshot models a point-in-time export of the company registry:
// rows keyed by a unique identifier, the values they carry, and the
// key index the differs work against.
//
// Snapshots are immutable once constructed. Constructors copy their inputs
// and accessors hand out copies, so a Snapshot may be read from any number
// of goroutines.
package snapshot

import (
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Row is one entity's state at a point in time.
type Row struct {
	Key    string
	fields map[string]Value
}

// NewRow creates a row, copying fields.
func NewRow(key string, fields map[string]Value) Row {
	copied := make(map[string]Value, len(fields))
	for name, value := range fields {
		copied[name] = value
	}
	return Row{Key: key, fields: copied}
}

// Get returns the value of field, or null when the row does not carry it.
func (r Row) Get(field string) Value {
	return r.fields[field]
}

// Has reports whether the row carries field at all (null or not).
func (r Row) Has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// FieldNames returns the row's field names in ascending order.
func (r Row) FieldNames() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns a copy of the row's values.
func (r Row) Fields() map[string]Value {
	copied := make(map[string]Value, len(r.fields))
	for name, value := range r.fields {
		copied[name] = value
	}
	return copied
}

// With returns a copy of the row with field set to value.
func (r Row) With(field string, value Value) Row {
	next := NewRow(r.Key, r.fields)
	next.fields[field] = value
	return next
}

// Snapshot is an ordered collection of rows plus its column schema.
type Snapshot struct {
	name     string
	columns  []string
	declared bool
	rows     []Row
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithColumns declares the snapshot schema. Without it the schema is the
// union of field names carried by the rows.
func WithColumns(columns ...string) Option {
	return func(s *Snapshot) {
		s.columns = append([]string(nil), columns...)
		s.declared = true
	}
}

// WithName names the snapshot (usually its source file) for error messages.
func WithName(name string) Option {
	return func(s *Snapshot) {
		s.name = name
	}
}

// New creates a snapshot from rows. Rows are copied.
func New(rows []Row, opts ...Option) *Snapshot {
	s := &Snapshot{rows: make([]Row, len(rows))}
	for i, row := range rows {
		s.rows[i] = NewRow(row.Key, row.fields)
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.declared {
		s.columns = deriveColumns(s.rows)
	}
	return s
}

// Derive builds a snapshot over rows that keeps the name and, when
// declared, the schema of s.
func (s *Snapshot) Derive(rows []Row) *Snapshot {
	opts := []Option{WithName(s.name)}
	if s.declared {
		opts = append(opts, WithColumns(s.columns...))
	}
	return New(rows, opts...)
}

// Renamed returns s under another name. Rows are shared, not copied.
func (s *Snapshot) Renamed(name string) *Snapshot {
	out := *s
	out.name = name
	return &out
}

// deriveColumns returns field names in order of first appearance. Names
// within one row are visited in ascending order.
func deriveColumns(rows []Row) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for _, name := range row.FieldNames() {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	return columns
}

// Name returns the snapshot name, if any.
func (s *Snapshot) Name() string { return s.name }

// Len returns the number of rows.
func (s *Snapshot) Len() int { return len(s.rows) }

// IsEmpty reports whether the snapshot has no rows.
func (s *Snapshot) IsEmpty() bool { return len(s.rows) == 0 }

// Row returns the i-th row.
func (s *Snapshot) Row(i int) Row { return s.rows[i] }

// Rows returns the rows in snapshot order.
func (s *Snapshot) Rows() []Row {
	return append([]Row(nil), s.rows...)
}

// Columns returns the schema in declared (or first-seen) order.
func (s *Snapshot) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Declared reports whether the schema was declared rather than derived.
func (s *Snapshot) Declared() bool { return s.declared }

// HasColumn reports whether field belongs to the schema.
func (s *Snapshot) HasColumn(field string) bool {
	for _, column := range s.columns {
		if column == field {
			return true
		}
	}
	return false
}

// SchemaKnown reports whether the snapshot carries any schema information.
// An empty snapshot without declared columns has none.
func (s *Snapshot) SchemaKnown() bool {
	return s.declared || len(s.rows) > 0
}

// Filter returns the rows for which keep returns true, in snapshot order.
func (s *Snapshot) Filter(keep func(Row) bool) []Row {
	var out []Row
	for _, row := range s.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Digest returns a content hash of the schema and rows. Equal snapshots
// have equal digests; the name is not part of the content. A declared
// schema hashes differently from an identical derived one.
func (s *Snapshot) Digest() uint64 {
	d := xxhash.New()
	if s.declared {
		_, _ = d.Write([]byte{2})
	} else {
		_, _ = d.Write([]byte{3})
	}
	for _, column := range s.columns {
		_, _ = d.WriteString(column)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write([]byte{1})
	for _, row := range s.rows {
		_, _ = d.WriteString(row.Key)
		_, _ = d.Write([]byte{0})
		for _, name := range row.FieldNames() {
			value := row.fields[name]
			_, _ = d.WriteString(name)
			_, _ = d.Write([]byte{0, byte(value.kind)})
			switch value.kind {
			case KindString:
				_, _ = d.WriteString(value.str)
			case KindNumber:
				_, _ = d.WriteString(strconv.FormatUint(math.Float64bits(value.num), 16))
			}
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.Write([]byte{1})
	}
	return d.Sum64()
}
