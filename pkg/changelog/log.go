// Package changelog holds the output of a reconciliation run: typed change
// records, the immutable log that orders them, and the summary reductions
// that downstream consumers use instead of re-deriving diffs.
package changelog

import (
	"encoding/json"

	"github.com/agentstation/regwatch/pkg/errors"
)

// Log is the ordered record list of one run. It is never mutated after
// construction and can be shared freely between readers.
type Log struct {
	label    string
	records  []Record
	warnings []Warning
}

// New builds a log. Records and warnings are copied.
func New(label string, records []Record, warnings ...Warning) *Log {
	l := &Log{
		label:    label,
		records:  make([]Record, len(records)),
		warnings: make([]Warning, len(warnings)),
	}
	copy(l.records, records)
	copy(l.warnings, warnings)
	return l
}

// Label returns the run label.
func (l *Log) Label() string { return l.label }

// Len returns the number of records.
func (l *Log) Len() int { return len(l.records) }

// IsEmpty reports whether the run found no changes.
func (l *Log) IsEmpty() bool { return len(l.records) == 0 }

// Record returns the i-th record.
func (l *Log) Record(i int) Record { return l.records[i] }

// Records returns a copy of the records in section order.
func (l *Log) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Warnings returns a copy of the non-fatal warnings.
func (l *Log) Warnings() []Warning {
	out := make([]Warning, len(l.warnings))
	copy(out, l.warnings)
	return out
}

// HasWarning reports whether a warning of the given kind is attached.
func (l *Log) HasWarning(kind WarningKind) bool {
	for _, w := range l.warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// ByType returns the records of one change type in log order.
func (l *Log) ByType(ct ChangeType) []Record {
	out := []Record{}
	for _, r := range l.records {
		if r.ChangeType == ct {
			out = append(out, r)
		}
	}
	return out
}

// Keys returns the distinct keys touched by the log in first-seen order.
func (l *Log) Keys() []string {
	seen := make(map[string]struct{}, len(l.records))
	keys := []string{}
	for _, r := range l.records {
		if _, ok := seen[r.Key]; ok {
			continue
		}
		seen[r.Key] = struct{}{}
		keys = append(keys, r.Key)
	}
	return keys
}

// Validate checks every record and that records appear in section order.
func (l *Log) Validate() error {
	last := 0
	rank := map[ChangeType]int{NewIncorporation: 0, Deregistered: 1, FieldUpdate: 2}
	for i, r := range l.records {
		if err := r.Validate(); err != nil {
			return err
		}
		if rank[r.ChangeType] < last {
			return errors.NewValidationError("records", i, "record out of section order")
		}
		last = rank[r.ChangeType]
	}
	return nil
}

// MarshalJSON encodes the log as its records array.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.records)
}

// UnmarshalJSON decodes a records array. The label is taken from the
// first record's Date.
func (l *Log) UnmarshalJSON(data []byte) error {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	*l = *New(labelOf(records), records)
	return nil
}

// MarshalYAML encodes the log as its records sequence.
func (l *Log) MarshalYAML() (any, error) {
	return l.records, nil
}

// UnmarshalYAML decodes a records sequence.
func (l *Log) UnmarshalYAML(unmarshal func(any) error) error {
	var records []Record
	if err := unmarshal(&records); err != nil {
		return err
	}
	*l = *New(labelOf(records), records)
	return nil
}

// WithLabel returns a copy of l carrying label. Record labels are unchanged.
func (l *Log) WithLabel(label string) *Log {
	return New(label, l.records, l.warnings...)
}

func labelOf(records []Record) string {
	if len(records) == 0 {
		return ""
	}
	return records[0].Label
}
