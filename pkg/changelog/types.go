package changelog

import (
	"fmt"

	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// ChangeType classifies one change record.
type ChangeType string

// Change types, serialized with the literals consumers already parse.
const (
	NewIncorporation ChangeType = "New Incorporation" // Key only in the new snapshot
	Deregistered     ChangeType = "Deregistered"      // Key only in the old snapshot
	FieldUpdate      ChangeType = "Field Update"      // Watched field changed for a common key
)

// ChangeTypes returns every change type in section order.
func ChangeTypes() []ChangeType {
	return []ChangeType{NewIncorporation, Deregistered, FieldUpdate}
}

// String returns the serialized literal.
func (c ChangeType) String() string { return string(c) }

// IsValid reports whether c is one of the known change types.
func (c ChangeType) IsValid() bool {
	switch c {
	case NewIncorporation, Deregistered, FieldUpdate:
		return true
	}
	return false
}

// ParseChangeType converts a serialized literal into a ChangeType.
func ParseChangeType(s string) (ChangeType, error) {
	c := ChangeType(s)
	if !c.IsValid() {
		return "", errors.NewValidationError("Change_Type", s, "unknown change type")
	}
	return c, nil
}

// UnmarshalText rejects unknown literals.
func (c *ChangeType) UnmarshalText(text []byte) error {
	parsed, err := ParseChangeType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText returns the serialized literal.
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

// Record is one atomic entry in a change log.
type Record struct {
	Key          string         `json:"Key" yaml:"Key"`
	ChangeType   ChangeType     `json:"Change_Type" yaml:"Change_Type"`
	FieldChanged string         `json:"Field_Changed" yaml:"Field_Changed"`
	OldValue     snapshot.Value `json:"Old_Value" yaml:"Old_Value"`
	NewValue     snapshot.Value `json:"New_Value" yaml:"New_Value"`
	Label        string         `json:"Date" yaml:"Date"`
}

// NewIncorporationRecord builds the record for a key that appeared.
func NewIncorporationRecord(key string, name snapshot.Value, label string) Record {
	return Record{
		Key:          key,
		ChangeType:   NewIncorporation,
		FieldChanged: constants.NotApplicable,
		OldValue:     snapshot.String(constants.NotApplicable),
		NewValue:     name,
		Label:        label,
	}
}

// DeregisteredRecord builds the record for a key that disappeared.
func DeregisteredRecord(key string, name snapshot.Value, label string) Record {
	return Record{
		Key:          key,
		ChangeType:   Deregistered,
		FieldChanged: constants.NotApplicable,
		OldValue:     name,
		NewValue:     snapshot.String(constants.NotApplicable),
		Label:        label,
	}
}

// FieldUpdateRecord builds the record for one changed watched field.
func FieldUpdateRecord(key, field string, oldValue, newValue snapshot.Value, label string) Record {
	return Record{
		Key:          key,
		ChangeType:   FieldUpdate,
		FieldChanged: field,
		OldValue:     oldValue,
		NewValue:     newValue,
		Label:        label,
	}
}

// String renders the record on one line.
func (r Record) String() string {
	switch r.ChangeType {
	case FieldUpdate:
		return fmt.Sprintf("%s %s: %s %q -> %q", r.ChangeType, r.Key, r.FieldChanged, r.OldValue, r.NewValue)
	case Deregistered:
		return fmt.Sprintf("%s %s (%s)", r.ChangeType, r.Key, r.OldValue)
	default:
		return fmt.Sprintf("%s %s (%s)", r.ChangeType, r.Key, r.NewValue)
	}
}

// Validate checks that the record is well formed.
func (r Record) Validate() error {
	if r.Key == "" {
		return errors.NewValidationError("Key", r.Key, "cannot be empty")
	}
	if !r.ChangeType.IsValid() {
		return errors.NewValidationError("Change_Type", string(r.ChangeType), "unknown change type")
	}
	if r.ChangeType == FieldUpdate && (r.FieldChanged == "" || r.FieldChanged == constants.NotApplicable) {
		return errors.NewValidationError("Field_Changed", r.FieldChanged, "field update must name a field")
	}
	return nil
}

// WarningKind classifies a non-fatal condition found during a run.
type WarningKind string

// Warning kinds.
const (
	// EmptySnapshotWarning marks a run where one side had no rows and no
	// declared columns, so its schema could not be checked.
	EmptySnapshotWarning WarningKind = "empty_snapshot"
)

// Warning is a non-fatal condition attached to a log.
type Warning struct {
	Kind     WarningKind `json:"kind" yaml:"kind"`
	Snapshot string      `json:"snapshot" yaml:"snapshot"`
	Message  string      `json:"message" yaml:"message"`
}

// String renders the warning.
func (w Warning) String() string {
	if w.Snapshot == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s (%s snapshot): %s", w.Kind, w.Snapshot, w.Message)
}
