package snapshot

import (
	"fmt"
	"strings"
)

// FieldType is the declared semantic type of a column.
type FieldType string

const (
	// FieldTypeString columns hold text.
	FieldTypeString FieldType = "string"
	// FieldTypeNumber columns hold numbers (capital amounts).
	FieldTypeNumber FieldType = "number"
)

// Kind returns the Value kind that non-null cells of this type must have.
func (t FieldType) Kind() Kind {
	if t == FieldTypeNumber {
		return KindNumber
	}
	return KindString
}

// ParseFieldType parses "string", "text", "number", "float" or "int".
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text", "str":
		return FieldTypeString, nil
	case "number", "float", "int", "integer", "numeric":
		return FieldTypeNumber, nil
	default:
		return "", fmt.Errorf("unknown field type %q", s)
	}
}
