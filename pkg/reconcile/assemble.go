package reconcile

import (
	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/differ"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// Assemble turns differ output into a log. Records come in three fixed
// sections: additions in the order of added, removals in the order of
// removed, then field updates in differ order. Every record carries label.
func Assemble(added, removed []string, changes []differ.FieldChange, existing, updated *snapshot.Index, nameField, label string, warnings ...changelog.Warning) *changelog.Log {
	records := make([]changelog.Record, 0, len(added)+len(removed)+len(changes))

	for _, key := range added {
		records = append(records, changelog.NewIncorporationRecord(key, updated.Value(key, nameField), label))
	}
	for _, key := range removed {
		records = append(records, changelog.DeregisteredRecord(key, existing.Value(key, nameField), label))
	}
	for _, c := range changes {
		records = append(records, changelog.FieldUpdateRecord(c.Key, c.Field, c.OldValue, c.NewValue, label))
	}

	return changelog.New(label, records, warnings...)
}
