package reconcile

import (
	"fmt"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// side names one input of a run in errors and warnings.
type side struct {
	name     string
	snapshot *snapshot.Snapshot
}

// checkSchema verifies both snapshots carry the fields a run reads. A side
// with no rows and no declared columns cannot be checked and yields a
// warning instead.
func (r *reconciler) checkSchema(existing, updated *snapshot.Snapshot) ([]changelog.Warning, error) {
	var warnings []changelog.Warning
	sides := []side{{"old", existing}, {"new", updated}}

	for _, s := range sides {
		if !s.snapshot.SchemaKnown() {
			warnings = append(warnings, changelog.Warning{
				Kind:     changelog.EmptySnapshotWarning,
				Snapshot: s.name,
				Message:  "snapshot has no rows and no declared columns",
			})
			continue
		}

		if s.name == "new" && !s.snapshot.HasColumn(r.nameField) {
			return nil, errors.NewSchemaError(s.name, r.nameField, "name field is missing")
		}
		for _, field := range r.watched {
			if !s.snapshot.HasColumn(field) {
				return nil, errors.NewSchemaError(s.name, field, "watched field is missing")
			}
		}
		if err := r.checkKinds(s); err != nil {
			return nil, err
		}
	}
	return warnings, nil
}

// checkKinds verifies every non-null watched value matches its declared type.
func (r *reconciler) checkKinds(s side) error {
	if len(r.fieldTypes) == 0 {
		return nil
	}
	for i := 0; i < s.snapshot.Len(); i++ {
		row := s.snapshot.Row(i)
		for _, field := range r.watched {
			ft, declared := r.fieldTypes[field]
			if !declared {
				continue
			}
			v := row.Get(field)
			if v.IsNull() || v.Kind() == ft.Kind() {
				continue
			}
			return errors.NewSchemaError(s.name, field,
				fmt.Sprintf("row %d (key %s) holds a %s, declared %s", i, row.Key, v.Kind(), ft))
		}
	}
	return nil
}
