package ingest

import (
	"encoding/csv"
	"io"

	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// DefaultFills are the null replacements applied to a master dataset:
// missing capital amounts become zero and a missing status becomes Unknown.
func DefaultFills() map[string]snapshot.Value {
	return map[string]snapshot.Value{
		constants.AuthorizedCapitalField: snapshot.Number(0),
		constants.PaidupCapitalField:     snapshot.Number(0),
		constants.StatusField:            snapshot.String(constants.StatusUnknown),
	}
}

// Merge concatenates the rows of several snapshots in argument order. The
// schema is the union of their columns in first-seen order.
func Merge(snapshots ...*snapshot.Snapshot) *snapshot.Snapshot {
	var (
		rows    []snapshot.Row
		columns []string
		seen    = map[string]bool{}
	)
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		rows = append(rows, s.Rows()...)
		for _, c := range s.Columns() {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	return snapshot.New(rows, snapshot.WithColumns(columns...))
}

// Dedupe keeps the first row for each key and reports how many were dropped.
func Dedupe(s *snapshot.Snapshot) (*snapshot.Snapshot, int) {
	seen := make(map[string]bool, s.Len())
	kept := s.Filter(func(r snapshot.Row) bool {
		if seen[r.Key] {
			return false
		}
		seen[r.Key] = true
		return true
	})
	return s.Derive(kept), s.Len() - len(kept)
}

// FillNulls returns a snapshot where null values of the listed columns are
// replaced. The input is not modified.
func FillNulls(s *snapshot.Snapshot, fills map[string]snapshot.Value) *snapshot.Snapshot {
	rows := s.Rows()
	for i, r := range rows {
		for field, fill := range fills {
			if r.Get(field).IsNull() {
				r = r.With(field, fill)
			}
		}
		rows[i] = r
	}
	return s.Derive(rows)
}

// Report describes what Clean changed.
type Report struct {
	Rows       int `json:"rows" yaml:"rows"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Kept       int `json:"kept" yaml:"kept"`
}

// Clean dedupes s by key and fills nulls.
func Clean(s *snapshot.Snapshot, fills map[string]snapshot.Value) (*snapshot.Snapshot, Report) {
	deduped, dropped := Dedupe(s)
	cleaned := FillNulls(deduped, fills)
	return cleaned, Report{Rows: s.Len(), Duplicates: dropped, Kept: cleaned.Len()}
}

// WriteCSV writes s with keyField as the first column. Nulls are written as
// empty cells.
func WriteCSV(w io.Writer, s *snapshot.Snapshot, keyField string) error {
	if keyField == "" {
		keyField = constants.DefaultKeyField
	}
	cw := csv.NewWriter(w)
	columns := s.Columns()

	header := append([]string{keyField}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for i := 0; i < s.Len(); i++ {
		r := s.Row(i)
		record[0] = r.Key
		for j, c := range columns {
			record[j+1] = r.Get(c).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
