package changelog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NotAvailable is what consumers show when no log exists.
const NotAvailable = "not available"

// Summary counts records by change type. The zero Summary is unavailable,
// which is distinct from a log with zero changes.
type Summary struct {
	label  string
	counts map[ChangeType]int
}

// Summarize reduces a log to per-type counts with every type present.
// A nil log yields an unavailable summary.
func Summarize(log *Log) Summary {
	if log == nil {
		return Summary{}
	}
	counts := make(map[ChangeType]int, 3)
	for _, ct := range ChangeTypes() {
		counts[ct] = 0
	}
	for _, r := range log.records {
		counts[r.ChangeType]++
	}
	return Summary{label: log.label, counts: counts}
}

// Available reports whether the summary was computed from a log.
func (s Summary) Available() bool { return s.counts != nil }

// Label returns the label of the summarized log.
func (s Summary) Label() string { return s.label }

// Count returns the number of records of one type.
func (s Summary) Count(ct ChangeType) int { return s.counts[ct] }

// Counts returns a copy of the counts, or nil when unavailable.
func (s Summary) Counts() map[ChangeType]int {
	if s.counts == nil {
		return nil
	}
	out := make(map[ChangeType]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Total returns the number of records.
func (s Summary) Total() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// Text renders the daily summary report.
func (s Summary) Text() string {
	if !s.Available() {
		return "Daily Summary: " + NotAvailable
	}
	var b strings.Builder
	b.WriteString("Daily Summary:\n")
	fmt.Fprintf(&b, "New incorporations: %d\n", s.Count(NewIncorporation))
	fmt.Fprintf(&b, "Deregistered: %d\n", s.Count(Deregistered))
	fmt.Fprintf(&b, "Updated records: %d", s.Count(FieldUpdate))
	return b.String()
}

// String is Text.
func (s Summary) String() string { return s.Text() }

// MarshalJSON encodes the counts keyed by change-type literal, or null.
func (s Summary) MarshalJSON() ([]byte, error) {
	if !s.Available() {
		return []byte("null"), nil
	}
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[string(k)] = v
	}
	return json.Marshal(out)
}

// Tally counts the field-update records for one field by their new value.
// A nil log yields nil.
func Tally(log *Log, field string) map[string]int {
	if log == nil {
		return nil
	}
	tally := map[string]int{}
	for _, r := range log.records {
		if r.ChangeType != FieldUpdate || r.FieldChanged != field {
			continue
		}
		tally[r.NewValue.String()]++
	}
	return tally
}

// Bucket is one line of a tally in display order.
type Bucket struct {
	Value string
	Count int
}

// SortedTally orders a tally by descending count then value.
func SortedTally(tally map[string]int) []Bucket {
	buckets := make([]Bucket, 0, len(tally))
	for v, n := range tally {
		buckets = append(buckets, Bucket{Value: v, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})
	return buckets
}
