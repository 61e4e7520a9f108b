package changelog

import (
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// scenarioLog is the log of three records covering every section.
func scenarioLog() *Log {
	return New("Day 2", []Record{
		NewIncorporationRecord("K3", snapshot.String("Gamma Ltd"), "Day 2"),
		DeregisteredRecord("K1", snapshot.String("Alpha Ltd"), "Day 2"),
		FieldUpdateRecord("K2", "CompanyStatus", snapshot.String("Active"), snapshot.String("Strike Off"), "Day 2"),
	})
}

var valueComparer = cmp.Comparer(func(a, b snapshot.Value) bool { return a.Equal(b) })

func TestLogIsImmutable(t *testing.T) {
	records := []Record{NewIncorporationRecord("K1", snapshot.String("A"), "d")}
	log := New("d", records)

	records[0].Key = "mutated"
	assert.Equal(t, "K1", log.Record(0).Key)

	out := log.Records()
	out[0].Key = "mutated"
	assert.Equal(t, "K1", log.Record(0).Key)
}

func TestRecordConstructors(t *testing.T) {
	log := scenarioLog()
	require.Equal(t, 3, log.Len())

	added := log.Record(0)
	assert.Equal(t, NewIncorporation, added.ChangeType)
	assert.Equal(t, "N/A", added.FieldChanged)
	assert.Equal(t, snapshot.String("N/A"), added.OldValue)

	removed := log.Record(1)
	assert.Equal(t, snapshot.String("N/A"), removed.NewValue)
	assert.Equal(t, snapshot.String("Alpha Ltd"), removed.OldValue)

	assert.NoError(t, log.Validate())
}

func TestValidateSectionOrder(t *testing.T) {
	log := New("d", []Record{
		FieldUpdateRecord("K2", "CompanyStatus", snapshot.String("a"), snapshot.String("b"), "d"),
		NewIncorporationRecord("K3", snapshot.String("x"), "d"),
	})
	err := log.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestLogJSONRoundTrip(t *testing.T) {
	log := scenarioLog()

	data, err := json.Marshal(log)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Change_Type":"New Incorporation"`)
	assert.Contains(t, string(data), `"Date":"Day 2"`)

	var decoded Log
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Day 2", decoded.Label())
	if diff := cmp.Diff(log.Records(), decoded.Records(), valueComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLogJSONRejectsUnknownType(t *testing.T) {
	var decoded Log
	err := json.Unmarshal([]byte(`[{"Key":"K1","Change_Type":"Merged"}]`), &decoded)
	assert.Error(t, err)
}

func TestLogYAMLRoundTrip(t *testing.T) {
	log := New("Day 3", []Record{
		FieldUpdateRecord("K9", "PaidupCapital", snapshot.Number(100), snapshot.Null(), "Day 3"),
	})

	data, err := yaml.Marshal(log)
	require.NoError(t, err)

	var decoded Log
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	if diff := cmp.Diff(log.Records(), decoded.Records(), valueComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(scenarioLog())
	require.True(t, s.Available())
	assert.Equal(t, map[ChangeType]int{
		NewIncorporation: 1,
		Deregistered:     1,
		FieldUpdate:      1,
	}, s.Counts())
	assert.Equal(t, 3, s.Total())
	assert.Equal(t, "Daily Summary:\nNew incorporations: 1\nDeregistered: 1\nUpdated records: 1", s.Text())
}

func TestSummarizeEmptyIsZeroFilled(t *testing.T) {
	s := Summarize(New("d", nil))
	assert.True(t, s.Available())
	assert.Len(t, s.Counts(), 3)
	assert.Equal(t, 0, s.Count(FieldUpdate))
}

func TestSummarizeNil(t *testing.T) {
	s := Summarize(nil)
	assert.False(t, s.Available())
	assert.Nil(t, s.Counts())
	assert.Contains(t, s.Text(), NotAvailable)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestTally(t *testing.T) {
	log := New("d", []Record{
		FieldUpdateRecord("K1", "CompanyStatus", snapshot.String("Active"), snapshot.String("Strike Off"), "d"),
		FieldUpdateRecord("K2", "CompanyStatus", snapshot.String("Active"), snapshot.String("Strike Off"), "d"),
		FieldUpdateRecord("K3", "CompanyStatus", snapshot.String("Strike Off"), snapshot.String("Active"), "d"),
		FieldUpdateRecord("K4", "PaidupCapital", snapshot.Number(1), snapshot.Number(2), "d"),
	})

	tally := Tally(log, "CompanyStatus")
	assert.Equal(t, map[string]int{"Strike Off": 2, "Active": 1}, tally)
	assert.Equal(t, []Bucket{{"Strike Off", 2}, {"Active", 1}}, SortedTally(tally))
	assert.Nil(t, Tally(nil, "CompanyStatus"))
}

func TestParseChangeType(t *testing.T) {
	ct, err := ParseChangeType("Deregistered")
	require.NoError(t, err)
	assert.Equal(t, Deregistered, ct)

	_, err = ParseChangeType("deregistered")
	assert.True(t, errors.IsValidationError(err))
}

func TestLogHelpers(t *testing.T) {
	log := New("d", scenarioLog().Records(), Warning{Kind: EmptySnapshotWarning, Snapshot: "old", Message: "no rows"})

	assert.True(t, log.HasWarning(EmptySnapshotWarning))
	assert.Equal(t, []string{"K3", "K1", "K2"}, log.Keys())
	assert.Len(t, log.ByType(FieldUpdate), 1)
	assert.Equal(t, "other", log.WithLabel("other").Label())
	assert.Equal(t, "empty_snapshot (old snapshot): no rows", log.Warnings()[0].String())
}
