package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

func testLog() *changelog.Log {
	return changelog.New("Day 3", []changelog.Record{
		changelog.NewIncorporationRecord("K3", snapshot.String("Gamma"), "Day 3"),
		changelog.NewIncorporationRecord("K4", snapshot.String("Delta"), "Day 3"),
		changelog.DeregisteredRecord("K1", snapshot.String("Alpha"), "Day 3"),
		changelog.FieldUpdateRecord("K2", "CompanyStatus", snapshot.String("Active"), snapshot.String("Strike Off"), "Day 3"),
		changelog.FieldUpdateRecord("K5", "PaidupCapital", snapshot.Number(1), snapshot.Number(2), "Day 3"),
	})
}

func testSnapshot() *snapshot.Snapshot {
	var rows []snapshot.Row
	for i, state := range []string{"DL", "MH", "DL", "KA", "DL", "DL", "DL", "DL"} {
		rows = append(rows, snapshot.NewRow(
			string(rune('A'+i)),
			map[string]snapshot.Value{"CompanyStateCode": snapshot.String(state)},
		))
	}
	return snapshot.New(rows)
}

func TestParse(t *testing.T) {
	tests := []struct {
		prompt string
		want   Intent
	}{
		{"How many new incorporations?", NewIncorporations{}},
		{"how many companies were struck off", StruckOff{}},
		{"anything deregistered today", StruckOff{}},
		{"Show companies in Delhi", CompaniesInState{State: "DELHI"}},
		{"show companies in  dl ", CompaniesInState{State: "DL"}},
		{"show companies in", Help{}},
		{"what is the weather", Help{}},
		{"", Help{}},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.prompt))
		})
	}
}

func TestNewIncorporations(t *testing.T) {
	a := Ask("how many new incorporations", Source{Log: testLog()})
	assert.True(t, a.Available)
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, "There were 2 new incorporations in the Day 3 update.", a.Text)
}

func TestStruckOff(t *testing.T) {
	a := StruckOff{}.Answer(Source{Log: testLog()})
	assert.True(t, a.Available)
	assert.Equal(t, 1, a.Count)
	assert.Contains(t, a.Text, "'Strike Off'")
}

func TestCompaniesInState(t *testing.T) {
	a := CompaniesInState{State: "DL"}.Answer(Source{Snapshot: testSnapshot()})
	assert.True(t, a.Available)
	assert.Equal(t, 6, a.Count)
	require.Len(t, a.Rows, DefaultPreview)
	assert.Equal(t, "A", a.Rows[0].Key)

	a = CompaniesInState{State: "TN"}.Answer(Source{Snapshot: testSnapshot(), Preview: 2})
	assert.Equal(t, 0, a.Count)
	assert.Equal(t, "Found 0 companies in TN.", a.Text)
}

func TestMissingDataIsNotAvailable(t *testing.T) {
	for _, intent := range []Intent{NewIncorporations{}, StruckOff{}, CompaniesInState{State: "DL"}} {
		t.Run(string(intent.Kind()), func(t *testing.T) {
			a := intent.Answer(Source{})
			assert.False(t, a.Available)
			assert.Zero(t, a.Count)
			assert.Contains(t, a.Text, changelog.NotAvailable)
		})
	}
}

func TestHelp(t *testing.T) {
	a := Ask("hello", Source{})
	assert.Equal(t, KindHelp, a.Kind)
	assert.True(t, a.Available)
	assert.Contains(t, a.Text, "show companies in [State]")
}
