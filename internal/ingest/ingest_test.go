package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

const sampleCSV = "\xEF\xBB\xBFCIN,CompanyName,CompanyStatus,PaidupCapital\n" +
	"\n" +
	"U1, Alpha Ltd ,Active,\"1,000\"\n" +
	"U2,Beta Ltd,,\n" +
	",,,\n" +
	"U1,Alpha Again,Active,5\n"

var numberTypes = map[string]snapshot.FieldType{"PaidupCapital": snapshot.FieldTypeNumber}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "day1.csv", sampleCSV)

	s, err := LoadFile(context.Background(), path, Options{FieldTypes: numberTypes})
	require.NoError(t, err)

	assert.Equal(t, "day1", s.Name())
	assert.Equal(t, []string{"CompanyName", "CompanyStatus", "PaidupCapital"}, s.Columns())
	require.Equal(t, 3, s.Len())

	first := s.Row(0)
	assert.Equal(t, "U1", first.Key)
	assert.Equal(t, snapshot.String("Alpha Ltd"), first.Get("CompanyName"))
	assert.Equal(t, snapshot.Number(1000), first.Get("PaidupCapital"))

	second := s.Row(1)
	assert.True(t, second.Get("CompanyStatus").IsNull())
	assert.True(t, second.Get("PaidupCapital").IsNull())
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "bad number",
			content: "CIN,PaidupCapital\nU1,lots\n",
			check: func(t *testing.T, err error) {
				var pe *errors.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, 2, pe.Line)
				assert.Equal(t, "PaidupCapital", pe.Column)
			},
		},
		{
			name:    "missing key column",
			content: "Name,Status\nA,B\n",
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsSchemaError(err))
			},
		},
		{
			name:    "empty key",
			content: "CIN,Name\n,A\n",
			check: func(t *testing.T, err error) {
				var pe *errors.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "CIN", pe.Column)
			},
		},
		{
			name:    "no header",
			content: "\n\n",
			check: func(t *testing.T, err error) {
				var pe *errors.ParseError
				assert.ErrorAs(t, err, &pe)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.content), FormatCSV, "in.csv", Options{FieldTypes: numberTypes})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := LoadFile(context.Background(), "snapshot.parquet", Options{})
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"CIN", "CompanyName", "PaidupCapital"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"U1", "Alpha", 250}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"U2", "Beta"}))

	path := filepath.Join(t.TempDir(), "day2.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := LoadFile(context.Background(), path, Options{FieldTypes: numberTypes})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, snapshot.Number(250), s.Row(0).Get("PaidupCapital"))
	assert.True(t, s.Row(1).Get("PaidupCapital").IsNull())
}

func TestLoadFilesMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "delhi.csv", "CIN,CompanyStateCode\nD1,DL\nD2,DL\n")
	b := writeFile(t, dir, "mh.csv", "CIN,CompanyStateCode,CompanyStatus\nM1,MH,Active\nD1,MH,Active\n")

	s, err := LoadFiles(context.Background(), []string{a, b}, Options{Name: "master"})
	require.NoError(t, err)
	assert.Equal(t, "master", s.Name())
	assert.Equal(t, []string{"CompanyStateCode", "CompanyStatus"}, s.Columns())

	keys := make([]string, 0, s.Len())
	for _, r := range s.Rows() {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"D1", "D2", "M1", "D1"}, keys)

	_, err = LoadFiles(context.Background(), []string{a, filepath.Join(dir, "missing.csv")}, Options{})
	assert.Error(t, err)
}

func TestCleanKeepsFirstAndFills(t *testing.T) {
	s, err := Load(strings.NewReader(sampleCSV), FormatCSV, "in.csv", Options{FieldTypes: numberTypes})
	require.NoError(t, err)

	cleaned, report := Clean(s, DefaultFills())
	assert.Equal(t, Report{Rows: 3, Duplicates: 1, Kept: 2}, report)

	assert.Equal(t, snapshot.String("Alpha Ltd"), cleaned.Row(0).Get("CompanyName"))
	assert.Equal(t, snapshot.String("Unknown"), cleaned.Row(1).Get("CompanyStatus"))
	assert.Equal(t, snapshot.Number(0), cleaned.Row(1).Get("PaidupCapital"))
	assert.Equal(t, snapshot.Number(0), cleaned.Row(1).Get("AuthorizedCapital"))

	// The input is untouched.
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Row(1).Get("CompanyStatus").IsNull())
}

func TestWriteCSV(t *testing.T) {
	s, err := Load(strings.NewReader(sampleCSV), FormatCSV, "in.csv", Options{FieldTypes: numberTypes})
	require.NoError(t, err)
	deduped, _ := Dedupe(s)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, deduped, "CIN"))
	assert.Equal(t,
		"CIN,CompanyName,CompanyStatus,PaidupCapital\nU1,Alpha Ltd,Active,1000\nU2,Beta Ltd,,\n",
		buf.String())

	reloaded, err := Load(&buf, FormatCSV, "out.csv", Options{FieldTypes: numberTypes})
	require.NoError(t, err)
	assert.Equal(t, deduped.Digest(), reloaded.Digest())
}
