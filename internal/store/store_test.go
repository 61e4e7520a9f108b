package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

var valueComparer = cmp.Comparer(func(a, b snapshot.Value) bool { return a.Equal(b) })

func sampleLog(label string) *changelog.Log {
	return changelog.New(label, []changelog.Record{
		changelog.NewIncorporationRecord("K3", snapshot.String("Gamma"), label),
		changelog.DeregisteredRecord("K1", snapshot.Null(), label),
		changelog.FieldUpdateRecord("K2", "CompanyStatus", snapshot.String("Active"), snapshot.String("Strike Off"), label),
		changelog.FieldUpdateRecord("K2", "PaidupCapital", snapshot.Number(1500.5), snapshot.Null(), label),
	})
}

func openAll(t *testing.T) map[Kind]Store {
	t.Helper()
	dir := t.TempDir()
	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[Kind]Store{
		KindJSON:   NewJSON(filepath.Join(dir, "json")),
		KindYAML:   NewYAML(filepath.Join(dir, "yaml")),
		KindSQLite: sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openAll(t) {
		t.Run(string(kind), func(t *testing.T) {
			want := sampleLog("Day 2")
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx, "Day 2")
			require.NoError(t, err)
			assert.Equal(t, "Day 2", got.Label())
			if diff := cmp.Diff(want.Records(), got.Records(), valueComparer); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			// Kinds survive: the capital stays a number, the null stays null.
			assert.Equal(t, snapshot.KindNumber, got.Record(3).OldValue.Kind())
			assert.True(t, got.Record(1).OldValue.IsNull())
		})
	}
}

func TestStoreReplaceAndLabels(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openAll(t) {
		t.Run(string(kind), func(t *testing.T) {
			require.NoError(t, s.Save(ctx, sampleLog("Day 3")))
			require.NoError(t, s.Save(ctx, sampleLog("Day 2")))
			require.NoError(t, s.Save(ctx, changelog.New("Day 2", sampleLog("Day 2").Records()[:1])))

			labels, err := s.Labels(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Day 2", "Day 3"}, labels)

			got, err := s.Load(ctx, "Day 2")
			require.NoError(t, err)
			assert.Equal(t, 1, got.Len())
		})
	}
}

func TestStoreMissingLabel(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openAll(t) {
		t.Run(string(kind), func(t *testing.T) {
			_, err := s.Load(ctx, "Day 9")
			require.Error(t, err)
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestStoreRejectsBlankLabel(t *testing.T) {
	for kind, s := range openAll(t) {
		t.Run(string(kind), func(t *testing.T) {
			err := s.Save(context.Background(), changelog.New("  ", nil))
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestSQLiteKeepsWarnings(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "logs", "changes.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	log := changelog.New("first", nil, changelog.Warning{Kind: changelog.EmptySnapshotWarning, Snapshot: "old", Message: "empty"})
	require.NoError(t, s.Save(ctx, log))

	got, err := s.Load(ctx, "first")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.True(t, got.HasWarning(changelog.EmptySnapshotWarning))
}

func TestJSONFileLayout(t *testing.T) {
	dir := t.TempDir()
	s := NewJSON(dir)
	require.NoError(t, s.Save(context.Background(), sampleLog("Day 2")))

	path := filepath.Join(dir, "change_log_day2.json")
	assert.Equal(t, path, s.Path("Day 2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.HasPrefix(body, "[\n    {\n        \"Key\": \"K3\""), body)
	assert.Contains(t, body, `"Change_Type": "New Incorporation"`)
	assert.Contains(t, body, `"Old_Value": "N/A"`)
	assert.Contains(t, body, `"Date": "Day 2"`)
}

func TestEmptyFileLogLabelFromName(t *testing.T) {
	s := NewJSON(t.TempDir())
	require.NoError(t, s.Save(context.Background(), changelog.New("day4", nil)))

	labels, err := s.Labels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"day4"}, labels)
}

func TestParseKindAndOpen(t *testing.T) {
	kind, err := ParseKind("YML")
	require.NoError(t, err)
	assert.Equal(t, KindYAML, kind)

	_, err = ParseKind("postgres")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)

	s, err := Open(KindJSON, t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	assert.Equal(t, "day2", Slug(" Day 2 "))
	assert.Equal(t, "q12024", Slug("Q1/2024"))
}

func TestSortLabelsNatural(t *testing.T) {
	labels := []string{"Day 10", "Day 2", "Day 1", "baseline"}
	SortLabels(labels)
	assert.Equal(t, []string{"Day 1", "Day 2", "Day 10", "baseline"}, labels)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	s := NewJSON(t.TempDir())

	_, err := Latest(ctx, s)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, s.Save(ctx, sampleLog("Day 2")))
	require.NoError(t, s.Save(ctx, sampleLog("Day 10")))

	got, err := Latest(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "Day 10", got.Label())
}

func TestFileStoreSlugCollision(t *testing.T) {
	ctx := context.Background()
	for name, s := range map[string]*FileStore{"json": NewJSON(t.TempDir()), "yaml": NewYAML(t.TempDir())} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, sampleLog("Day 2")))

			err := s.Save(ctx, sampleLog("day-2"))
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))

			// Same label replaces the file.
			require.NoError(t, s.Save(ctx, sampleLog("Day 2")))

			got, err := s.Load(ctx, "day-2")
			require.NoError(t, err)
			assert.Equal(t, "Day 2", got.Label())
			assert.Equal(t, "Day 2", got.Record(0).Label)
		})
	}
}
