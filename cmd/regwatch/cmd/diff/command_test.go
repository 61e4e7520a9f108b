package diff

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/store"
	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/errors"
)

func setup(t *testing.T) (*appcontext.Mock, store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"old.csv": "CIN,CompanyName,CompanyStatus,AuthorizedCapital,PaidupCapital\nU1,Alpha,Active,100,50\nU2,Beta,Active,10,5\n",
		"new.csv": "CIN,CompanyName,CompanyStatus,AuthorizedCapital,PaidupCapital\nU1,Alpha,Active,150,50\nU3,Gamma,Active,1,1\n",
		"bad.csv": "CIN,CompanyName,CompanyStatus\nU1,Alpha,Active\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	mock := &appcontext.Mock{
		StoreFunc: func() (store.Store, error) { return st, nil },
	}
	return mock, st, dir
}

func execute(t *testing.T, mock *appcontext.Mock, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCommand(mock)
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDiffSavesLog(t *testing.T) {
	mock, st, dir := setup(t)

	out, err := execute(t, mock, filepath.Join(dir, "old.csv"), filepath.Join(dir, "new.csv"), "--label", "Day 2")
	require.NoError(t, err)
	assert.Contains(t, out, `"Change_Type": "New Incorporation"`)

	log, err := st.Load(context.Background(), "Day 2")
	require.NoError(t, err)
	summary := changelog.Summarize(log)
	assert.Equal(t, 1, summary.Count(changelog.NewIncorporation))
	assert.Equal(t, 1, summary.Count(changelog.Deregistered))
	assert.Equal(t, 1, summary.Count(changelog.FieldUpdate))
}

func TestDiffDefaultLabelAndNoSave(t *testing.T) {
	mock, st, dir := setup(t)

	out, err := execute(t, mock, filepath.Join(dir, "old.csv"), filepath.Join(dir, "new.csv"), "--save=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"Date": "new"`)

	labels, err := st.Labels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestDiffSummaryOnly(t *testing.T) {
	mock, _, dir := setup(t)

	out, err := execute(t, mock, filepath.Join(dir, "old.csv"), filepath.Join(dir, "new.csv"), "--summary", "--save=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"available": true`)
	assert.NotContains(t, out, "Change_Type")
}

func TestDiffSchemaError(t *testing.T) {
	mock, _, dir := setup(t)

	_, err := execute(t, mock, filepath.Join(dir, "old.csv"), filepath.Join(dir, "bad.csv"))
	assert.True(t, errors.IsSchemaError(err), "got %v", err)
}
