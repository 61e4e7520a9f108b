package clean

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

func TestCleanMergesAndFills(t *testing.T) {
	dir := t.TempDir()
	mh := filepath.Join(dir, "mh.csv")
	dl := filepath.Join(dir, "dl.csv")
	require.NoError(t, os.WriteFile(mh, []byte("CIN,CompanyName,CompanyStatus,AuthorizedCapital\nU1,Alpha,,100\nU2,Beta,Active,\n"), 0o644))
	require.NoError(t, os.WriteFile(dl, []byte("CIN,CompanyName,CompanyStatus,PaidupCapital\nU2,Beta dup,Active,5\nU3,Gamma,Active,7\n"), 0o644))
	master := filepath.Join(dir, "out", "master.csv")

	mock := &appcontext.Mock{
		IngestOptionsFunc: func() ingest.Options {
			return ingest.Options{
				KeyField: "CIN",
				FieldTypes: map[string]snapshot.FieldType{
					"AuthorizedCapital": snapshot.FieldTypeNumber,
					"PaidupCapital":     snapshot.FieldTypeNumber,
				},
			}
		},
	}

	var out bytes.Buffer
	cmd := NewCommand(mock)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{mh, dl, "--out", master})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), `"duplicates": 1`)
	assert.Contains(t, out.String(), `"kept": 3`)

	written, err := os.ReadFile(master)
	require.NoError(t, err)
	assert.Equal(t,
		"CIN,CompanyName,CompanyStatus,AuthorizedCapital,PaidupCapital\n"+
			"U1,Alpha,Unknown,100,0\n"+
			"U2,Beta,Active,0,0\n"+
			"U3,Gamma,Active,0,7\n",
		string(written))
}

func TestCleanToStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.csv")
	require.NoError(t, os.WriteFile(path, []byte("CIN,CompanyName\nU1,Alpha\n"), 0o644))

	var out bytes.Buffer
	cmd := NewCommand(&appcontext.Mock{})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "-O", "-"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "CIN,CompanyName")
	assert.Contains(t, out.String(), "U1,Alpha")
}
