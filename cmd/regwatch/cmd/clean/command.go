// Package clean provides the clean command, which merges per-state
// registry files into one deduplicated master snapshot.
package clean

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/cmd/emoji"
	"github.com/agentstation/regwatch/internal/cmd/output"
	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
)

// Flags holds clean command flags.
type Flags struct {
	Output string
	Name   string
}

// Result reports a clean run.
type Result struct {
	ingest.Report `yaml:",inline"`
	Files         int    `json:"files" yaml:"files"`
	Output        string `json:"output" yaml:"output"`
}

// TableData implements output.Tabular.
func (r Result) TableData(bool) output.Data {
	return output.Data{
		Title:           fmt.Sprintf("%s Cleaned %d files into %s", emoji.Success, r.Files, r.Output),
		Headers:         []string{"Rows", "Duplicates", "Kept"},
		Rows:            [][]string{{fmt.Sprint(r.Rows), fmt.Sprint(r.Duplicates), fmt.Sprint(r.Kept)}},
		ColumnAlignment: []output.Align{output.AlignRight, output.AlignRight, output.AlignRight},
	}
}

// NewCommand creates the clean command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "clean <file>...",
		GroupID: "core",
		Short:   "Merge and clean registry files into a master snapshot",
		Long: `Clean concatenates registry files (CSV or XLSX), keeps the first row for
each key, fills missing values with the configured defaults and writes
the master snapshot as CSV.

Default fills: AuthorizedCapital and PaidupCapital become 0 and a missing
CompanyStatus becomes Unknown. Override them with fill_defaults.`,
		Example: `  regwatch clean mh.csv dl.csv ka.xlsx -O master.csv
  regwatch clean states/*.csv -O -    # Write to stdout`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "out", "O", "cleaned_master.csv", `master CSV path ("-" for stdout)`)
	cmd.Flags().StringVar(&flags.Name, "name", "", "snapshot name recorded in logs (default: first file name)")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, paths []string) error {
	ctx := logging.WithOperation(logging.WithLogger(cmd.Context(), app.Logger()), "clean")
	logger := logging.FromContext(ctx)
	keyField := app.Fields().Key

	opts := app.IngestOptions()
	opts.Name = flags.Name
	merged, err := ingest.LoadFiles(ctx, paths, opts)
	if err != nil {
		return err
	}

	cleaned, report := ingest.Clean(merged, app.Fills())
	logger.Info().
		Int("rows", report.Rows).
		Int("duplicates", report.Duplicates).
		Int("kept", report.Kept).
		Msg("Cleaned registry snapshot")

	if flags.Output == "-" {
		return ingest.WriteCSV(cmd.OutOrStdout(), cleaned, keyField)
	}
	if err := writeFile(flags.Output, func(w io.Writer) error {
		return ingest.WriteCSV(w, cleaned, keyField)
	}); err != nil {
		return err
	}

	result := Result{Report: report, Files: len(paths), Output: flags.Output}
	return output.Write(cmd.OutOrStdout(), app.OutputFormat(), result)
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}
