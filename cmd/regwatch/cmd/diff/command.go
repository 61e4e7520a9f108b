// Package diff provides the diff command, which reconciles two snapshot
// files into one change log.
package diff

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/cmd/alerts"
	"github.com/agentstation/regwatch/internal/cmd/output"
	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/logging"
)

// Flags holds diff command flags.
type Flags struct {
	Label   string
	Save    bool
	Summary bool
}

// NewCommand creates the diff command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "diff <old-snapshot> <new-snapshot>",
		GroupID: "core",
		Short:   "Reconcile two registry snapshots",
		Long: `Diff compares an old and a new registry snapshot (CSV or XLSX) and
produces the change log: new incorporations, deregistrations and field
updates of the watched fields, in that order.

The label defaults to the new snapshot's file name and is written into
every record's Date field.`,
		Example: `  regwatch diff day1.csv day2.csv                 # Print the change log
  regwatch diff day1.csv day2.csv --label "Day 2" # Set the label
  regwatch diff day1.xlsx day2.xlsx --save=false  # Do not persist
  regwatch diff day1.csv day2.csv -o json         # Records array as JSON`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&flags.Label, "label", "l", "", "label for this change log (default: new snapshot name)")
	cmd.Flags().BoolVar(&flags.Save, "save", true, "save the change log to the configured store")
	cmd.Flags().BoolVar(&flags.Summary, "summary", false, "print only the daily summary")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, oldPath, newPath string) error {
	ctx := logging.WithOperation(logging.WithLogger(cmd.Context(), app.Logger()), "diff")
	logger := logging.FromContext(ctx)

	opts := app.IngestOptions()
	existing, err := ingest.LoadFile(ctx, oldPath, opts)
	if err != nil {
		return err
	}
	updated, err := ingest.LoadFile(ctx, newPath, opts)
	if err != nil {
		return err
	}

	label := strings.TrimSpace(flags.Label)
	if label == "" {
		label = updated.Name()
	}

	r, err := app.Reconciler()
	if err != nil {
		return err
	}
	log, err := r.Reconcile(ctx, existing, updated, label)
	if err != nil {
		return fmt.Errorf("reconcile %s -> %s: %w", existing.Name(), updated.Name(), err)
	}
	if err := alerts.WriteAll(alerts.NewWriter(cmd.ErrOrStderr(), app.NoColor()), alerts.ForLog(log)); err != nil {
		return err
	}

	if flags.Save {
		st, err := app.Store()
		if err != nil {
			return err
		}
		if err := st.Save(ctx, log); err != nil {
			return fmt.Errorf("save change log %q: %w", label, err)
		}
		logger.Info().Str("label", label).Int("records", log.Len()).Msg("Saved change log")
	}

	if flags.Summary {
		return output.Write(cmd.OutOrStdout(), app.OutputFormat(), output.SummaryView{Summary: changelog.Summarize(log)})
	}
	return output.Write(cmd.OutOrStdout(), app.OutputFormat(), output.LogView{Log: log})
}
