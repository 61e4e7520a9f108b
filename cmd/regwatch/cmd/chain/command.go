// Package chain provides the chain command, which reconciles an ordered
// sequence of snapshots pairwise.
package chain

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/cmd/alerts"
	"github.com/agentstation/regwatch/internal/cmd/output"
	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
	"github.com/agentstation/regwatch/pkg/reconcile"
)

// Flags holds chain command flags.
type Flags struct {
	Labels []string
	Save   bool
	Strict bool
}

// NewCommand creates the chain command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "chain <snapshot> <snapshot>...",
		GroupID: "core",
		Short:   "Reconcile consecutive snapshots",
		Long: `Chain reconciles each consecutive pair of snapshots (day1 -> day2,
day2 -> day3, ...) and saves one change log per step.

A failing step does not stop the others. A snapshot that cannot be loaded
fails only the steps on either side of it. With --strict nothing is saved
when any step fails.`,
		Example: `  regwatch chain day1.csv day2.csv day3.csv
  regwatch chain day1.csv day2.csv day3.csv --labels "Day 2,Day 3"
  regwatch chain day*.xlsx --strict`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args)
		},
	}

	cmd.Flags().StringSliceVar(&flags.Labels, "labels", nil, "labels for each step, comma separated (default: snapshot names)")
	cmd.Flags().BoolVar(&flags.Save, "save", true, "save successful change logs to the configured store")
	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "save nothing if any step fails")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, paths []string) error {
	ctx := logging.WithOperation(logging.WithLogger(cmd.Context(), app.Logger()), "chain")
	logger := logging.FromContext(ctx)

	if len(flags.Labels) > 0 && len(flags.Labels) != len(paths)-1 {
		return errors.NewValidationError("labels", strings.Join(flags.Labels, ","),
			fmt.Sprintf("need %d labels for %d snapshots", len(paths)-1, len(paths)))
	}

	chain := make([]reconcile.Labeled, len(paths))
	opts := app.IngestOptions()
	for i, path := range paths {
		s, err := ingest.LoadFile(ctx, path, opts)
		switch {
		case errors.IsCanceled(err):
			return err
		case err != nil:
			logger.Warn().Err(err).Str("file", path).Msg("Snapshot not loaded, skipping its steps")
			chain[i] = reconcile.Labeled{Label: ingest.NameOf(path), Err: err}
		default:
			chain[i] = reconcile.Labeled{Snapshot: s, Label: s.Name()}
		}
		if i > 0 && len(flags.Labels) > 0 {
			chain[i].Label = strings.TrimSpace(flags.Labels[i-1])
		}
	}

	r, err := app.Reconciler()
	if err != nil {
		return err
	}
	result := r.ReconcileChain(ctx, chain)
	chainErr := result.Err()

	if flags.Save && (chainErr == nil || !flags.Strict) {
		st, err := app.Store()
		if err != nil {
			return err
		}
		for _, log := range result.Logs() {
			if err := st.Save(ctx, log); err != nil {
				return fmt.Errorf("save change log %q: %w", log.Label(), err)
			}
			logger.Info().Str("label", log.Label()).Int("records", log.Len()).Msg("Saved change log")
		}
	} else if flags.Save {
		logger.Warn().Int("failed", len(result.Failed())).Msg("Strict mode: no change logs saved")
	}

	if err := output.Write(cmd.OutOrStdout(), app.OutputFormat(), output.ChainView{Result: result}); err != nil {
		return err
	}
	if err := alerts.WriteAll(alerts.NewWriter(cmd.ErrOrStderr(), app.NoColor()), alerts.ForChain(result)); err != nil {
		return err
	}
	return chainErr
}
