// Package summary provides the summary command.
package summary

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/cmd/output"
	"github.com/agentstation/regwatch/internal/store"
	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
)

// NewCommand creates the summary command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:     "summary [label]",
		GroupID: "core",
		Short:   "Show the daily summary of a saved change log",
		Long: `Summary counts the records of a saved change log per change type.
Without a label the latest saved log is used. A missing log is reported
as not available rather than as zero counts.`,
		Example: `  regwatch summary            # Latest change log
  regwatch summary "Day 2"    # A specific label
  regwatch summary --text     # Plain daily summary text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 1 {
				label = args[0]
			}
			ctx := logging.WithOperation(logging.WithLogger(cmd.Context(), app.Logger()), "summary")

			st, err := app.Store()
			if err != nil {
				return err
			}
			log, err := store.Resolve(ctx, st, label)
			if err != nil && !errors.IsNotFound(err) {
				return err
			}
			if err != nil {
				app.Logger().Debug().Err(err).Msg("No change log to summarize")
			}

			s := changelog.Summarize(log)
			if text {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), s.Text())
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), output.SummaryView{Summary: s})
		},
	}

	cmd.Flags().BoolVar(&text, "text", false, "print the plain text summary")

	return cmd
}
