// Package ask provides the ask command, a keyword question interface over
// saved change logs and a registry snapshot.
package ask

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/cmd/output"
	"github.com/agentstation/regwatch/internal/ingest"
	"github.com/agentstation/regwatch/internal/store"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
	"github.com/agentstation/regwatch/pkg/query"
)

// Flags holds ask command flags.
type Flags struct {
	Label    string
	Snapshot string
	Preview  int
}

// NewCommand creates the ask command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "ask <question>",
		GroupID: "core",
		Short:   "Answer a question about registry changes",
		Long: `Ask answers one of a fixed set of questions:

  how many new incorporations     - from the change log
  how many companies were struck off
  show companies in <STATE>       - needs --snapshot

Anything else prints the list of supported questions.`,
		Example: `  regwatch ask "How many new incorporations?"
  regwatch ask "How many companies were struck off?" --label "Day 3"
  regwatch ask "Show companies in MH" --snapshot master.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&flags.Label, "label", "l", "", "change log label (default: latest)")
	cmd.Flags().StringVar(&flags.Snapshot, "snapshot", "", "snapshot file for state lookups")
	cmd.Flags().IntVar(&flags.Preview, "preview", query.DefaultPreview, "number of matching companies to show")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, prompt string) error {
	ctx := logging.WithOperation(logging.WithLogger(cmd.Context(), app.Logger()), "ask")
	fields := app.Fields()

	src := query.Source{
		StatusField: fields.Status,
		StateField:  fields.State,
		Preview:     flags.Preview,
	}

	intent := query.Parse(prompt)
	switch intent.(type) {
	case query.NewIncorporations, query.StruckOff:
		st, err := app.Store()
		if err != nil {
			return err
		}
		log, err := store.Resolve(ctx, st, flags.Label)
		if err != nil && !errors.IsNotFound(err) {
			return err
		}
		src.Log = log
	case query.CompaniesInState:
		if flags.Snapshot != "" {
			s, err := ingest.LoadFile(ctx, flags.Snapshot, app.IngestOptions())
			if err != nil {
				return err
			}
			src.Snapshot = s
		}
	}

	view := output.AnswerView{
		Answer:  intent.Answer(src),
		Columns: []string{fields.Name, fields.State, fields.Status},
	}
	return output.Write(cmd.OutOrStdout(), app.OutputFormat(), view)
}
