// Package logs provides the logs command, which lists saved change logs.
package logs

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/regwatch/internal/appcontext"
	"github.com/agentstation/regwatch/internal/cmd/output"
	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/logging"
)

// Entry describes one saved change log.
type Entry struct {
	Label   string         `json:"label" yaml:"label"`
	Records int            `json:"records" yaml:"records"`
	Counts  map[string]int `json:"counts" yaml:"counts"`
}

// List is the logs command output.
type List []Entry

// TableData implements output.Tabular.
func (l List) TableData(bool) output.Data {
	data := output.Data{
		Headers:         []string{"Label", "Records", "New", "Deregistered", "Updated"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight, output.AlignRight, output.AlignRight, output.AlignRight},
	}
	for _, e := range l {
		data.Rows = append(data.Rows, []string{
			e.Label,
			fmt.Sprint(e.Records),
			fmt.Sprint(e.Counts[string(changelog.NewIncorporation)]),
			fmt.Sprint(e.Counts[string(changelog.Deregistered)]),
			fmt.Sprint(e.Counts[string(changelog.FieldUpdate)]),
		})
	}
	if len(l) == 0 {
		data.Footer = []string{"No change logs saved"}
	}
	return data
}

// MarshalJSON encodes an empty list as [].
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Entry(l))
}

// NewCommand creates the logs command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "logs",
		GroupID: "management",
		Short:   "List saved change logs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithOperation(logging.WithLogger(cmd.Context(), app.Logger()), "logs")
			st, err := app.Store()
			if err != nil {
				return err
			}
			labels, err := st.Labels(ctx)
			if err != nil {
				return err
			}

			var list List
			for _, label := range labels {
				log, err := st.Load(ctx, label)
				if err != nil {
					return err
				}
				entry := Entry{Label: label, Records: log.Len(), Counts: map[string]int{}}
				for ct, n := range changelog.Summarize(log).Counts() {
					entry.Counts[string(ct)] = n
				}
				list = append(list, entry)
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), list)
		},
	}
}
