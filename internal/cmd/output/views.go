package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/regwatch/internal/cmd/emoji"
	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/query"
	"github.com/agentstation/regwatch/pkg/reconcile"
)

var titleCaser = cases.Title(language.English)

// headers title-cases snake_case names for table headers.
func headers(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = titleCaser.String(strings.ReplaceAll(n, "_", " "))
	}
	return out
}

func marker(ct changelog.ChangeType) string {
	switch ct {
	case changelog.NewIncorporation:
		return emoji.Added
	case changelog.Deregistered:
		return emoji.Removed
	default:
		return emoji.Changed
	}
}

// LogView renders a change log.
type LogView struct {
	Log *changelog.Log
}

// TableData implements Tabular.
func (v LogView) TableData(wide bool) Data {
	cols := []string{"", "key", "change_type", "field_changed", "old_value", "new_value"}
	if wide {
		cols = append(cols, "date")
	}
	data := Data{
		Title:   fmt.Sprintf("Change log %s (%d records)", v.Log.Label(), v.Log.Len()),
		Headers: headers(cols...),
	}
	for _, r := range v.Log.Records() {
		row := []string{marker(r.ChangeType), r.Key, string(r.ChangeType), r.FieldChanged, r.OldValue.String(), r.NewValue.String()}
		if wide {
			row = append(row, r.Label)
		}
		data.Rows = append(data.Rows, row)
	}
	for _, w := range v.Log.Warnings() {
		data.Footer = append(data.Footer, emoji.Warning+" "+w.String())
	}
	return data
}

// MarshalJSON encodes the records array.
func (v LogView) MarshalJSON() ([]byte, error) { return json.Marshal(v.Log) }

// MarshalYAML encodes the records sequence.
func (v LogView) MarshalYAML() (any, error) { return v.Log.MarshalYAML() }

// SummaryView renders a summary.
type SummaryView struct {
	Summary changelog.Summary
}

type summaryDoc struct {
	Label     string         `json:"label" yaml:"label"`
	Available bool           `json:"available" yaml:"available"`
	Counts    map[string]int `json:"counts" yaml:"counts"`
}

func (v SummaryView) doc() summaryDoc {
	doc := summaryDoc{Label: v.Summary.Label(), Available: v.Summary.Available()}
	if doc.Available {
		doc.Counts = map[string]int{}
		for ct, n := range v.Summary.Counts() {
			doc.Counts[string(ct)] = n
		}
	}
	return doc
}

// TableData implements Tabular.
func (v SummaryView) TableData(bool) Data {
	if !v.Summary.Available() {
		return Data{Title: emoji.Unavailable + " Daily Summary: " + changelog.NotAvailable}
	}
	data := Data{
		Title:           "Daily Summary " + v.Summary.Label(),
		Headers:         headers("change_type", "count"),
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	for _, ct := range changelog.ChangeTypes() {
		data.Rows = append(data.Rows, []string{string(ct), fmt.Sprint(v.Summary.Count(ct))})
	}
	return data
}

// MarshalJSON implements json.Marshaler.
func (v SummaryView) MarshalJSON() ([]byte, error) { return json.Marshal(v.doc()) }

// MarshalYAML implements yaml.InterfaceMarshaler.
func (v SummaryView) MarshalYAML() (any, error) { return v.doc(), nil }

// ChainView renders the steps of a chain.
type ChainView struct {
	Result *reconcile.ChainResult
}

type stepDoc struct {
	Step     int            `json:"step" yaml:"step"`
	From     string         `json:"from" yaml:"from"`
	Label    string         `json:"label" yaml:"label"`
	OK       bool           `json:"ok" yaml:"ok"`
	Counts   map[string]int `json:"counts,omitempty" yaml:"counts,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (v ChainView) docs() []stepDoc {
	docs := make([]stepDoc, 0, len(v.Result.Steps))
	for _, s := range v.Result.Steps {
		doc := stepDoc{Step: s.Index, From: s.From, Label: s.Label, OK: s.OK()}
		if s.OK() {
			doc.Counts = map[string]int{}
			for ct, n := range changelog.Summarize(s.Log).Counts() {
				doc.Counts[string(ct)] = n
			}
			for _, w := range s.Log.Warnings() {
				doc.Warnings = append(doc.Warnings, w.String())
			}
		}
		if s.Err != nil {
			doc.Error = s.Err.Error()
		}
		docs = append(docs, doc)
	}
	return docs
}

// TableData implements Tabular.
func (v ChainView) TableData(wide bool) Data {
	cols := []string{"", "step", "from", "label", "new", "deregistered", "updated"}
	if wide {
		cols = append(cols, "error")
	}
	data := Data{
		Headers:         headers(cols...),
		ColumnAlignment: []Align{AlignDefault, AlignRight, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft},
	}
	for _, s := range v.Result.Steps {
		row := []string{emoji.Status(s.OK()), fmt.Sprint(s.Index), s.From, s.Label, "-", "-", "-"}
		if s.OK() {
			summary := changelog.Summarize(s.Log)
			row[4] = fmt.Sprint(summary.Count(changelog.NewIncorporation))
			row[5] = fmt.Sprint(summary.Count(changelog.Deregistered))
			row[6] = fmt.Sprint(summary.Count(changelog.FieldUpdate))
		}
		if wide {
			msg := ""
			if s.Err != nil {
				msg = s.Err.Error()
			}
			row = append(row, msg)
		}
		data.Rows = append(data.Rows, row)
	}
	if !wide {
		data.ColumnAlignment = data.ColumnAlignment[:len(cols)]
		for _, s := range v.Result.Failed() {
			data.Footer = append(data.Footer, fmt.Sprintf("%s step %d (%s): %v", emoji.Error, s.Index, s.Label, s.Err))
		}
	}
	return data
}

// MarshalJSON implements json.Marshaler.
func (v ChainView) MarshalJSON() ([]byte, error) { return json.Marshal(v.docs()) }

// MarshalYAML implements yaml.InterfaceMarshaler.
func (v ChainView) MarshalYAML() (any, error) { return v.docs(), nil }

// AnswerView renders a query answer with its preview rows.
type AnswerView struct {
	Answer  query.Answer
	Columns []string // Row fields shown in the preview table
}

type answerDoc struct {
	query.Answer `yaml:",inline"`
	Rows         []map[string]any `json:"rows,omitempty" yaml:"rows,omitempty"`
}

func (v AnswerView) doc() answerDoc {
	doc := answerDoc{Answer: v.Answer}
	for _, r := range v.Answer.Rows {
		m := map[string]any{"key": r.Key}
		for name, val := range r.Fields() {
			m[name] = val.Interface()
		}
		doc.Rows = append(doc.Rows, m)
	}
	return doc
}

// TableData implements Tabular.
func (v AnswerView) TableData(bool) Data {
	prefix := emoji.Info
	if !v.Answer.Available {
		prefix = emoji.Unavailable
	}
	data := Data{Title: prefix + " " + v.Answer.Text}
	if len(v.Answer.Rows) == 0 {
		return data
	}
	cols := v.Columns
	if len(cols) == 0 {
		cols = v.Answer.Rows[0].FieldNames()
	}
	data.Headers = append([]string{"Key"}, cols...)
	for _, r := range v.Answer.Rows {
		row := []string{r.Key}
		for _, c := range cols {
			row = append(row, r.Get(c).String())
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// MarshalJSON implements json.Marshaler.
func (v AnswerView) MarshalJSON() ([]byte, error) { return json.Marshal(v.doc()) }

// MarshalYAML implements yaml.InterfaceMarshaler.
func (v AnswerView) MarshalYAML() (any, error) { return v.doc(), nil }
