// Package query answers a closed set of questions about registry changes.
// Every answer is derived from changelog.Summarize, changelog.Tally or a
// direct snapshot lookup; nothing here re-derives a diff.
package query

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// Kind names an intent.
type Kind string

// Intent kinds.
const (
	KindNewIncorporations Kind = "new_incorporations"
	KindStruckOff         Kind = "struck_off"
	KindCompaniesInState  Kind = "companies_in_state"
	KindHelp              Kind = "help"
)

// DefaultPreview is how many matching rows an answer carries.
const DefaultPreview = 5

// Source is what intents answer from.
type Source struct {
	Log         *changelog.Log     // Change log of the period asked about; may be nil
	Snapshot    *snapshot.Snapshot // Materialized snapshot for lookups; may be nil
	StatusField string
	StateField  string
	Preview     int
}

func (s Source) statusField() string {
	if s.StatusField == "" {
		return constants.StatusField
	}
	return s.StatusField
}

func (s Source) stateField() string {
	if s.StateField == "" {
		return constants.StateField
	}
	return s.StateField
}

func (s Source) preview() int {
	if s.Preview <= 0 {
		return DefaultPreview
	}
	return s.Preview
}

// Answer is the typed result of an intent.
type Answer struct {
	Kind      Kind           `json:"intent" yaml:"intent"`
	Available bool           `json:"available" yaml:"available"`
	Count     int            `json:"count" yaml:"count"`
	Text      string         `json:"text" yaml:"text"`
	Rows      []snapshot.Row `json:"-" yaml:"-"`
}

// Intent is one member of the closed question set.
type Intent interface {
	Kind() Kind
	Answer(src Source) Answer
}

// NewIncorporations asks how many entities appeared in the period.
type NewIncorporations struct{}

// Kind implements Intent.
func (NewIncorporations) Kind() Kind { return KindNewIncorporations }

// Answer implements Intent.
func (NewIncorporations) Answer(src Source) Answer {
	summary := changelog.Summarize(src.Log)
	if !summary.Available() {
		return unavailable(KindNewIncorporations, "new incorporations")
	}
	n := summary.Count(changelog.NewIncorporation)
	return Answer{
		Kind:      KindNewIncorporations,
		Available: true,
		Count:     n,
		Text:      fmt.Sprintf("There were %d new incorporations in the %s update.", n, periodOf(src.Log)),
	}
}

// StruckOff asks how many entities moved to the struck-off status.
type StruckOff struct{}

// Kind implements Intent.
func (StruckOff) Kind() Kind { return KindStruckOff }

// Answer implements Intent.
func (StruckOff) Answer(src Source) Answer {
	tally := changelog.Tally(src.Log, src.statusField())
	if tally == nil {
		return unavailable(KindStruckOff, "struck-off companies")
	}
	n := tally[constants.StatusStrikeOff]
	return Answer{
		Kind:      KindStruckOff,
		Available: true,
		Count:     n,
		Text:      fmt.Sprintf("There were %d companies marked as '%s' in the %s update.", n, constants.StatusStrikeOff, periodOf(src.Log)),
	}
}

// CompaniesInState asks which entities are registered in a state.
type CompaniesInState struct {
	State string
}

// Kind implements Intent.
func (CompaniesInState) Kind() Kind { return KindCompaniesInState }

// Answer implements Intent.
func (q CompaniesInState) Answer(src Source) Answer {
	if src.Snapshot == nil {
		return unavailable(KindCompaniesInState, "company listings")
	}
	field := src.stateField()
	want := snapshot.String(q.State)
	matches := src.Snapshot.Filter(func(r snapshot.Row) bool {
		return r.Get(field).Equal(want)
	})

	preview := matches
	if len(preview) > src.preview() {
		preview = preview[:src.preview()]
	}
	text := fmt.Sprintf("Found %d companies in %s.", len(matches), q.State)
	if len(preview) > 0 {
		text = fmt.Sprintf("Found %d companies in %s. Here are the first %d:", len(matches), q.State, len(preview))
	}
	return Answer{
		Kind:      KindCompaniesInState,
		Available: true,
		Count:     len(matches),
		Text:      text,
		Rows:      preview,
	}
}

// Help lists the questions that can be answered.
type Help struct{}

// Kind implements Intent.
func (Help) Kind() Kind { return KindHelp }

// Answer implements Intent.
func (Help) Answer(Source) Answer {
	return Answer{
		Kind:      KindHelp,
		Available: true,
		Text: "Sorry, I can only answer simple questions about:\n" +
			"- 'how many new incorporations'\n" +
			"- 'how many companies were struck off'\n" +
			"- 'show companies in [State]'",
	}
}

var (
	lower = cases.Lower(language.Und)
	upper = cases.Upper(language.Und)
)

// Parse maps a free-text prompt to an intent. Unrecognized prompts map to Help.
func Parse(prompt string) Intent {
	p := lower.String(strings.TrimSpace(prompt))
	switch {
	case strings.Contains(p, "how many new incorporations"):
		return NewIncorporations{}
	case strings.Contains(p, "how many companies were struck off"),
		strings.Contains(p, "struck off"),
		strings.Contains(p, "deregistered"):
		return StruckOff{}
	case strings.Contains(p, "show companies in"):
		i := strings.LastIndex(p, "in ")
		if i < 0 {
			return Help{}
		}
		state := strings.TrimSpace(upper.String(p[i+len("in "):]))
		if state == "" {
			return Help{}
		}
		return CompaniesInState{State: state}
	default:
		return Help{}
	}
}

// Ask parses prompt and answers it from src.
func Ask(prompt string, src Source) Answer {
	return Parse(prompt).Answer(src)
}

func unavailable(kind Kind, what string) Answer {
	return Answer{
		Kind: kind,
		Text: fmt.Sprintf("Data on %s is %s.", what, changelog.NotAvailable),
	}
}

func periodOf(log *changelog.Log) string {
	if log == nil || log.Label() == "" {
		return "last"
	}
	return log.Label()
}
