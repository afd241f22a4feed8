// Package flow defines the questionnaire of every category: which questions
// are asked, in which order, and how each answer is validated.
package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mur0dDev/Classification-Bot/internal/models"
)

// Kind is the input rule of a step.
type Kind string

const (
	KindChoice Kind = "choice"
	KindNumber Kind = "number"
	KindFuzzy  Kind = "fuzzy"
	KindYesNo  Kind = "yesno"
)

// Answers of a yes/no step.
const (
	Yes = "Yes"
	No  = "No"
)

// Fixed leading and trailing columns of every destination row.
var (
	leadingHeader  = []string{"No.", "Unique Bot Data #", "Initiator Name"}
	trailingHeader = []string{"Date"}
)

// Branch overrides the successor of a step for one answer. When Fill is set
// every later step of the flow is recorded with that value.
type Branch struct {
	Fill string `yaml:"fill" json:"fill,omitempty"`
	Next string `yaml:"next" json:"next"`
}

// Step is one question. Steps are immutable once loaded.
type Step struct {
	Field      string            `yaml:"field" json:"field"`
	Label      string            `yaml:"label" json:"label"`
	Emoji      string            `yaml:"emoji" json:"emoji,omitempty"`
	Kind       Kind              `yaml:"kind" json:"kind"`
	Prompt     string            `yaml:"prompt" json:"prompt"`
	Options    []string          `yaml:"options" json:"options,omitempty"`
	Min        *int              `yaml:"min" json:"min,omitempty"`
	Max        *int              `yaml:"max" json:"max,omitempty"`
	Unit       string            `yaml:"unit" json:"unit,omitempty"`
	Vocabulary string            `yaml:"vocabulary" json:"vocabulary,omitempty"`
	Next       string            `yaml:"next" json:"next"`
	Branches   map[string]Branch `yaml:"branches" json:"branches,omitempty"`

	// Entries is the resolved vocabulary of a fuzzy step.
	Entries []string `yaml:"-" json:"-"`
}

// Successor returns the step that follows value, and the branch taken if any.
func (s *Step) Successor(value string) (string, *Branch) {
	if b, ok := s.Branches[value]; ok {
		return b.Next, &b
	}
	return s.Next, nil
}

// Accept validates a typed answer for choice and number steps and returns
// the value to record.
func (s *Step) Accept(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch s.Kind {
	case KindChoice:
		for _, opt := range s.Options {
			if strings.EqualFold(opt, text) {
				return opt, nil
			}
		}
		return "", &ValidationError{
			Field:    s.Field,
			Label:    s.Label,
			Expected: "one of " + strings.Join(s.Options, ", "),
		}
	case KindNumber:
		n, err := strconv.Atoi(text)
		if err != nil || n < *s.Min || n > *s.Max {
			return "", &ValidationError{
				Field:    s.Field,
				Label:    s.Label,
				Expected: fmt.Sprintf("a whole number from %d to %d", *s.Min, *s.Max),
			}
		}
		return strconv.Itoa(n), nil
	default:
		return "", fmt.Errorf("flow: step %q of kind %s does not take typed answers", s.Field, s.Kind)
	}
}

// Display formats a recorded value with the step's unit.
func (s *Step) Display(value string) string {
	if s.Kind == KindNumber && s.Unit != "" {
		if _, err := strconv.Atoi(value); err == nil {
			return value + " " + s.Unit
		}
	}
	return value
}

// Cell converts a recorded value into a destination table cell. Numbers are
// written as integers.
func (s *Step) Cell(value string) any {
	if s.Kind == KindNumber {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return value
}

// Flow is the ordered questionnaire of one category.
type Flow struct {
	Category models.Category `yaml:"category" json:"category"`
	Title    string          `yaml:"title" json:"title"`
	Emoji    string          `yaml:"emoji" json:"emoji,omitempty"`
	Table    string          `yaml:"table" json:"table"`
	Steps    []*Step         `yaml:"steps" json:"steps"`

	index map[string]int
}

func (f *Flow) First() *Step {
	return f.Steps[0]
}

func (f *Flow) Step(field string) (*Step, bool) {
	i, ok := f.index[field]
	if !ok {
		return nil, false
	}
	return f.Steps[i], true
}

// After returns the steps that follow field in column order.
func (f *Flow) After(field string) []*Step {
	i, ok := f.index[field]
	if !ok {
		return nil
	}
	return f.Steps[i+1:]
}

// FilledByBranch reports the fields whose value was set by a filling branch
// rather than answered.
func (f *Flow) FilledByBranch(fields map[string]string) map[string]bool {
	filled := map[string]bool{}
	for _, s := range f.Steps {
		if filled[s.Field] {
			continue
		}
		v, ok := fields[s.Field]
		if !ok {
			continue
		}
		if _, b := s.Successor(v); b != nil && b.Fill != "" {
			for _, later := range f.After(s.Field) {
				if fields[later.Field] == b.Fill {
					filled[later.Field] = true
				}
			}
		}
	}
	return filled
}

// Columns returns the field names in destination column order.
func (f *Flow) Columns() []string {
	cols := make([]string, len(f.Steps))
	for i, s := range f.Steps {
		cols[i] = s.Field
	}
	return cols
}

// Header returns the column titles of the destination table.
func (f *Flow) Header() []string {
	h := make([]string, 0, len(leadingHeader)+len(f.Steps)+len(trailingHeader))
	h = append(h, leadingHeader...)
	for _, s := range f.Steps {
		h = append(h, s.Label)
	}
	return append(h, trailingHeader...)
}

// Registry holds the flows of every category.
type Registry struct {
	flows []*Flow
}

func (r *Registry) Flow(c models.Category) (*Flow, bool) {
	for _, f := range r.flows {
		if f.Category == c {
			return f, true
		}
	}
	return nil, false
}

// Flows returns the flows in definition order.
func (r *Registry) Flows() []*Flow {
	return append([]*Flow(nil), r.flows...)
}

// Contains reports whether step is a valid step for a session of category c,
// including the synthetic category choice and review steps.
func (r *Registry) Contains(c models.Category, step string) bool {
	if step == models.StepChooseCategory {
		return true
	}
	f, ok := r.Flow(c)
	if !ok {
		return false
	}
	if step == models.StepReview {
		return true
	}
	_, ok = f.Step(step)
	return ok
}
