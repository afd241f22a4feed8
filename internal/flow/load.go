package flow

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

//go:embed flows.yaml
var defaultYAML string

// ValidationError rejects an answer that does not fit its step.
type ValidationError struct {
	Field    string
	Label    string
	Expected string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: expected %s", strings.ToLower(e.Label), e.Expected)
}

type document struct {
	Categories []*Flow `yaml:"categories"`
}

// Default parses the embedded flow definitions against vocabularies.
func Default(vocabularies vocab.Set) (*Registry, error) {
	return Load(strings.NewReader(defaultYAML), vocabularies)
}

// LoadFile reads flow definitions from disk.
func LoadFile(path string, vocabularies vocab.Set) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flow: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, vocabularies)
}

// Load decodes and validates flow definitions.
func Load(r io.Reader, vocabularies vocab.Set) (*Registry, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("flow: decode: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("flow: no categories defined")
	}

	seen := map[models.Category]bool{}
	for _, f := range doc.Categories {
		if !f.Category.Valid() {
			return nil, fmt.Errorf("flow: unknown category %q", f.Category)
		}
		if seen[f.Category] {
			return nil, fmt.Errorf("flow: category %q defined twice", f.Category)
		}
		seen[f.Category] = true
		if err := f.compile(vocabularies); err != nil {
			return nil, fmt.Errorf("flow: %s: %w", f.Category, err)
		}
	}
	return &Registry{flows: doc.Categories}, nil
}

func (f *Flow) compile(vocabularies vocab.Set) error {
	if f.Title == "" {
		return errors.New("title is required")
	}
	if f.Table == "" {
		return errors.New("table is required")
	}
	if len(f.Steps) == 0 {
		return errors.New("at least one step is required")
	}

	f.index = make(map[string]int, len(f.Steps))
	for i, s := range f.Steps {
		switch s.Field {
		case "":
			return fmt.Errorf("step %d has no field", i+1)
		case models.StepChooseCategory, models.StepReview:
			return fmt.Errorf("field name %q is reserved", s.Field)
		}
		if _, dup := f.index[s.Field]; dup {
			return fmt.Errorf("field %q defined twice", s.Field)
		}
		f.index[s.Field] = i
	}

	for i, s := range f.Steps {
		if err := s.compile(vocabularies); err != nil {
			return fmt.Errorf("step %q: %w", s.Field, err)
		}
		if err := f.checkForward(i, s.Next); err != nil {
			return fmt.Errorf("step %q: %w", s.Field, err)
		}
		for answer, b := range s.Branches {
			if err := f.checkForward(i, b.Next); err != nil {
				return fmt.Errorf("step %q branch %q: %w", s.Field, answer, err)
			}
		}
	}
	return f.checkReachable()
}

// checkForward keeps the step graph acyclic: successors must come later.
func (f *Flow) checkForward(from int, next string) error {
	if next == models.StepReview {
		return nil
	}
	to, ok := f.index[next]
	if !ok {
		return fmt.Errorf("next step %q does not exist", next)
	}
	if to <= from {
		return fmt.Errorf("next step %q must come after this step", next)
	}
	return nil
}

// checkReachable makes sure every step can be asked; a step skipped only
// through a filling branch still counts as reached.
func (f *Flow) checkReachable() error {
	reached := make([]bool, len(f.Steps))
	reached[0] = true
	for i, s := range f.Steps {
		if !reached[i] {
			return fmt.Errorf("step %q is unreachable", s.Field)
		}
		if j, ok := f.index[s.Next]; ok {
			reached[j] = true
		}
		for _, b := range s.Branches {
			if j, ok := f.index[b.Next]; ok {
				reached[j] = true
			}
		}
	}
	return nil
}

// maxFieldLen keeps field-scoped button tokens within Telegram's callback
// data limit.
const maxFieldLen = 32

func (s *Step) compile(vocabularies vocab.Set) error {
	if len(s.Field) > maxFieldLen || strings.ContainsAny(s.Field, ": ") {
		return fmt.Errorf("field %q must be at most %d characters without spaces or colons", s.Field, maxFieldLen)
	}
	if s.Label == "" {
		return errors.New("label is required")
	}
	if s.Prompt == "" {
		return errors.New("prompt is required")
	}
	switch s.Kind {
	case KindChoice:
		if len(s.Options) == 0 {
			return errors.New("choice step needs options")
		}
	case KindNumber:
		if s.Min == nil || s.Max == nil {
			return errors.New("number step needs min and max")
		}
		if *s.Min > *s.Max {
			return fmt.Errorf("min %d is greater than max %d", *s.Min, *s.Max)
		}
	case KindFuzzy:
		entries, ok := vocabularies.Lookup(s.Vocabulary)
		if !ok {
			return fmt.Errorf("unknown vocabulary %q", s.Vocabulary)
		}
		s.Entries = entries
	case KindYesNo:
		for answer := range s.Branches {
			if answer != Yes && answer != No {
				return fmt.Errorf("yes/no branch on %q", answer)
			}
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if len(s.Branches) > 0 && s.Kind != KindYesNo && s.Kind != KindChoice {
		return fmt.Errorf("branches are not supported on %s steps", s.Kind)
	}
	return nil
}
