package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/action"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/fuzzy"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/render"
)

// answer applies typed text to the current step.
func (e *Engine) answer(ctx context.Context, s *models.Session, f *flow.Flow, st *flow.Step, text string) error {
	switch st.Kind {
	case flow.KindChoice, flow.KindNumber:
		v, err := st.Accept(text)
		var verr *flow.ValidationError
		if errors.As(err, &verr) {
			e.log.Debug("answer rejected", zap.Int64("user", s.UserID), zap.String("step", st.Field), zap.Error(err))
			return e.send(ctx, s.UserID, rejectPrompt(st, text, verr))
		}
		if err != nil {
			return err
		}
		return e.record(ctx, s, f, st, v)

	case flow.KindFuzzy:
		if v, ok := fuzzy.Exact(text, st.Entries); ok {
			return e.record(ctx, s, f, st, v)
		}
		candidates, err := fuzzy.Resolve(text, st.Entries)
		switch {
		case errors.Is(err, fuzzy.ErrInvalidFormat):
			return e.send(ctx, s.UserID, Prompt{Text: msgLettersOnly + "\n\n" + st.Prompt})
		case errors.Is(err, fuzzy.ErrNoMatch):
			return e.send(ctx, s.UserID, Prompt{Text: fmt.Sprintf(msgNoMatch, strings.ToLower(st.Label))})
		case err != nil:
			return err
		}
		s.Confirming = true
		s.PendingCandidates = candidates
		e.touch(s)
		return e.send(ctx, s.UserID, candidatePrompt(st.Field, candidates))

	case flow.KindYesNo:
		// typed text never answers a yes/no question
		return e.send(ctx, s.UserID, yesNoPrompt(st.Field, msgUseYesNoButtons))
	}
	return fmt.Errorf("step %q has unknown kind %q", st.Field, st.Kind)
}

// confirmText handles typed text while a candidate list is pending. A typed
// candidate number counts as a selection.
func (e *Engine) confirmText(ctx context.Context, s *models.Session, text string) error {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err == nil && n >= 1 && n <= len(s.PendingCandidates) {
		f, _, err := e.current(s)
		if err != nil {
			return err
		}
		return e.pick(ctx, s, f, n-1)
	}
	return e.send(ctx, s.UserID, Prompt{Text: msgUseCandidateButtons})
}

func (e *Engine) pick(ctx context.Context, s *models.Session, f *flow.Flow, i int) error {
	st, ok := f.Step(s.Step)
	if !ok {
		return fmt.Errorf("step %q is not part of the %s flow", s.Step, s.Category)
	}
	return e.record(ctx, s, f, st, s.PendingCandidates[i])
}

// record stores value for st and moves to the next step that still needs an
// answer, or to review.
func (e *Engine) record(ctx context.Context, s *models.Session, f *flow.Flow, st *flow.Step, value string) error {
	if old, ok := s.Fields[st.Field]; ok && old != value {
		// undo the fill of a branch that is no longer taken
		if _, b := st.Successor(old); b != nil && b.Fill != "" {
			for _, later := range f.After(st.Field) {
				if s.Fields[later.Field] == b.Fill {
					delete(s.Fields, later.Field)
				}
			}
		}
	}

	s.Fields[st.Field] = value
	s.ClearCandidates()
	next, b := st.Successor(value)
	if b != nil && b.Fill != "" {
		for _, later := range f.After(st.Field) {
			s.Fields[later.Field] = b.Fill
		}
	}

	next, err := e.skipAnswered(f, s, next)
	if err != nil {
		return err
	}
	s.Step = next
	e.touch(s)
	e.log.Debug("answer recorded", zap.Int64("user", s.UserID), zap.String("field", st.Field), zap.String("next", next))

	if next == models.StepReview {
		return e.showReview(ctx, s, "")
	}
	ns, _ := f.Step(next)
	return e.send(ctx, s.UserID, stepPrompt(ns))
}

// skipAnswered follows the step graph from next past steps that already
// hold a value.
func (e *Engine) skipAnswered(f *flow.Flow, s *models.Session, next string) (string, error) {
	for next != models.StepReview {
		st, ok := f.Step(next)
		if !ok {
			return "", fmt.Errorf("%w: %q", errUnreachable, next)
		}
		v, answered := s.Fields[st.Field]
		if !answered {
			return next, nil
		}
		next, _ = st.Successor(v)
	}
	return next, nil
}

func stepPrompt(st *flow.Step) Prompt {
	switch st.Kind {
	case flow.KindChoice:
		return Prompt{Text: st.Prompt, Choices: st.Options}
	case flow.KindYesNo:
		return yesNoPrompt(st.Field, st.Prompt)
	}
	return Prompt{Text: st.Prompt}
}

// yesNoPrompt and candidatePrompt bind their buttons to field, so a button
// left over from another question is recognised as stale.
func yesNoPrompt(field, text string) Prompt {
	return Prompt{
		Text: text,
		Buttons: [][]Button{{
			{Label: "✅ Yes", Action: action.Answer{Field: field, Yes: true}},
			{Label: "❌ No", Action: action.Answer{Field: field, Yes: false}},
		}},
	}
}

func candidatePrompt(field string, candidates []string) Prompt {
	row := make([]Button, len(candidates))
	for i := range candidates {
		row[i] = Button{Label: strconv.Itoa(i + 1), Action: action.SelectCandidate{Field: field, Index: i}}
	}
	return Prompt{
		Text:    render.Candidates(candidates),
		Buttons: [][]Button{row, {{Label: "🔄 Reenter", Action: action.Reenter{}}}},
	}
}

// rejectPrompt names the expected format and, for choices, the closest
// option to what was typed.
func rejectPrompt(st *flow.Step, text string, verr *flow.ValidationError) Prompt {
	msg := "❌ " + capitalize(verr.Error()) + "."
	if st.Kind == flow.KindChoice {
		if near, ok := nearest(text, st.Options); ok {
			msg += fmt.Sprintf(" Did you mean %s?", near)
		}
		return Prompt{Text: msg, Choices: st.Options}
	}
	return Prompt{Text: msg}
}

// nearest returns the option within edit distance 2 of text.
func nearest(text string, options []string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "", false
	}
	best, bestDist := "", 3
	for _, opt := range options {
		if d := levenshtein.ComputeDistance(text, strings.ToLower(opt)); d < bestDist {
			best, bestDist = opt, d
		}
	}
	return best, best != ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
