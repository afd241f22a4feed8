package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/action"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/render"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
)

var stageText = map[submission.Stage]string{
	submission.StageCount:     "🔢 Reading the current row count...",
	submission.StageBuild:     "🧾 Building the record...",
	submission.StageRender:    "📝 Formatting the report...",
	submission.StageBroadcast: "📣 Posting to the group...",
	submission.StageAppend:    "📊 Saving the row...",
	submission.StageDone:      "✅ Saved.",
}

// showReview renders the summary from the current field map.
func (e *Engine) showReview(ctx context.Context, s *models.Session, notice string) error {
	f, ok := e.flows.Flow(s.Category)
	if !ok {
		return fmt.Errorf("no flow for category %q", s.Category)
	}
	if s.EditMenu {
		return e.showEditMenu(ctx, s, f)
	}
	text := render.Summary(f, s.Fields)
	if notice != "" {
		text = notice + "\n\n" + text
	}
	return e.send(ctx, s.UserID, Prompt{
		Text: text,
		Buttons: [][]Button{{
			{Label: "✏️ Edit Data", Action: action.ShowEditMenu{}},
			{Label: "📤 Submit Data", Action: action.Submit{}},
		}},
	})
}

func (e *Engine) showEditMenu(ctx context.Context, s *models.Session, f *flow.Flow) error {
	if !s.EditMenu {
		s.EditMenu = true
		e.touch(s)
	}
	visible := render.Visible(f, s.Fields)
	rows := make([][]Button, 0, len(visible)+1)
	for _, st := range visible {
		rows = append(rows, []Button{{Label: st.Emoji + " " + st.Label, Action: action.EditField{Field: st.Field}}})
	}
	rows = append(rows, []Button{{Label: "✅ Done Editing", Action: action.DoneEditing{}}})
	return e.send(ctx, s.UserID, Prompt{Text: render.EditMenu(f, s.Fields), Buttons: rows})
}

// editField jumps to the step of field from any state. Other fields are left
// as they are; answering the step returns to review. Fields set by a branch
// fill are not editable.
func (e *Engine) editField(ctx context.Context, s *models.Session, f *flow.Flow, field string) error {
	st, ok := f.Step(field)
	if !ok || f.FilledByBranch(s.Fields)[field] {
		return e.stale(ctx, s)
	}
	s.ClearCandidates()
	s.EditMenu = false
	s.Step = st.Field
	e.touch(s)
	e.log.Debug("editing field", zap.Int64("user", s.UserID), zap.String("field", field))
	return e.send(ctx, s.UserID, stepPrompt(st))
}

// beginSubmit marks the session as submitting and returns the run that
// completes it outside the user's lock.
func (e *Engine) beginSubmit(ctx context.Context, s *models.Session, f *flow.Flow) (func() error, error) {
	s.Submitting = true
	s.EditMenu = false
	e.touch(s)

	text := "⏳ Submitting your " + f.Title + " classification..."
	if s.OrphanBroadcasts > 0 {
		text = fmt.Sprintf(msgResubmitAfterPartial, s.OrphanBroadcasts) + "\n\n" + text
	}
	if err := e.send(ctx, s.UserID, Prompt{Text: text}); err != nil {
		s.Submitting = false
		e.touch(s)
		return nil, err
	}

	snapshot := s.Clone()
	return func() error {
		res := e.submitter.Submit(ctx, snapshot, func(stage submission.Stage) {
			if err := e.gateway.EditLastPrompt(ctx, snapshot.UserID, Prompt{Text: stageText[stage]}); err != nil {
				e.log.Debug("progress update failed", zap.Int64("user", snapshot.UserID), zap.Error(err))
			}
		})
		mu := e.userLock(snapshot.UserID)
		mu.Lock()
		defer mu.Unlock()
		return e.finishSubmit(ctx, snapshot, f, res)
	}, nil
}

func (e *Engine) finishSubmit(ctx context.Context, s *models.Session, f *flow.Flow, res submission.Result) error {
	if res.OK() {
		e.sessions.Delete(s.UserID)
		return e.send(ctx, s.UserID, Prompt{
			Text: fmt.Sprintf(msgSubmitted, f.Title, res.Record.Ordinal),
		})
	}

	s.Submitting = false
	var notice string
	reason := render.Escape(res.Err.Error())
	switch {
	case res.Partial():
		s.OrphanBroadcasts++
		notice = fmt.Sprintf(msgPartialFailure, reason)
	case res.Stage == submission.StageBroadcast:
		notice = fmt.Sprintf(msgChannelFailure, reason)
	default:
		notice = fmt.Sprintf(msgStoreFailure, res.Stage, reason)
	}
	e.touch(s)
	e.log.Warn("submission failed",
		zap.Int64("user", s.UserID),
		zap.String("stage", string(res.Stage)),
		zap.Bool("partial", res.Partial()),
		zap.Error(res.Err))
	return e.showReview(ctx, s, notice)
}
