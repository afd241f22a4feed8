// Package engine drives a user's session through the questionnaire of the
// chosen category, from category choice to review and submission.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/action"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/session"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
)

// Button is one inline button of a prompt.
type Button struct {
	Label  string
	Action action.Action
}

// Prompt is an outbound message. Choices are offered as typed replies,
// Buttons as inline rows.
type Prompt struct {
	Text    string
	Choices []string
	Buttons [][]Button
}

// Gateway delivers prompts to a user.
type Gateway interface {
	SendPrompt(ctx context.Context, userID int64, p Prompt) error
	EditLastPrompt(ctx context.Context, userID int64, p Prompt) error
}

// Submitter commits a reviewed session.
type Submitter interface {
	Submit(ctx context.Context, s *models.Session, progress submission.ProgressFunc) submission.Result
}

// Event is an inbound user event.
type Event interface {
	From() models.User
}

// Begin starts a new questionnaire at the category choice.
type Begin struct{ User models.User }

// Text is a typed message.
type Text struct {
	User models.User
	Text string
}

// Selection is a pressed button, already decoded.
type Selection struct {
	User   models.User
	Action action.Action
}

func (e Begin) From() models.User     { return e.User }
func (e Text) From() models.User      { return e.User }
func (e Selection) From() models.User { return e.User }

// Engine handles events for many users. Events of one user are processed
// one at a time; different users proceed in parallel.
type Engine struct {
	flows     *flow.Registry
	sessions  session.Store
	gateway   Gateway
	submitter Submitter
	log       *zap.Logger
	now       func() time.Time

	locks [lockShards]sync.Mutex
}

// lockShards bounds the number of user locks; users sharing a shard are
// serialized with each other.
const lockShards = 64

func New(flows *flow.Registry, sessions session.Store, gateway Gateway, submitter Submitter, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		flows:     flows,
		sessions:  sessions,
		gateway:   gateway,
		submitter: submitter,
		log:       log,
		now:       time.Now,
	}
}

// Flows returns the registry the engine runs on.
func (e *Engine) Flows() *flow.Registry { return e.flows }

// Handle processes one event. Rejected input is answered with a corrective
// prompt and is not an error; errors come from the gateway.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	u := ev.From()
	mu := e.userLock(u.ID)

	mu.Lock()
	commit, err := e.dispatch(ctx, ev)
	mu.Unlock()
	if err != nil {
		return fmt.Errorf("engine: user %d: %w", u.ID, err)
	}
	if commit == nil {
		return nil
	}
	// the submission runs unlocked so later events see Submitting
	if err := commit(); err != nil {
		return fmt.Errorf("engine: user %d: %w", u.ID, err)
	}
	return nil
}

func (e *Engine) userLock(id int64) *sync.Mutex {
	return &e.locks[uint64(id)%lockShards]
}

func (e *Engine) dispatch(ctx context.Context, ev Event) (func() error, error) {
	u := ev.From()
	s, ok := e.sessions.Get(u.ID)
	if ok && s.Submitting {
		return nil, e.send(ctx, u.ID, Prompt{Text: msgSubmitting})
	}

	switch ev := ev.(type) {
	case Begin:
		e.log.Debug("begin", zap.Int64("user", u.ID))
		return nil, e.begin(ctx, u)
	case Text:
		if !ok {
			return nil, e.send(ctx, u.ID, Prompt{Text: msgNoSession})
		}
		e.log.Debug("text", zap.Int64("user", u.ID), zap.String("state", s.State()))
		return nil, e.onText(ctx, s, ev.Text)
	case Selection:
		e.log.Debug("selection", zap.Int64("user", u.ID), zap.String("state", stateOf(s, ok)), zap.String("action", action.Name(ev.Action)))
		return e.onSelection(ctx, u, s, ok, ev.Action)
	}
	return nil, fmt.Errorf("unsupported event %T", ev)
}

func stateOf(s *models.Session, ok bool) string {
	if !ok {
		return "none"
	}
	return s.State()
}

// begin discards any previous session of u.
func (e *Engine) begin(ctx context.Context, u models.User) error {
	s := models.NewSession(u, e.now())
	e.sessions.Put(s)
	return e.send(ctx, u.ID, e.categoryPrompt(msgChooseCategory))
}

func (e *Engine) onText(ctx context.Context, s *models.Session, text string) error {
	switch {
	case s.Step == models.StepChooseCategory:
		if c, ok := models.ParseCategory(text); ok {
			if _, ok := e.flows.Flow(c); ok {
				return e.startFlow(ctx, s, c)
			}
		}
		return e.send(ctx, s.UserID, e.categoryPrompt(msgUseCategoryButtons))
	case s.Step == models.StepReview:
		return e.showReview(ctx, s, msgUseReviewButtons)
	case s.Confirming:
		return e.confirmText(ctx, s, text)
	}
	f, st, err := e.current(s)
	if err != nil {
		return err
	}
	return e.answer(ctx, s, f, st, text)
}

func (e *Engine) onSelection(ctx context.Context, u models.User, s *models.Session, ok bool, a action.Action) (func() error, error) {
	switch a := a.(type) {
	case action.SelectCategory:
		if _, found := e.flows.Flow(a.Category); !found {
			return nil, e.send(ctx, u.ID, e.categoryPrompt(msgUseCategoryButtons))
		}
		// a category choice always starts over
		return nil, e.startFlow(ctx, models.NewSession(u, e.now()), a.Category)
	case action.Cancel:
		if !ok {
			return nil, e.send(ctx, u.ID, Prompt{Text: msgNothingToCancel})
		}
		e.sessions.Delete(u.ID)
		e.log.Info("session cancelled", zap.Int64("user", u.ID), zap.String("state", s.State()))
		return nil, e.send(ctx, u.ID, Prompt{Text: msgCancelled})
	}

	if !ok || s.Category == "" {
		return nil, e.send(ctx, u.ID, Prompt{Text: msgStaleButton + "\n" + msgNoSession})
	}
	f, found := e.flows.Flow(s.Category)
	if !found {
		return nil, fmt.Errorf("no flow for category %q", s.Category)
	}

	switch a := a.(type) {
	case action.SelectCandidate:
		if !s.Confirming || a.Field != s.Step || a.Index < 0 || a.Index >= len(s.PendingCandidates) {
			return nil, e.stale(ctx, s)
		}
		return nil, e.pick(ctx, s, f, a.Index)
	case action.Reenter:
		if !s.Confirming {
			return nil, e.stale(ctx, s)
		}
		s.ClearCandidates()
		e.touch(s)
		st, _ := f.Step(s.Step)
		return nil, e.send(ctx, s.UserID, stepPrompt(st))
	case action.Answer:
		st, isStep := f.Step(s.Step)
		if !isStep || s.Confirming || st.Kind != flow.KindYesNo || a.Field != st.Field {
			return nil, e.stale(ctx, s)
		}
		v := flow.No
		if a.Yes {
			v = flow.Yes
		}
		return nil, e.record(ctx, s, f, st, v)
	case action.ShowEditMenu:
		if s.Step != models.StepReview {
			return nil, e.stale(ctx, s)
		}
		return nil, e.showEditMenu(ctx, s, f)
	case action.EditField:
		return nil, e.editField(ctx, s, f, a.Field)
	case action.DoneEditing:
		if s.Step != models.StepReview {
			return nil, e.stale(ctx, s)
		}
		s.EditMenu = false
		e.touch(s)
		return nil, e.showReview(ctx, s, "")
	case action.Submit:
		if s.Step != models.StepReview {
			return nil, e.stale(ctx, s)
		}
		return e.beginSubmit(ctx, s, f)
	}
	return nil, fmt.Errorf("unsupported action %T", a)
}

func (e *Engine) startFlow(ctx context.Context, s *models.Session, c models.Category) error {
	f, _ := e.flows.Flow(c)
	s.Category = c
	s.Step = f.First().Field
	s.Fields = map[string]string{}
	s.ClearCandidates()
	e.touch(s)
	e.log.Info("session started", zap.Int64("user", s.UserID), zap.String("category", string(c)))
	return e.send(ctx, s.UserID, stepPrompt(f.First()))
}

// current returns the flow step the session is at.
func (e *Engine) current(s *models.Session) (*flow.Flow, *flow.Step, error) {
	f, ok := e.flows.Flow(s.Category)
	if !ok {
		return nil, nil, fmt.Errorf("no flow for category %q", s.Category)
	}
	st, ok := f.Step(s.Step)
	if !ok {
		return nil, nil, fmt.Errorf("step %q is not part of the %s flow", s.Step, s.Category)
	}
	return f, st, nil
}

// stale answers a button that does not apply to the current state and
// shows that state again.
func (e *Engine) stale(ctx context.Context, s *models.Session) error {
	if err := e.send(ctx, s.UserID, Prompt{Text: msgStaleButton}); err != nil {
		return err
	}
	return e.redisplay(ctx, s)
}

func (e *Engine) redisplay(ctx context.Context, s *models.Session) error {
	switch {
	case s.Step == models.StepChooseCategory:
		return e.send(ctx, s.UserID, e.categoryPrompt(msgChooseCategory))
	case s.Step == models.StepReview:
		return e.showReview(ctx, s, "")
	case s.Confirming:
		return e.send(ctx, s.UserID, candidatePrompt(s.Step, s.PendingCandidates))
	}
	_, st, err := e.current(s)
	if err != nil {
		return err
	}
	return e.send(ctx, s.UserID, stepPrompt(st))
}

func (e *Engine) touch(s *models.Session) {
	s.UpdatedAt = e.now()
	e.sessions.Put(s)
}

func (e *Engine) send(ctx context.Context, userID int64, p Prompt) error {
	if err := e.gateway.SendPrompt(ctx, userID, p); err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}
	return nil
}

func (e *Engine) categoryPrompt(text string) Prompt {
	row := make([]Button, 0, len(models.Categories))
	for _, f := range e.flows.Flows() {
		row = append(row, Button{Label: f.Emoji + " " + f.Title, Action: action.SelectCategory{Category: f.Category}})
	}
	return Prompt{
		Text:    text,
		Buttons: [][]Button{row, {{Label: "❌ Close", Action: action.Cancel{}}}},
	}
}

var errUnreachable = errors.New("engine: unreachable step")
