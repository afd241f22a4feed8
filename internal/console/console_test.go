package console

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mur0dDev/Classification-Bot/internal/action"
	"github.com/Mur0dDev/Classification-Bot/internal/engine"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/session"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

var tester = models.User{ID: 1, Name: "Local Tester"}

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, *models.Session, submission.ProgressFunc) submission.Result {
	return submission.Result{Err: errors.New("not wired")}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	flows, err := flow.Default(vocab.Default())
	require.NoError(t, err)
	gw := NewGateway()
	eng := engine.New(flows, session.NewMemoryStore(time.Hour, nil), gw, nopSubmitter{}, nil)
	return NewModel(context.Background(), eng, gw, tester)
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drain feeds every queued gateway message to the model.
func drain(m Model) Model {
	for {
		select {
		case msg := <-m.gateway.out:
			m, _ = update(m, msg)
		default:
			return m
		}
	}
}

func enter(m Model, line string) Model {
	m.input.SetValue(line)
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		m, _ = update(m, cmd())
	}
	return drain(m)
}

func lastBot(m Model) string {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if !m.transcript[i].user {
			return m.transcript[i].text
		}
	}
	return ""
}

func TestConsoleWalksThroughPrompts(t *testing.T) {
	m := newTestModel(t)

	m = enter(m, "/classify")
	assert.Contains(t, lastBot(m), "What would you like to classify?")
	require.Len(t, m.buttons, 4)
	assert.Equal(t, action.SelectCategory{Category: models.CategoryHuman}, m.buttons[0].Action)

	m = enter(m, "#1")
	assert.Equal(t, "🚻 What is the person's gender?", lastBot(m))
	assert.Equal(t, []string{"Male", "Female"}, m.choices)
	assert.Empty(t, m.buttons)

	m = enter(m, "Male")
	assert.Equal(t, "🎂 How old is the person?", lastBot(m))
	assert.NoError(t, m.lastErr)

	m = enter(m, "/cancel")
	assert.Contains(t, lastBot(m), "cancelled")
}

func TestConsoleRejectsUnknownButton(t *testing.T) {
	m := newTestModel(t)
	m = enter(m, "/classify")

	before := len(m.transcript)
	m = enter(m, "#9")
	assert.ErrorIs(t, m.lastErr, errNoButton)
	assert.Len(t, m.transcript, before)
	assert.Equal(t, "", m.input.Value())
}

func TestConsoleEditReplacesLastPrompt(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, promptMsg{prompt: engine.Prompt{Text: "⏳ Submitting"}})
	m, _ = update(m, promptMsg{prompt: engine.Prompt{Text: "📣 Posting"}, edit: true})
	require.Len(t, m.transcript, 1)
	assert.Equal(t, "📣 Posting", m.transcript[0].text)
}

func TestConsoleShowsGroupPosts(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.gateway.Post(context.Background(), "📋 Human Classification No. 1"))

	m = drain(m)
	assert.Equal(t, []string{"📋 Human Classification No. 1"}, m.group)
	assert.Contains(t, m.View(), "Human Classification No. 1")
}

func TestConsoleQuit(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("/quit")
	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestGatewayHonoursContext(t *testing.T) {
	gw := &Gateway{out: make(chan tea.Msg)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, gw.SendPrompt(ctx, 1, engine.Prompt{Text: "x"}), context.Canceled)
}
