// Package console runs a classification session in the terminal, standing in
// for Telegram during local work.
package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mur0dDev/Classification-Bot/internal/engine"
)

type promptMsg struct {
	prompt engine.Prompt
	edit   bool
}

type broadcastMsg struct{ text string }

// Gateway queues engine output for the terminal model. It serves both as
// the engine's gateway and as the submission channel.
type Gateway struct {
	out chan tea.Msg
}

func NewGateway() *Gateway {
	return &Gateway{out: make(chan tea.Msg, 256)}
}

func (g *Gateway) SendPrompt(ctx context.Context, _ int64, p engine.Prompt) error {
	return g.push(ctx, promptMsg{prompt: p})
}

func (g *Gateway) EditLastPrompt(ctx context.Context, _ int64, p engine.Prompt) error {
	return g.push(ctx, promptMsg{prompt: p, edit: true})
}

// Post shows a report in the group pane.
func (g *Gateway) Post(ctx context.Context, text string) error {
	return g.push(ctx, broadcastMsg{text: text})
}

func (g *Gateway) push(ctx context.Context, msg tea.Msg) error {
	select {
	case g.out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// next waits for the following queued message.
func (g *Gateway) next() tea.Cmd {
	return func() tea.Msg {
		return <-g.out
	}
}
