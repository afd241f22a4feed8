package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mur0dDev/Classification-Bot/internal/action"
	"github.com/Mur0dDev/Classification-Bot/internal/engine"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
)

// Handler consumes engine events.
type Handler interface {
	Handle(ctx context.Context, ev engine.Event) error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	buttonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	groupStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

const maxTranscript = 200

type handledMsg struct{ err error }

type entry struct {
	user bool
	text string
}

// Model is the terminal chat with the engine.
type Model struct {
	ctx     context.Context
	handler Handler
	gateway *Gateway
	user    models.User

	input      textinput.Model
	transcript []entry
	buttons    []engine.Button
	choices    []string
	group      []string
	lastErr    error
	height     int
}

func NewModel(ctx context.Context, h Handler, g *Gateway, u models.User) Model {
	in := textinput.New()
	in.Placeholder = "type an answer, #n for a button, /classify, /cancel or /quit"
	in.CharLimit = 256
	in.Width = 60
	in.Focus()
	return Model{ctx: ctx, handler: h, gateway: g, user: u, input: in, height: 30}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.gateway.next())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil
	case promptMsg:
		m.show(msg)
		return m, m.gateway.next()
	case broadcastMsg:
		m.group = append(m.group, msg.text)
		return m, m.gateway.next()
	case handledMsg:
		m.lastErr = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) show(msg promptMsg) {
	p := msg.prompt
	if msg.edit && len(m.transcript) > 0 && !m.transcript[len(m.transcript)-1].user {
		m.transcript[len(m.transcript)-1].text = p.Text
	} else {
		m.transcript = append(m.transcript, entry{text: p.Text})
	}
	if len(m.transcript) > maxTranscript {
		m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
	}
	if msg.edit && len(p.Buttons) == 0 {
		return
	}
	var flat []engine.Button
	for _, row := range p.Buttons {
		flat = append(flat, row...)
	}
	m.buttons = flat
	m.choices = p.Choices
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if line == "" {
		return m, nil
	}
	if line == "/quit" {
		return m, tea.Quit
	}
	ev, err := m.parse(line)
	if err != nil {
		m.lastErr = err
		return m, nil
	}
	m.lastErr = nil
	m.transcript = append(m.transcript, entry{user: true, text: line})
	return m, m.handle(ev)
}

var errNoButton = errors.New("no such button")

// parse maps a typed line to the event a Telegram client would produce.
func (m Model) parse(line string) (engine.Event, error) {
	switch line {
	case "/classify", "/start":
		return engine.Begin{User: m.user}, nil
	case "/cancel":
		return engine.Selection{User: m.user, Action: action.Cancel{}}, nil
	}
	if rest, ok := strings.CutPrefix(line, "#"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > len(m.buttons) {
			return nil, fmt.Errorf("%w: %s", errNoButton, line)
		}
		return engine.Selection{User: m.user, Action: m.buttons[n-1].Action}, nil
	}
	return engine.Text{User: m.user, Text: line}, nil
}

func (m Model) handle(ev engine.Event) tea.Cmd {
	return func() tea.Msg {
		return handledMsg{err: m.handler.Handle(m.ctx, ev)}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Classification Bot") + "\n\n")

	lines := m.transcriptLines()
	if keep := m.height - 12; keep > 0 && len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	b.WriteString(strings.Join(lines, "\n") + "\n\n")

	if len(m.buttons) > 0 {
		labels := make([]string, len(m.buttons))
		for i, btn := range m.buttons {
			labels[i] = buttonStyle.Render(fmt.Sprintf("[#%d] %s", i+1, btn.Label))
		}
		b.WriteString(strings.Join(labels, "  ") + "\n")
	}
	if len(m.choices) > 0 {
		b.WriteString(hintStyle.Render("options: "+strings.Join(m.choices, " | ")) + "\n")
	}
	if len(m.group) > 0 {
		b.WriteString(groupStyle.Render("Group\n\n"+m.group[len(m.group)-1]) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render(m.lastErr.Error()) + "\n")
	}
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) transcriptLines() []string {
	var out []string
	for _, e := range m.transcript {
		if e.user {
			out = append(out, userStyle.Render("> "+e.text))
			continue
		}
		out = append(out, botStyle.Render(e.text))
	}
	return out
}

// Run drives the terminal chat until the user quits or ctx ends.
func Run(ctx context.Context, h Handler, g *Gateway, u models.User) error {
	p := tea.NewProgram(NewModel(ctx, h, g, u), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
