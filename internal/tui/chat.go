package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"paperchat/internal/pipeline"
)

// Answerer is the TUI-facing subset of the retrieval pipeline.
type Answerer interface {
	AnswerStream(ctx context.Context, question string, fn func(fragment string) error) (*pipeline.Answer, error)
}

// streamEvent is one unit of progress from an in-flight answer. Done
// events carry the cited sources; failed turns carry err.
type streamEvent struct {
	fragment string
	done     bool
	sources  []string
	err      error
}

// Model is the Bubble Tea model for the chat session. One answer is in
// flight at a time; input is ignored while busy.
type Model struct {
	answerer   Answerer
	input      textinput.Model
	viewport   viewport.Model
	transcript string
	events     chan streamEvent
	busy       bool
	ready      bool
	status     string
}

// New creates a chat model over the given answerer.
func New(answerer Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your papers and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		answerer: answerer,
		input:    ti,
		viewport: vp,
		status:   "Ready. Ctrl+C to quit.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.transcript)
		m.viewport.GotoBottom()
		return m, nil

	case streamEvent:
		return m.applyEvent(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				return m.startTurn(q)
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript, the input box, and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("paperchat")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) startTurn(question string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = "Thinking..."
	m.input.SetValue("")
	m.transcript += questionStyle.Render("You: "+question) + "\n\n"
	m.refresh()

	events := make(chan streamEvent, 32)
	m.events = events
	answerer := m.answerer
	go func() {
		answer, err := answerer.AnswerStream(context.Background(), question, func(fragment string) error {
			events <- streamEvent{fragment: fragment}
			return nil
		})
		if err != nil {
			events <- streamEvent{done: true, err: err}
			return
		}
		if answer == nil {
			events <- streamEvent{done: true}
			return
		}
		events <- streamEvent{done: true, sources: answer.Sources}
	}()
	return m, m.awaitEvent()
}

// awaitEvent blocks on the next stream event from the worker goroutine.
func (m Model) awaitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) applyEvent(ev streamEvent) (tea.Model, tea.Cmd) {
	if !ev.done {
		m.transcript += ev.fragment
		m.refresh()
		return m, m.awaitEvent()
	}
	m.busy = false
	switch {
	case ev.err != nil:
		m.transcript += errorStyle.Render("Error: "+ev.err.Error()) + "\n\n"
		m.status = "Turn failed. Ask again."
	case len(ev.sources) == 0:
		m.transcript += "No relevant documents found. Ingest some PDFs first.\n\n"
		m.status = "Ready."
	default:
		m.transcript += "\n" + sourceStyle.Render("[Sources] "+strings.Join(ev.sources, ", ")) + "\n\n"
		m.status = "Ready."
	}
	m.refresh()
	return m, nil
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript)
	m.viewport.GotoBottom()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
