// Package tui renders the voice session as a minimal terminal UI: a state
// line, the running transcript, and a transient error banner.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/voxmail-ai/voxmail-core/core/events"
)

// EventMsg delivers a session event into the UI loop. Forward events with
// Program.Send from the session's event handler.
type EventMsg struct {
	Event events.Event
}

type clearErrorMsg struct{}

const errorBannerDuration = 5 * time.Second

var (
	stateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	replyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("9")).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

type transcriptLine struct {
	speaker string
	text    string
}

// Model is the bubbletea model for the session view.
type Model struct {
	state      string
	transcript []transcriptLine

	// partial accumulates the streamed reply until it is finalized.
	partial string

	errorBanner string
	spinner     spinner.Model
	width       int

	onQuit func()
}

// New builds the model. onQuit runs once when the user quits, before the
// program exits; use it to stop the session.
func New(onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	if onQuit == nil {
		onQuit = func() {}
	}
	return Model{
		state:   "idle",
		spinner: s,
		width:   80,
		onQuit:  onQuit,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.onQuit()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		return m.applyEvent(msg.Event)

	case clearErrorMsg:
		m.errorBanner = ""
	}

	return m, nil
}

func (m Model) applyEvent(event events.Event) (tea.Model, tea.Cmd) {
	switch event := event.(type) {
	case events.StateChanged:
		m.state = event.To

	case events.UserTranscript:
		m.transcript = append(m.transcript, transcriptLine{speaker: "you", text: event.Transcript})
		m.partial = ""

	case events.AssistantResponseSegment:
		m.partial += event.Segment

	case events.AssistantResponseFinal:
		m.transcript = append(m.transcript, transcriptLine{speaker: "assistant", text: event.Reply})
		m.partial = ""

	case events.AssistantInterrupted:
		if partial := strings.TrimSpace(m.partial); partial != "" {
			m.transcript = append(m.transcript, transcriptLine{speaker: "assistant", text: partial + " —"})
		}
		m.partial = ""

	case events.SessionEnded:
		return m, tea.Quit

	case events.Error:
		m.errorBanner = event.String()
		return m, tea.Tick(errorBannerDuration, func(time.Time) tea.Msg {
			return clearErrorMsg{}
		})
	}

	return m, nil
}

func (m Model) View() string {
	b := strings.Builder{}

	header := "voxmail " + stateStyle.Render(m.state)
	if m.state == "processing" {
		header += " " + m.spinner.View()
	}
	b.WriteString(header + "\n\n")

	for _, line := range m.transcript {
		style := replyStyle
		if line.speaker == "you" {
			style = userStyle
		}
		b.WriteString(style.Render(line.speaker+": ") + wordwrap.String(line.text, m.width-4) + "\n")
	}
	if m.partial != "" {
		b.WriteString(faintStyle.Render("assistant: "+wordwrap.String(m.partial, m.width-4)) + "\n")
	}

	if m.errorBanner != "" {
		b.WriteString("\n" + errorStyle.Render(wordwrap.String(m.errorBanner, m.width-4)) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("speak to interact • q to quit"))
	return b.String()
}
