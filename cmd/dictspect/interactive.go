package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrel-engine/kestrel-go/enginetest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E5A88")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// historyLen bounds the transcript shown above the prompt.
const historyLen = 12

type entry struct {
	line   string
	output string
	isErr  bool
}

type interactiveModel struct {
	session *session
	input   textinput.Model
	history []entry
}

func newInteractiveModel(eng *enginetest.Engine) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "dict> "
	ti.Placeholder = "help"
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{
		session: newSession(eng),
		input:   ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.session.Close()
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "exit" {
				m.session.Close()
				return m, tea.Quit
			}
			out, err := m.session.Eval(line)
			e := entry{line: line, output: out}
			if err != nil {
				e.output = err.Error()
				e.isErr = true
			}
			m.history = append(m.history, e)
			if len(m.history) > historyLen {
				m.history = m.history[len(m.history)-historyLen:]
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Dictionary Inspector"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.session.dict.String()))
	b.WriteString("\n\n")

	for _, e := range m.history {
		b.WriteString(promptStyle.Render("dict> " + e.line))
		b.WriteString("\n")
		style := resultStyle
		if e.isErr {
			style = errorStyle
		}
		for _, line := range strings.Split(e.output, "\n") {
			b.WriteString(style.Render("  " + line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("enter run • help commands • esc quit"))

	return b.String()
}

func runInteractive(eng *enginetest.Engine) error {
	p := tea.NewProgram(newInteractiveModel(eng), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
