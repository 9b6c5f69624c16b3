package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// textModel reads one line of text.
type textModel struct {
	message   string
	secret    bool
	input     textinput.Model
	done      bool
	cancelled bool
}

func newTextModel(message string, secret bool) textModel {
	input := textinput.New()
	input.Prompt = "> "
	if secret {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '*'
	}
	input.Focus()
	return textModel{message: message, secret: secret, input: input}
}

func (m textModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m textModel) View() string {
	question := questionStyle.Render("? " + m.message)
	if m.done {
		answer := m.input.Value()
		if m.secret {
			answer = strings.Repeat("*", len([]rune(answer)))
		}
		return question + " " + answerStyle.Render(answer) + "\n"
	}
	if m.cancelled {
		return question + "\n"
	}
	return question + "\n" + m.input.View() + "\n"
}

// selectModel picks one entry from a list.
type selectModel struct {
	message   string
	choices   []string
	cursor    int
	done      bool
	cancelled bool
}

func newSelectModel(message string, choices []string, defaultIndex int) selectModel {
	if defaultIndex < 0 || defaultIndex >= len(choices) {
		defaultIndex = 0
	}
	return selectModel{message: message, choices: choices, cursor: defaultIndex}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "k", "shift+tab":
		m.cursor = (m.cursor - 1 + len(m.choices)) % len(m.choices)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(m.choices)
	}
	return m, nil
}

func (m selectModel) View() string {
	question := questionStyle.Render("? " + m.message)
	if m.done {
		return question + " " + answerStyle.Render(m.choices[m.cursor]) + "\n"
	}
	if m.cancelled {
		return question + "\n"
	}

	var b strings.Builder
	b.WriteString(question)
	b.WriteString(" " + hintStyle.Render("(use arrow keys)") + "\n")
	for i, choice := range m.choices {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString("  " + choice + "\n")
		}
	}
	return b.String()
}
