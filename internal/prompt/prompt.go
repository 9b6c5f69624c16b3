// Package prompt asks the user for input in the terminal.
//
// Each question is a small bubbletea program that runs until the user
// confirms or cancels it: free text and secrets use the bubbles textinput
// component, single choice uses a cursor list. Styling comes from lipgloss.
// Callers depend on the Prompter interface, so tests substitute fakes.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user aborts a prompt (Ctrl+C or Esc).
var ErrCancelled = errors.New("prompt cancelled")

// Prompter asks blocking questions.
type Prompter interface {
	// Input asks for a line of text.
	Input(message string) (string, error)

	// Secret asks for a line of text without echoing it.
	Secret(message string) (string, error)

	// Select asks to pick one of choices and returns its index.
	// defaultIndex is preselected.
	Select(message string, choices []string, defaultIndex int) (int, error)
}

// Terminal is a Prompter bound to an input and output stream.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

var _ Prompter = (*Terminal)(nil)

// NewTerminal creates a Terminal. nil streams default to stdin and stderr;
// stderr keeps prompts out of --json output on stdout.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &Terminal{in: in, out: out}
}

// Input implements Prompter.
func (t *Terminal) Input(message string) (string, error) {
	return t.text(message, false)
}

// Secret implements Prompter.
func (t *Terminal) Secret(message string) (string, error) {
	return t.text(message, true)
}

// Select implements Prompter.
func (t *Terminal) Select(message string, choices []string, defaultIndex int) (int, error) {
	if len(choices) == 0 {
		return 0, fmt.Errorf("select %q: no choices", message)
	}
	final, err := t.run(newSelectModel(message, choices, defaultIndex))
	if err != nil {
		return 0, err
	}
	m := final.(selectModel)
	if m.cancelled {
		return 0, ErrCancelled
	}
	return m.cursor, nil
}

func (t *Terminal) text(message string, secret bool) (string, error) {
	final, err := t.run(newTextModel(message, secret))
	if err != nil {
		return "", err
	}
	m := final.(textModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.input.Value(), nil
}

func (t *Terminal) run(model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model, tea.WithInput(t.in), tea.WithOutput(t.out))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return final, nil
}
