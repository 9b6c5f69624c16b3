// Package console writes staged progress output for the release workflow.
//
// Every line carries a short coloured tag (info, done, warn, error,
// verbose). Colours come from lipgloss and are dropped automatically when
// the destination is not a terminal, so piped output and tests see plain
// text. A nil *Logger is valid and discards everything.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Logger prints tagged progress lines to a single writer.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	styles  map[string]lipgloss.Style
}

// New creates a Logger writing to out. Verbose lines are printed only when
// verbose is true.
func New(out io.Writer, verbose bool) *Logger {
	r := lipgloss.NewRenderer(out)
	tag := func(color string) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	}
	return &Logger{
		out:     out,
		verbose: verbose,
		styles: map[string]lipgloss.Style{
			"info":    tag("#5B8DEF"),
			"done":    tag("#3FB950"),
			"warn":    tag("#E3B341"),
			"error":   tag("#FF6B6B"),
			"verbose": r.NewStyle().Foreground(lipgloss.Color("#888888")),
		},
	}
}

// Info reports a stage or step that is starting.
func (l *Logger) Info(format string, args ...interface{}) {
	l.print("info", format, args...)
}

// Success reports a completed step.
func (l *Logger) Success(format string, args ...interface{}) {
	l.print("done", format, args...)
}

// Warn reports a recoverable problem.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.print("warn", format, args...)
}

// Error reports a failure. The CLI prints the final error itself; this is
// for failures the workflow reports and then handles.
func (l *Logger) Error(format string, args ...interface{}) {
	l.print("error", format, args...)
}

// Verbose prints only when verbose output was requested.
func (l *Logger) Verbose(format string, args ...interface{}) {
	if !l.IsVerbose() {
		return
	}
	l.print("verbose", format, args...)
}

// IsVerbose reports whether verbose lines are printed.
func (l *Logger) IsVerbose() bool {
	return l != nil && l.verbose
}

func (l *Logger) print(tag, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	label := l.styles[tag].Render("[" + tag + "]")
	fmt.Fprintf(l.out, "%s %s\n", label, fmt.Sprintf(format, args...))
}
