// Package render prints a running group conversation to a terminal. Agent
// messages are markdown and are rendered with styling unless plain output is
// requested.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/groupchat"
)

// Theme holds the colors used for terminal output.
type Theme struct {
	Speaker lipgloss.TerminalColor
	User    lipgloss.TerminalColor
	Heading lipgloss.TerminalColor
	Code    lipgloss.TerminalColor
	Faint   lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Failure lipgloss.TerminalColor
}

// DefaultTheme is the magenta speaker theme.
var DefaultTheme = Theme{
	Speaker: lipgloss.Color("5"),
	User:    lipgloss.Color("6"),
	Heading: lipgloss.Color("12"),
	Code:    lipgloss.Color("3"),
	Faint:   lipgloss.Color("8"),
	Success: lipgloss.Color("2"),
	Failure: lipgloss.Color("1"),
}

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	// Plain disables markdown rendering and colors.
	Plain bool
	// Theme overrides DefaultTheme.
	Theme *Theme
}

// Printer writes conversation messages and the final outcome.
type Printer struct {
	out      io.Writer
	plain    bool
	theme    Theme
	renderer *lipgloss.Renderer
}

// NewPrinter creates a Printer writing to out (os.Stdout when nil).
func NewPrinter(out io.Writer, optFns ...func(o *PrinterOptions)) *Printer {
	opts := PrinterOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if out == nil {
		out = os.Stdout
	}

	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	return &Printer{
		out:      out,
		plain:    opts.Plain,
		theme:    theme,
		renderer: lipgloss.NewRenderer(out),
	}
}

// Message prints one conversation message under its speaker label.
func (p *Printer) Message(m core.Message) error {
	if p.plain {
		_, err := fmt.Fprintf(p.out, "%s:\n%s\n\n", m.Speaker, strings.TrimSpace(m.Content))
		return err
	}

	color := p.theme.Speaker
	if m.Role == core.RoleUser {
		color = p.theme.User
	}

	label := p.renderer.NewStyle().Bold(true).Foreground(color).Render(m.Speaker + ":")
	body := renderMarkdown(m.Content, p.renderer, p.theme)

	_, err := fmt.Fprintf(p.out, "%s\n%s\n\n", label, body)
	return err
}

// Outcome prints a one-line summary of the finished conversation.
func (p *Printer) Outcome(st groupchat.State) error {
	line := fmt.Sprintf("Conversation %s after %d turn(s): %s", st.Outcome, st.Iterations, st.Reason)

	if !p.plain {
		color := p.theme.Success
		if st.Outcome == groupchat.OutcomeAborted {
			color = p.theme.Failure
		}
		line = p.renderer.NewStyle().Bold(true).Foreground(color).Render(line)
	}

	_, err := fmt.Fprintln(p.out, line)
	return err
}
