package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/groupchat"
)

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, func(o *PrinterOptions) { o.Plain = true })

	require.NoError(t, p.Message(core.NewAgentMessage("writer", "  **draft** ready\n")))
	assert.Equal(t, "writer:\n**draft** ready\n\n", buf.String())
}

func TestPrinter_Markdown(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	content := strings.Join([]string{
		"# Draft",
		"",
		"Some **bold** and *soft* text",
		"wrapped text with `code`.",
		"",
		"- first",
		"- second",
		"",
		"1. one",
		"2. two",
		"",
		"See [docs](https://example.com).",
		"",
		"```go",
		"fmt.Println(1)",
		"```",
	}, "\n")

	require.NoError(t, p.Message(core.NewAgentMessage("writer", content)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "writer:\n"))
	assert.Contains(t, out, "Draft")
	assert.NotContains(t, out, "# Draft")
	assert.Contains(t, out, "Some bold and soft text wrapped text with code.")
	assert.Contains(t, out, "• first\n• second")
	assert.Contains(t, out, "1. one\n2. two")
	assert.Contains(t, out, "See docs (https://example.com).")
	assert.Contains(t, out, "    fmt.Println(1)")
}

func TestPrinter_Outcome(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, func(o *PrinterOptions) { o.Plain = true })

	require.NoError(t, p.Outcome(groupchat.State{
		Outcome:    groupchat.OutcomeIterationLimit,
		Iterations: 10,
		Reason:     groupchat.ReasonIterationLimit,
	}))

	assert.Equal(t, "Conversation iteration_limit after 10 turn(s): iteration limit reached\n", buf.String())
}

func TestRenderMarkdown_Empty(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{})
	assert.Empty(t, renderMarkdown("  \n", p.renderer, DefaultTheme))
}

func TestRenderMarkdown_NestedList(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{})
	out := renderMarkdown("- outer\n  - inner", p.renderer, DefaultTheme)
	assert.Equal(t, "• outer\n  • inner", out)
}
