package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New()
	})
	return markdownParser
}

// markdownRenderer walks a goldmark AST and writes styled terminal text.
// Inline content accumulates per block and is flushed when the block closes.
type markdownRenderer struct {
	source   []byte
	renderer *lipgloss.Renderer
	theme    Theme

	output strings.Builder
	inline strings.Builder

	boldCount   int
	italicCount int

	lists         []listState
	pendingBullet string
	indent        string
}

type listState struct {
	ordered bool
	counter int
}

// renderMarkdown converts markdown to styled terminal text.
func renderMarkdown(input string, r *lipgloss.Renderer, theme Theme) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	mr := &markdownRenderer{source: source, renderer: r, theme: theme}
	_ = ast.Walk(document, mr.walk)

	return strings.TrimRight(mr.output.String(), "\n")
}

func (mr *markdownRenderer) style() lipgloss.Style { return mr.renderer.NewStyle() }

func (mr *markdownRenderer) styledText(s string) string {
	if mr.boldCount == 0 && mr.italicCount == 0 {
		return s
	}
	st := mr.style()
	if mr.boldCount > 0 {
		st = st.Bold(true)
	}
	if mr.italicCount > 0 {
		st = st.Italic(true)
	}
	return st.Render(s)
}

func (mr *markdownRenderer) flushBlock(content string) {
	content = strings.TrimRight(content, " \n")
	if content == "" {
		return
	}

	prefix := mr.indent
	if mr.pendingBullet != "" {
		prefix = mr.pendingBullet
		mr.pendingBullet = ""
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i == 0 {
			mr.output.WriteString(prefix)
		} else {
			mr.output.WriteString(strings.Repeat(" ", lipgloss.Width(prefix)))
		}
		mr.output.WriteString(line)
		mr.output.WriteString("\n")
	}
}

func (mr *markdownRenderer) blankLine() {
	if len(mr.lists) > 0 {
		return
	}
	s := mr.output.String()
	if s != "" && !strings.HasSuffix(s, "\n\n") {
		mr.output.WriteString("\n")
	}
}

func (mr *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.Document:

	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			mr.inline.Reset()
			return ast.WalkContinue, nil
		}
		content := mr.inline.String()
		mr.inline.Reset()
		mr.flushBlock(content)
		mr.blankLine()

	case *ast.Heading:
		if entering {
			mr.inline.Reset()
			return ast.WalkContinue, nil
		}
		content := mr.inline.String()
		mr.inline.Reset()
		st := mr.style().Bold(true)
		if n.Level <= 2 {
			st = st.Foreground(mr.theme.Heading)
		}
		mr.blankLine()
		mr.flushBlock(st.Render(content))
		mr.blankLine()

	case *ast.FencedCodeBlock:
		if entering {
			mr.renderCode(n.Lines())
			return ast.WalkSkipChildren, nil
		}

	case *ast.CodeBlock:
		if entering {
			mr.renderCode(n.Lines())
			return ast.WalkSkipChildren, nil
		}

	case *ast.Blockquote:
		if entering {
			mr.indent += "│ "
		} else {
			mr.indent = strings.TrimSuffix(mr.indent, "│ ")
			mr.blankLine()
		}

	case *ast.List:
		if entering {
			mr.lists = append(mr.lists, listState{ordered: n.IsOrdered(), counter: n.Start})
		} else {
			mr.lists = mr.lists[:len(mr.lists)-1]
			mr.blankLine()
		}

	case *ast.ListItem:
		if entering {
			mr.enterListItem()
		} else {
			mr.indent = mr.indent[:len(mr.indent)-2]
		}

	case *ast.ThematicBreak:
		if entering {
			mr.flushBlock(mr.style().Foreground(mr.theme.Faint).Render(strings.Repeat("─", 24)))
			mr.blankLine()
		}

	case *ast.Text:
		if entering {
			mr.inline.WriteString(mr.styledText(string(n.Segment.Value(mr.source))))
			switch {
			case n.HardLineBreak():
				mr.inline.WriteString("\n")
			case n.SoftLineBreak():
				mr.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			mr.inline.WriteString(mr.styledText(string(n.Value)))
		}

	case *ast.Emphasis:
		counter := &mr.italicCount
		if n.Level >= 2 {
			counter = &mr.boldCount
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case *ast.CodeSpan:
		if entering {
			mr.inline.WriteString(mr.style().Foreground(mr.theme.Code).Render(mr.childText(n)))
			return ast.WalkSkipChildren, nil
		}

	case *ast.Link:
		if entering {
			label := mr.childText(n)
			dest := string(n.Destination)
			mr.inline.WriteString(mr.style().Underline(true).Render(label))
			if dest != "" && dest != label {
				mr.inline.WriteString(mr.style().Foreground(mr.theme.Faint).Render(fmt.Sprintf(" (%s)", dest)))
			}
			return ast.WalkSkipChildren, nil
		}

	case *ast.AutoLink:
		if entering {
			mr.inline.WriteString(mr.style().Underline(true).Render(string(n.URL(mr.source))))
			return ast.WalkSkipChildren, nil
		}

	case *ast.RawHTML, *ast.HTMLBlock:
		return ast.WalkSkipChildren, nil
	}

	return ast.WalkContinue, nil
}

func (mr *markdownRenderer) enterListItem() {
	top := &mr.lists[len(mr.lists)-1]

	bullet := "• "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}

	mr.pendingBullet = mr.indent + bullet
	mr.indent += "  "
}

func (mr *markdownRenderer) renderCode(lines *text.Segments) {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(mr.source))
	}

	code := strings.TrimRight(b.String(), "\n")
	st := mr.style().Foreground(mr.theme.Code)
	for _, line := range strings.Split(code, "\n") {
		mr.output.WriteString(mr.indent + "    " + st.Render(line) + "\n")
	}
	mr.blankLine()
}

// childText concatenates the raw text of n's descendants.
func (mr *markdownRenderer) childText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(mr.source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
