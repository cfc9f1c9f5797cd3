// Package textfmt turns model-generated markdown into text suitable for chat
// clients that do not render markdown.
package textfmt

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// PlainText renders src as plain text: emphasis markers and headings are
// dropped, bullets become "• ", ordered items keep their numbers and link
// targets follow their text in parentheses.
func PlainText(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var w plainWriter
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				w.write(string(node.Segment.Value(source)))
				if node.SoftLineBreak() || node.HardLineBreak() {
					w.newline()
				}
			}
		case *ast.String:
			if entering {
				w.write(string(node.Value))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					w.write(string(seg.Value(source)))
				}
				w.newline()
			}
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			if entering {
				w.write(string(node.URL(source)))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if !entering {
				dest := string(node.Destination)
				if dest != "" && !strings.HasSuffix(w.String(), dest) {
					w.write(" (" + dest + ")")
				}
			}
		case *ast.ListItem:
			if entering {
				w.newline()
				w.write(strings.Repeat("  ", listDepth(node)))
				w.write(itemMarker(node))
			}
		case *ast.ThematicBreak:
			if entering {
				w.newline()
				w.write("----")
				w.newline()
			}
		case *extast.TableCell:
			if !entering && node.NextSibling() != nil {
				w.write(" | ")
			}
		case *extast.TableHeader, *extast.TableRow, *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				w.newline()
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(w.String())
}

func listDepth(item *ast.ListItem) int {
	depth := -1
	for p := item.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.List); ok {
			depth++
		}
	}
	if depth < 0 {
		return 0
	}
	return depth
}

func itemMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "• "
	}
	index := 0
	for s := item.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		index++
	}
	return strconv.Itoa(list.Start+index) + ". "
}

// plainWriter accumulates output and collapses repeated newlines.
type plainWriter struct {
	sb strings.Builder
}

func (w *plainWriter) write(s string) {
	w.sb.WriteString(s)
}

func (w *plainWriter) newline() {
	out := w.sb.String()
	if out == "" || strings.HasSuffix(out, "\n") {
		return
	}
	w.sb.WriteByte('\n')
}

func (w *plainWriter) String() string {
	return w.sb.String()
}
