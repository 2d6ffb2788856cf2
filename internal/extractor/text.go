package extractor

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const nbsp = '\u00a0'

// blockElements end the current line before and after their content.
var blockElements = map[atom.Atom]bool{
	atom.Div: true, atom.Blockquote: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Table: true, atom.Tr: true, atom.Pre: true, atom.Figure: true, atom.Figcaption: true,
	atom.Dl: true, atom.Dt: true, atom.Dd: true,
}

// skippedElements never contribute text.
var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// lineBuilder accumulates rendered lines. A paragraph end or an empty line
// (two consecutive breaks) yields a blank line, which is a stanza boundary.
type lineBuilder struct {
	lines   []string
	current strings.Builder
	pre     int
}

// bodyLines renders the poem body node into lines the way a browser lays them out.
func bodyLines(root *html.Node) []string {
	b := &lineBuilder{}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}

	b.endBlock()

	lines := make([]string, len(b.lines))
	for i, line := range b.lines {
		lines[i] = finishLine(line)
	}

	return lines
}

func (b *lineBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.text(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.walk(c)
		}

		return
	}

	switch {
	case skippedElements[n.DataAtom]:
		return
	case n.DataAtom == atom.Br:
		b.breakLine()
		return
	case n.DataAtom == atom.Hr:
		b.endParagraph()
		return
	}

	isParagraph := n.DataAtom == atom.P
	isBlock := isParagraph || blockElements[n.DataAtom]

	if isBlock {
		b.endBlock()
	}

	if n.DataAtom == atom.Pre {
		b.pre++
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}

	if n.DataAtom == atom.Pre {
		b.pre--
	}

	switch {
	case isParagraph:
		b.endParagraph()
	case isBlock:
		b.endBlock()
	}
}

func (b *lineBuilder) text(s string) {
	if b.pre > 0 {
		for i, part := range strings.Split(s, "\n") {
			if i > 0 {
				b.breakLine()
			}
			// literal spacing inside <pre> survives finishLine as indentation
			b.current.WriteString(strings.Map(func(r rune) rune {
				if r == ' ' || r == '\t' {
					return nbsp
				}

				return r
			}, part))
		}

		return
	}

	b.current.WriteString(collapseSpace(s))
}

func (b *lineBuilder) breakLine() {
	b.lines = append(b.lines, b.current.String())
	b.current.Reset()
}

// endBlock finishes the current line unless it only holds collapsible whitespace.
func (b *lineBuilder) endBlock() {
	if strings.Trim(b.current.String(), " ") == "" && !strings.ContainsRune(b.current.String(), nbsp) {
		b.current.Reset()
		return
	}

	b.breakLine()
}

func (b *lineBuilder) endParagraph() {
	b.endBlock()

	if n := len(b.lines); n > 0 && strings.TrimSpace(b.lines[n-1]) != "" {
		b.lines = append(b.lines, "")
	}
}

// collapseSpace folds runs of HTML whitespace into one space. NBSP is kept.
func collapseSpace(s string) string {
	var sb strings.Builder

	sb.Grow(len(s))

	inSpace := false

	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !inSpace {
				sb.WriteByte(' ')
			}

			inSpace = true

			continue
		}

		inSpace = false

		sb.WriteRune(r)
	}

	return sb.String()
}

// finishLine drops layout whitespace, trims trailing space and turns leading
// NBSP indentation into plain spaces.
func finishLine(line string) string {
	line = strings.Trim(line, " \t\r\n\f")
	line = strings.TrimRightFunc(line, unicode.IsSpace)

	return strings.ReplaceAll(line, string(nbsp), " ")
}
