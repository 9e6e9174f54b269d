package sandbox

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextSurface shows the composed document in a terminal pane. It keeps the
// raw source and a plain-text rendering of the body. Scripts never run here;
// style and script blocks are dropped from the rendering.
//
// Documents that are not valid UTF-8 are refused, since they cannot be drawn.
type TextSurface struct {
	doc   string
	lines []string
	text  []string
	loads int
}

// Load replaces the current document.
func (t *TextSurface) Load(doc string) error {
	if !utf8.ValidString(doc) {
		return fmt.Errorf("%w: invalid UTF-8", ErrRefused)
	}
	t.doc = doc
	t.lines = strings.Split(strings.ReplaceAll(doc, "\t", "  "), "\n")
	t.text = RenderText(doc)
	t.loads++
	return nil
}

// Document returns the currently loaded document.
func (t *TextSurface) Document() string {
	return t.doc
}

// Lines returns the document source split into display lines.
func (t *TextSurface) Lines() []string {
	return t.lines
}

// Text returns the plain-text rendering of the document body.
func (t *TextSurface) Text() []string {
	return t.text
}

// Loads returns how many documents have been loaded.
func (t *TextSurface) Loads() int {
	return t.loads
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Main: true, atom.Nav: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Table: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Pre: true, atom.Blockquote: true, atom.Form: true, atom.Hr: true,
}

var headingLevel = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// RenderText approximates how a browser would lay out the text of doc: one
// line per block element, headings marked with '#', list items with '•',
// whitespace collapsed outside <pre>. Malformed markup is rendered as far as
// the tokenizer gets; it is never an error.
func RenderText(doc string) []string {
	z := html.NewTokenizer(strings.NewReader(doc))

	var (
		lines []string
		cur   strings.Builder
		skip  int // depth inside <script>, <style>, <head>
		pre   int
	)
	flush := func() {
		line := strings.TrimRight(cur.String(), " ")
		if line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				logger.Debug("text rendering stopped early", "err", z.Err())
			}
			flush()
			return lines

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Script || a == atom.Style || a == atom.Head:
				if tt == html.StartTagToken {
					skip++
				}
			case a == atom.Br:
				flush()
			case a == atom.Pre:
				flush()
				pre++
			case blockElements[a]:
				flush()
				if lvl, ok := headingLevel[a]; ok {
					cur.WriteString(strings.Repeat("#", lvl) + " ")
				}
				if a == atom.Li {
					cur.WriteString("• ")
				}
				if a == atom.Hr {
					lines = append(lines, "────────")
				}
			case a == atom.Td || a == atom.Th:
				if cur.Len() > 0 {
					cur.WriteString(" | ")
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Script || a == atom.Style || a == atom.Head:
				if skip > 0 {
					skip--
				}
			case a == atom.Pre:
				flush()
				if pre > 0 {
					pre--
				}
			case blockElements[a]:
				flush()
			}

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(z.Text())
			if pre > 0 {
				parts := strings.Split(text, "\n")
				for i, p := range parts {
					if i > 0 {
						flush()
					}
					cur.WriteString(p)
				}
				continue
			}
			words := strings.Fields(text)
			if len(words) == 0 {
				if cur.Len() > 0 && text != "" {
					cur.WriteString(" ")
				}
				continue
			}
			if cur.Len() > 0 && startsWithSpace(text) && !strings.HasSuffix(cur.String(), " ") {
				cur.WriteString(" ")
			}
			cur.WriteString(strings.Join(words, " "))
			if endsWithSpace(text) {
				cur.WriteString(" ")
			}
		}
	}
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n") != s
}
