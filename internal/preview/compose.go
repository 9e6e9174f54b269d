// Package preview assembles the markup, style and script buffers into a
// single HTML document and exports them to disk.
package preview

import "strings"

const (
	docOpen    = "<!DOCTYPE html>\n<html>\n<head>\n"
	styleOpen  = "<style>"
	styleClose = "</style>\n"
	headClose  = "</head>\n<body>\n"
	scriptOpen = "\n<script>"
	docClose   = "</script>\n</body>\n</html>\n"
)

// Compose builds the preview document. The three inputs are copied verbatim:
// style into the head, markup into the body, script into a script block after
// the markup. Nothing is escaped, parsed or validated.
func Compose(markup, style, script string) string {
	var b strings.Builder
	b.Grow(len(docOpen) + len(styleOpen) + len(styleClose) + len(headClose) +
		len(scriptOpen) + len(docClose) + len(markup) + len(style) + len(script))

	b.WriteString(docOpen)
	b.WriteString(styleOpen)
	b.WriteString(style)
	b.WriteString(styleClose)
	b.WriteString(headClose)
	b.WriteString(markup)
	b.WriteString(scriptOpen)
	b.WriteString(script)
	b.WriteString(docClose)
	return b.String()
}
