package preview

import (
	"fmt"
	"strings"
)

// Kind is one of the three source buffers.
type Kind int

const (
	Markup Kind = iota
	Style
	Script
)

// Kinds lists the buffers in editor tab order.
var Kinds = []Kind{Markup, Style, Script}

func (k Kind) String() string {
	switch k {
	case Markup:
		return "html"
	case Style:
		return "css"
	case Script:
		return "js"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Ext is the file extension used for the buffer, without the dot.
func (k Kind) Ext() string {
	return k.String()
}

// MIME is the content type used when the buffer is downloaded on its own.
func (k Kind) MIME() string {
	switch k {
	case Markup:
		return "text/html; charset=utf-8"
	case Style:
		return "text/css; charset=utf-8"
	case Script:
		return "text/javascript; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// ExportName is the file name used by save-html, save-css and save-js.
// For Markup the exported file is the composed document, not the raw buffer.
func (k Kind) ExportName() string {
	switch k {
	case Markup:
		return "webpage.html"
	case Style:
		return "styles.css"
	case Script:
		return "script.js"
	}
	return k.String()
}

// ParseKind accepts a tab name or a file extension.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "html", "htm", "markup":
		return Markup, nil
	case "css", "style":
		return Style, nil
	case "js", "javascript", "script":
		return Script, nil
	}
	return 0, fmt.Errorf("unknown buffer kind %q", s)
}

// Buffers holds the three source buffers. It is a value type; the host owns
// the current copy and replaces it wholesale on every edit.
type Buffers struct {
	Markup string
	Style  string
	Script string
}

// Get returns the buffer of kind k.
func (b Buffers) Get(k Kind) string {
	switch k {
	case Markup:
		return b.Markup
	case Style:
		return b.Style
	case Script:
		return b.Script
	}
	return ""
}

// With returns a copy of b with buffer k replaced.
func (b Buffers) With(k Kind, content string) Buffers {
	switch k {
	case Markup:
		b.Markup = content
	case Style:
		b.Style = content
	case Script:
		b.Script = content
	}
	return b
}

// Compose is shorthand for Compose(b.Markup, b.Style, b.Script).
func (b Buffers) Compose() string {
	return Compose(b.Markup, b.Style, b.Script)
}

// Starter returns the buffers a fresh workspace opens with.
func Starter() Buffers {
	return Buffers{
		Markup: `
<div class="box">
  <h1>Hello, World!</h1>
  <p>This is a test of HTML and CSS tabs.</p>
</div>
`,
		Style: `
.box {
  padding: 2rem;
  background-color: #fef08a;
  border-radius: 8px;
  text-align: center;
  font-family: sans-serif;
}
`,
		Script: `console.log("JS tab test");`,
	}
}
