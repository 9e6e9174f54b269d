package window

import (
	"fmt"
	"strings"
)

// Kind identifies one of the hosted panels.
type Kind int

const (
	// Preview hosts the rendered document.
	Preview Kind = iota
	// Editor hosts the markup/style/script buffers.
	Editor
)

// Kinds lists every panel in grid order (left to right).
var Kinds = []Kind{Preview, Editor}

func (k Kind) String() string {
	switch k {
	case Preview:
		return "preview"
	case Editor:
		return "editor"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Title is the label shown in the panel header.
func (k Kind) Title() string {
	switch k {
	case Preview:
		return "Live Preview"
	case Editor:
		return "Code Editor"
	}
	return k.String()
}

// ParseKind resolves a panel name typed by the user.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "preview", "live", "live-preview":
		return Preview, nil
	case "editor", "code", "code-editor":
		return Editor, nil
	}
	return 0, fmt.Errorf("unknown panel %q", name)
}

// Offset is a detach position expressed as fractions of the viewport.
type Offset struct {
	X float64
	Y float64
}

// DefaultOffsets places newly detached windows at distinct spots so two
// floating windows never land exactly on top of each other.
var DefaultOffsets = map[Kind]Offset{
	Preview: {X: 0.25, Y: 0.25},
	Editor:  {X: 0.5, Y: 0.25},
}

// DetachPoint resolves an offset against a viewport of width x height cells.
func DetachPoint(o Offset, width, height int) Point {
	return Point{
		X: int(float64(width) * o.X),
		Y: int(float64(height) * o.Y),
	}
}
