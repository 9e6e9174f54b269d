// Package input routes keyboard, paste and mouse events to the studio.
package input

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/livepane/internal/app"
)

// HandleInput is the studio's input handler; see app.SetInputHandler.
func HandleInput(msg tea.Msg, m *app.Studio) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return HandleKey(msg, m)
	case tea.PasteMsg:
		return handlePaste(msg, m)
	case tea.MouseClickMsg:
		return handleMouseClick(msg, m)
	case tea.MouseMotionMsg:
		return handleMouseMotion(msg, m)
	case tea.MouseReleaseMsg:
		return handleMouseRelease(msg, m)
	case tea.MouseWheelMsg:
		return handleMouseWheel(msg, m)
	}
	return m, nil
}
