package input

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/livepane/internal/app"
	"github.com/Gaurav-Gosain/livepane/internal/window"
)

// handleMouseClick handles mouse click events
func handleMouseClick(msg tea.MouseClickMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	if mouse.Button != tea.MouseLeft {
		return m, nil
	}
	x, y := mouse.X, mouse.Y

	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	k, ok := m.PanelAt(x, y)
	if !ok {
		if m.ConsoleRect().Contains(x, y) {
			m.Focus = app.FocusConsole
		}
		return m, nil
	}

	m.Raise(k)
	if b := m.ButtonAt(k, x, y); b != app.ButtonNone {
		m.PressButton(k, b)
		return m, nil
	}

	if k == window.Editor {
		m.Focus = app.FocusEditor
		if tab, ok := m.TabAt(x, y); ok {
			m.Tab = tab
			return m, nil
		}
	}

	// Dragging starts from the header; BeginDrag ignores docked panels.
	if m.OnHeader(k, x, y) {
		m.BeginDrag(k, window.Point{X: x, Y: y})
	}
	return m, nil
}

// handleMouseMotion moves a dragged panel. Only its visual position changes.
func handleMouseMotion(msg tea.MouseMotionMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	if !m.Dragging() {
		return m, nil
	}
	mouse := msg.Mouse()
	m.MoveDrag(window.Point{X: mouse.X, Y: mouse.Y})
	return m, nil
}

// handleMouseRelease commits every drag in progress, wherever the pointer is.
func handleMouseRelease(_ tea.MouseReleaseMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	m.EndDrags()
	return m, nil
}

// handleMouseWheel cycles the editor tabs when the wheel turns over them.
func handleMouseWheel(msg tea.MouseWheelMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	if k, ok := m.PanelAt(mouse.X, mouse.Y); !ok || k != window.Editor {
		return m, nil
	}
	if _, ok := m.TabAt(mouse.X, mouse.Y); !ok {
		return m, nil
	}
	switch mouse.Button {
	case tea.MouseWheelDown:
		m.NextTab()
	case tea.MouseWheelUp:
		m.PrevTab()
	}
	return m, nil
}
