package app

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/livepane/internal/workspace"
)

// WorkspaceChangeMsg carries a buffer file that changed on disk.
type WorkspaceChangeMsg workspace.Change

// WorkspaceClosedMsg is sent once the workspace watcher stops.
type WorkspaceClosedMsg struct{}

// ClockMsg refreshes the title bar clock.
type ClockMsg time.Time

// InputHandler is a function type that handles input messages.
// This allows the Update method to delegate to the input package without creating a circular dependency.
type InputHandler func(msg tea.Msg, m *Studio) (tea.Model, tea.Cmd)

// inputHandler is the registered input handler function.
var inputHandler InputHandler

// SetInputHandler registers the input handler function.
// This must be called during initialization before the Update loop runs.
func SetInputHandler(handler InputHandler) {
	inputHandler = handler
}

// Init starts the clock and listens for workspace changes.
func (m *Studio) Init() tea.Cmd {
	cmds := []tea.Cmd{ClockCmd()}
	if m.changes != nil {
		cmds = append(cmds, ListenForChanges(m.changes))
	}
	return tea.Batch(cmds...)
}

// ListenForChanges converts the next workspace change into a message.
func ListenForChanges(changes <-chan workspace.Change) tea.Cmd {
	return func() tea.Msg {
		ch, ok := <-changes
		if !ok {
			return WorkspaceClosedMsg{}
		}
		return WorkspaceChangeMsg(ch)
	}
}

// ClockCmd ticks once a minute, on the minute.
func ClockCmd() tea.Cmd {
	return tea.Every(time.Minute, func(t time.Time) tea.Msg {
		return ClockMsg(t)
	})
}

// Update handles all incoming messages and updates the studio state.
func (m *Studio) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case WorkspaceChangeMsg:
		m.SetBuffer(msg.Kind, msg.Content)
		m.logger.Debug("buffer reloaded from disk", "kind", msg.Kind)
		return m, ListenForChanges(m.changes)

	case WorkspaceClosedMsg:
		m.changes = nil
		return m, nil

	case ClockMsg:
		return m, ClockCmd()

	case tea.KeyPressMsg, tea.PasteMsg,
		tea.MouseClickMsg, tea.MouseReleaseMsg, tea.MouseMotionMsg, tea.MouseWheelMsg:
		if inputHandler != nil {
			return inputHandler(msg, m)
		}
	}
	return m, nil
}

// FilterMouseMotion drops pointer motion while nothing is being dragged, so
// an idle pointer sweeping across the terminal does not redraw the studio.
func FilterMouseMotion(model tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.MouseMotionMsg); !ok {
		return msg
	}
	if m, ok := model.(*Studio); ok && !m.Dragging() {
		return nil
	}
	return msg
}
