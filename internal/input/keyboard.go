package input

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/livepane/internal/app"
)

// HandleKey handles a key press. Bound actions come first; anything else is
// typed into the focused editor or console.
func HandleKey(msg tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	// Any key closes the help overlay.
	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	if action := m.Keybinds.GetAction(msg.Keystroke()); action != "" {
		return GetDispatcher().Dispatch(action, msg, m)
	}

	if m.Focus == app.FocusConsole {
		return handleConsoleKey(msg, m)
	}
	return handleEditorKey(msg, m)
}

func handleConsoleKey(msg tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEnter:
		m.SubmitConsole()
	case tea.KeyBackspace:
		m.Console.Backspace()
	default:
		if msg.Mod == 0 || msg.Mod == tea.ModShift {
			m.Console.Type(msg.Text)
		}
	}
	return m, nil
}

func handleEditorKey(msg tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEnter:
		m.TypeText("\n")
	case tea.KeyBackspace:
		m.Backspace()
	default:
		if msg.Mod == 0 || msg.Mod == tea.ModShift {
			m.TypeText(msg.Text)
		}
	}
	return m, nil
}

func handlePaste(msg tea.PasteMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	if m.Focus == app.FocusConsole {
		m.Console.Type(msg.Content)
		return m, nil
	}
	m.TypeText(msg.Content)
	return m, nil
}
