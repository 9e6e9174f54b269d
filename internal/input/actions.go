package input

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/livepane/internal/app"
	"github.com/Gaurav-Gosain/livepane/internal/theme"
	"github.com/Gaurav-Gosain/livepane/internal/window"
)

// ActionHandler is a function that handles a specific action
type ActionHandler func(msg tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd)

// ActionDispatcher maps action names to handler functions
type ActionDispatcher struct {
	handlers map[string]ActionHandler
}

// NewActionDispatcher creates a new action dispatcher with all handlers registered
func NewActionDispatcher() *ActionDispatcher {
	d := &ActionDispatcher{
		handlers: make(map[string]ActionHandler),
	}
	d.registerHandlers()
	return d
}

func (d *ActionDispatcher) registerHandlers() {
	// Window actions
	d.Register("minimize_preview", makePanelHandler(window.Preview, (*app.Studio).ToggleMinimize))
	d.Register("minimize_editor", makePanelHandler(window.Editor, (*app.Studio).ToggleMinimize))
	d.Register("detach_preview", makePanelHandler(window.Preview, (*app.Studio).ToggleDetach))
	d.Register("detach_editor", makePanelHandler(window.Editor, (*app.Studio).ToggleDetach))
	d.Register("restore_all", handleRestoreAll)

	// Editing
	d.Register("next_tab", handleNextTab)
	d.Register("prev_tab", handlePrevTab)
	d.Register("focus_console", handleFocusConsole)
	d.Register("focus_editor", handleFocusEditor)

	// General
	d.Register("toggle_source", handleToggleSource)
	d.Register("toggle_theme", handleToggleTheme)
	d.Register("toggle_help", handleToggleHelp)
	d.Register("quit", handleQuit)
}

// Register adds an action handler
func (d *ActionDispatcher) Register(action string, handler ActionHandler) {
	d.handlers[action] = handler
}

// Dispatch executes the handler for a given action
func (d *ActionDispatcher) Dispatch(action string, msg tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	if handler, ok := d.handlers[action]; ok {
		return handler(msg, m)
	}
	return m, nil
}

// HasAction checks if an action is registered
func (d *ActionDispatcher) HasAction(action string) bool {
	_, ok := d.handlers[action]
	return ok
}

var globalDispatcher = NewActionDispatcher()

// GetDispatcher returns the global action dispatcher
func GetDispatcher() *ActionDispatcher {
	return globalDispatcher
}

func makePanelHandler(k window.Kind, fn func(*app.Studio, window.Kind)) ActionHandler {
	return func(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
		fn(m, k)
		return m, nil
	}
}

func handleRestoreAll(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	for _, k := range window.Kinds {
		m.Restore(k)
	}
	return m, nil
}

func handleNextTab(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	m.NextTab()
	return m, nil
}

func handlePrevTab(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	m.PrevTab()
	return m, nil
}

func handleFocusConsole(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	m.Focus = app.FocusConsole
	return m, nil
}

func handleFocusEditor(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	m.Focus = app.FocusEditor
	return m, nil
}

func handleToggleSource(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	m.ShowSource = !m.ShowSource
	return m, nil
}

func handleToggleTheme(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	theme.ToggleDark()
	return m, nil
}

func handleToggleHelp(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	m.ShowHelp = !m.ShowHelp
	return m, nil
}

func handleQuit(_ tea.KeyPressMsg, m *app.Studio) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}
