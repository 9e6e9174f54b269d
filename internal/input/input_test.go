package input

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/livepane/internal/app"
	"github.com/Gaurav-Gosain/livepane/internal/config"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/window"
)

const tabWidth = 8

func newStudio(t *testing.T) *app.Studio {
	t.Helper()
	app.SetInputHandler(HandleInput)
	m := app.New(app.Options{
		ExportDir: t.TempDir(),
		Now:       func() time.Time { return time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC) },
	})
	m.Update(tea.WindowSizeMsg{Width: 300, Height: 300})
	return m
}

func send(m *app.Studio, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func click(x, y int) tea.MouseClickMsg {
	return tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft}
}

func motion(x, y int) tea.MouseMotionMsg {
	return tea.MouseMotionMsg{X: x, Y: y, Button: tea.MouseLeft}
}

func release(x, y int) tea.MouseReleaseMsg {
	return tea.MouseReleaseMsg{X: x, Y: y, Button: tea.MouseLeft}
}

func key(code rune, mod tea.KeyMod) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code, Mod: mod}
}

func text(s string) tea.KeyPressMsg {
	r := []rune(s)
	return tea.KeyPressMsg{Code: r[0], Text: s}
}

func TestDragByHeader(t *testing.T) {
	m := newStudio(t)
	m.ApplyEvent(window.Preview, window.DetachRequested{Position: window.Point{X: 100, Y: 100}})
	p := m.Panel(window.Preview)

	// Header row of the floating panel, away from its buttons.
	send(m, click(120, 101))
	if !p.State.Dragging {
		t.Fatal("press on the header did not start a drag")
	}

	send(m, motion(150, 140), motion(200, 251))
	if got := p.VisualPosition(); got != (window.Point{X: 180, Y: 250}) {
		t.Errorf("visual position = %v, want (180,250)", got)
	}
	if p.State.Position != (window.Point{X: 100, Y: 100}) {
		t.Errorf("state written before release: %v", p.State.Position)
	}

	// Release lands outside the panel; the drag still ends.
	send(m, release(5, 5))
	want := window.State{Detached: true, Position: window.Point{X: 180, Y: 250}}
	if p.State != want {
		t.Errorf("state = %v, want %v", p.State, want)
	}

	send(m, motion(10, 10))
	if p.State.Position != want.Position {
		t.Error("motion after release moved the panel")
	}
}

func TestPressOnBodyDoesNotDrag(t *testing.T) {
	m := newStudio(t)
	m.ApplyEvent(window.Preview, window.DetachRequested{Position: window.Point{X: 100, Y: 100}})

	send(m, click(120, 110))
	if m.Dragging() {
		t.Error("press on the body started a drag")
	}
}

func TestDockedHeaderDoesNotDrag(t *testing.T) {
	m := newStudio(t)
	send(m, click(5, 2), motion(40, 40), release(40, 40))
	if s := m.Panel(window.Preview).State; s != window.New() {
		t.Errorf("docked preview state = %v", s)
	}
}

func TestHeaderButtonClicks(t *testing.T) {
	m := newStudio(t)
	r := m.PanelRect(window.Editor)
	right := r.X + r.W - 1
	header := r.Y + 1

	send(m, click(right-8, header))
	if !m.Panel(window.Editor).State.Minimized {
		t.Fatal("minimize click ignored")
	}

	// The minimized panel keeps its header at the same place.
	send(m, click(right-5, header))
	s := m.Panel(window.Editor).State
	if !s.Detached || !s.Minimized {
		t.Fatalf("after detach click = %v", s)
	}

	r = m.PanelRect(window.Editor)
	send(m, click(r.X+r.W-3, r.Y+1))
	if s := m.Panel(window.Editor).State; s != window.New() {
		t.Errorf("after restore click = %v", s)
	}
}

func TestTabClick(t *testing.T) {
	m := newStudio(t)
	r := m.PanelRect(window.Editor)

	send(m, click(r.X+1+8*2+1, r.Y+2))
	if m.Tab != preview.Script {
		t.Errorf("tab = %v, want js", m.Tab)
	}
	if m.Focus != app.FocusEditor {
		t.Error("tab click did not focus the editor")
	}
}

func wheel(x, y int, b tea.MouseButton) tea.MouseWheelMsg {
	return tea.MouseWheelMsg{X: x, Y: y, Button: b}
}

func TestWheelOverTabs(t *testing.T) {
	m := newStudio(t)
	m.ApplyEvent(window.Preview, window.DetachRequested{Position: window.Point{X: 0, Y: 0}})

	r := m.PanelRect(window.Editor)
	tabRow := r.Y + 2
	if pr := m.PanelRect(window.Preview); !pr.Contains(5, tabRow) {
		t.Fatalf("floating preview %v does not cover the tab row", pr)
	}

	send(m, wheel(5, tabRow, tea.MouseWheelDown))
	if m.Tab != preview.Markup {
		t.Errorf("wheel over the floating preview changed the tab to %v", m.Tab)
	}

	send(m, wheel(r.X+r.W-20, tabRow, tea.MouseWheelDown))
	if m.Tab != preview.Markup {
		t.Errorf("wheel beyond the tabs changed the tab to %v", m.Tab)
	}

	m.Restore(window.Preview)
	r = m.PanelRect(window.Editor)
	send(m, wheel(r.X+1+tabWidth*2, r.Y+2, tea.MouseWheelDown))
	if m.Tab != preview.Style {
		t.Errorf("wheel over the tabs = %v, want css", m.Tab)
	}
}

func TestConsoleTyping(t *testing.T) {
	m := newStudio(t)
	cr := m.ConsoleRect()
	send(m, click(cr.X+2, cr.Y+2))
	if m.Focus != app.FocusConsole {
		t.Fatal("console click did not focus the console")
	}

	for _, r := range "detach preview" {
		send(m, text(string(r)))
	}
	send(m, key(tea.KeyEnter, 0))

	if !m.Panel(window.Preview).State.Detached {
		t.Error("console command did not detach the preview")
	}
	if m.Buffers.Markup != "" {
		t.Error("console typing leaked into the editor")
	}
}

func TestEditorTyping(t *testing.T) {
	m := newStudio(t)
	send(m, text("<"), text("p"), text(">"), key(tea.KeyEnter, 0), text("x"), key(tea.KeyBackspace, 0))

	if got := m.Buffers.Markup; got != "<p>\n" {
		t.Errorf("markup = %q", got)
	}
	send(m, tea.PasteMsg{Content: "hi"})
	if got := m.Buffers.Markup; got != "<p>\nhi" {
		t.Errorf("markup after paste = %q", got)
	}
}

func TestKeybindings(t *testing.T) {
	m := newStudio(t)

	send(m, key('p', tea.ModCtrl))
	if !m.Panel(window.Preview).State.Minimized {
		t.Error("ctrl+p did not minimize the preview")
	}
	send(m, key('e', tea.ModAlt))
	if !m.Panel(window.Editor).State.Detached {
		t.Error("alt+e did not detach the editor")
	}
	send(m, key('r', tea.ModCtrl))
	for _, k := range window.Kinds {
		if s := m.Panel(k).State; s != window.New() {
			t.Errorf("%v after restore_all = %v", k, s)
		}
	}

	send(m, key(tea.KeyTab, 0))
	if m.Tab != preview.Style {
		t.Errorf("tab key moved to %v", m.Tab)
	}
	send(m, key(tea.KeyTab, tea.ModShift))
	if m.Tab != preview.Markup {
		t.Errorf("shift+tab moved to %v", m.Tab)
	}

	send(m, key(tea.KeyF1, 0))
	if !m.ShowHelp {
		t.Fatal("f1 did not open help")
	}
	send(m, text("q"))
	if m.ShowHelp {
		t.Error("key press did not close help")
	}
	if m.Buffers.Markup != "" {
		t.Error("key that closed help was typed")
	}

	if cmd := send(m, key('c', tea.ModCtrl)); cmd == nil {
		t.Error("ctrl+c returned no command")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}

func TestDispatcherCoversActions(t *testing.T) {
	d := GetDispatcher()
	for _, action := range config.Actions() {
		if !d.HasAction(action) {
			t.Errorf("no handler for %q", action)
		}
	}
}
