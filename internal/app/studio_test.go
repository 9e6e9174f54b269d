package app

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/window"
	"github.com/Gaurav-Gosain/livepane/internal/workspace"
	"github.com/charmbracelet/x/ansi"
)

type recordingSink struct {
	buffers []preview.Buffers
	viewers int
}

func (s *recordingSink) SetBuffers(b preview.Buffers) { s.buffers = append(s.buffers, b) }
func (s *recordingSink) Count() int                   { return s.viewers }

func newStudio(t *testing.T, opts Options) *Studio {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC) }
	}
	if opts.ExportDir == "" {
		opts.ExportDir = t.TempDir()
	}
	m := New(opts)
	m.Width = 120
	m.Height = 40
	return m
}

func TestNewRendersInitialDocument(t *testing.T) {
	sink := &recordingSink{}
	b := preview.Buffers{Markup: "<h1>Hi</h1>"}
	m := newStudio(t, Options{Buffers: b, Sink: sink})

	if got := m.Pane.Document(); got != b.Compose() {
		t.Errorf("pane document = %q", got)
	}
	if m.Renderer.Renders() != 1 {
		t.Errorf("Renders = %d, want 1", m.Renderer.Renders())
	}
	if len(sink.buffers) != 1 || sink.buffers[0] != b {
		t.Errorf("sink got %v", sink.buffers)
	}
	if got := m.Pane.Text(); len(got) != 1 || got[0] != "# Hi" {
		t.Errorf("pane text = %q", got)
	}
}

func TestSetBufferRecomposes(t *testing.T) {
	m := newStudio(t, Options{})

	m.SetBuffer(preview.Style, "h1{color:red}")
	want := preview.Compose("", "h1{color:red}", "")
	if m.Pane.Document() != want {
		t.Errorf("document = %q, want %q", m.Pane.Document(), want)
	}

	renders := m.Renderer.Renders()
	m.SetBuffer(preview.Style, "h1{color:red}")
	if m.Renderer.Renders() != renders {
		t.Error("unchanged buffer triggered a render")
	}
}

func TestMinimizeSuspendsRendering(t *testing.T) {
	m := newStudio(t, Options{Buffers: preview.Buffers{Markup: "<p>a</p>"}})
	shown := m.Pane.Document()

	m.ToggleMinimize(window.Preview)
	if !m.Renderer.Minimized() {
		t.Fatal("renderer not suspended")
	}
	renders := m.Renderer.Renders()
	m.SetBuffer(preview.Markup, "<p>b</p>")
	m.SetBuffer(preview.Markup, "<p>c</p>")

	if m.Renderer.Renders() != renders {
		t.Errorf("rendered %d times while minimized", m.Renderer.Renders()-renders)
	}
	if m.Pane.Document() != shown {
		t.Error("pane changed while minimized")
	}

	m.ToggleMinimize(window.Preview)
	if m.Renderer.Renders() != renders+1 {
		t.Errorf("Renders after show = %d, want %d", m.Renderer.Renders(), renders+1)
	}
	if want := preview.Compose("<p>c</p>", "", ""); m.Pane.Document() != want {
		t.Errorf("pane = %q, want latest", m.Pane.Document())
	}

	m.ToggleMinimize(window.Preview)
	m.ToggleMinimize(window.Preview)
	if m.Renderer.Renders() != renders+1 {
		t.Error("showing an unchanged preview rendered again")
	}
}

func TestMinimizingEditorKeepsRendering(t *testing.T) {
	m := newStudio(t, Options{})
	m.ToggleMinimize(window.Editor)

	renders := m.Renderer.Renders()
	m.SetBuffer(preview.Markup, "<p>x</p>")
	if m.Renderer.Renders() != renders+1 {
		t.Error("minimized editor suspended the preview")
	}
}

func TestDragCommitsOnRelease(t *testing.T) {
	m := newStudio(t, Options{})
	m.Width, m.Height = 300, 300

	m.ApplyEvent(window.Preview, window.DetachRequested{Position: window.Point{X: 100, Y: 100}})
	if !m.BeginDrag(window.Preview, window.Point{X: 120, Y: 130}) {
		t.Fatal("drag did not start")
	}
	p := m.Panel(window.Preview)
	if !p.State.Dragging {
		t.Error("state not dragging")
	}

	m.MoveDrag(window.Point{X: 200, Y: 250})
	if got := p.VisualPosition(); got != (window.Point{X: 180, Y: 220}) {
		t.Errorf("visual position = %v", got)
	}
	if p.State.Position != (window.Point{X: 100, Y: 100}) {
		t.Errorf("state moved before release: %v", p.State.Position)
	}

	m.EndDrags()
	want := window.State{Detached: true, Position: window.Point{X: 180, Y: 220}}
	if p.State != want {
		t.Errorf("state = %v, want %v", p.State, want)
	}
	if m.Dragging() {
		t.Error("still dragging after release")
	}
}

func TestDragPastEdgeStaysUnderPointer(t *testing.T) {
	m := newStudio(t, Options{})
	p := m.Panel(window.Preview)
	m.ApplyEvent(window.Preview, window.DetachRequested{Position: window.Point{X: 10, Y: 10}})

	m.BeginDrag(window.Preview, window.Point{X: 15, Y: 10})
	m.MoveDrag(window.Point{X: 2, Y: 10})
	if r := m.PanelRect(window.Preview); r.X != p.VisualPosition().X {
		t.Errorf("drawn x = %d, visual x = %d", r.X, p.VisualPosition().X)
	}
	m.EndDrags()
	if p.State.Position != (window.Point{X: 0, Y: 10}) {
		t.Fatalf("settled position = %v, want (0,10)", p.State.Position)
	}

	// A second drag follows the pointer from its first move.
	m.BeginDrag(window.Preview, window.Point{X: 20, Y: 10})
	for x := 21; x <= 23; x++ {
		m.MoveDrag(window.Point{X: x, Y: 10})
		r := m.PanelRect(window.Preview)
		if want := x - 20; r.X != want {
			t.Errorf("pointer at %d: drawn x = %d, want %d", x, r.X, want)
		}
	}
	m.EndDrags()
	if r := m.PanelRect(window.Preview); r.X != p.State.Position.X || r.Y != p.State.Position.Y {
		t.Errorf("drawn at (%d,%d), stored %v", r.X, r.Y, p.State.Position)
	}
}

func TestDockedPanelDoesNotDrag(t *testing.T) {
	m := newStudio(t, Options{})
	if m.BeginDrag(window.Editor, window.Point{X: 5, Y: 2}) {
		t.Error("docked editor started a drag")
	}
	if m.Panel(window.Editor).State != window.New() {
		t.Errorf("state = %v", m.Panel(window.Editor).State)
	}
}

func TestRestoreDuringDrag(t *testing.T) {
	m := newStudio(t, Options{})
	m.ApplyEvent(window.Editor, window.DetachRequested{Position: window.Point{X: 10, Y: 10}})
	m.BeginDrag(window.Editor, window.Point{X: 12, Y: 11})
	m.MoveDrag(window.Point{X: 40, Y: 20})

	m.Restore(window.Editor)
	if m.Panel(window.Editor).State != window.New() {
		t.Errorf("state after restore = %v", m.Panel(window.Editor).State)
	}
	if m.Dragging() {
		t.Error("drag survived restore")
	}

	m.EndDrags()
	if m.Panel(window.Editor).State != window.New() {
		t.Error("release after restore changed the state")
	}
}

func TestHeaderButtons(t *testing.T) {
	m := newStudio(t, Options{})

	r := m.PanelRect(window.Preview)
	if r != (Rect{X: 0, Y: 1, W: 60, H: 31}) {
		t.Fatalf("docked preview rect = %+v", r)
	}

	tests := []struct {
		x    int
		want Button
	}{
		{50, ButtonMinimize},
		{52, ButtonMinimize},
		{53, ButtonDetach},
		{56, ButtonRestore},
		{58, ButtonRestore},
		{59, ButtonNone},
		{10, ButtonNone},
	}
	for _, tt := range tests {
		if got := m.ButtonAt(window.Preview, tt.x, r.Y+1); got != tt.want {
			t.Errorf("ButtonAt(%d) = %v, want %v", tt.x, got, tt.want)
		}
	}
	if got := m.ButtonAt(window.Preview, 50, r.Y+2); got != ButtonNone {
		t.Errorf("button below header = %v", got)
	}

	m.PressButton(window.Preview, ButtonMinimize)
	if !m.Panel(window.Preview).State.Minimized {
		t.Error("minimize button did not minimize")
	}

	m.PressButton(window.Preview, ButtonDetach)
	want := window.DetachPoint(window.DefaultOffsets[window.Preview], m.Width, m.Height)
	if s := m.Panel(window.Preview).State; !s.Detached || s.Position != want {
		t.Errorf("after detach = %v, want detached at %v", s, want)
	}
	if s := m.Panel(window.Preview).State; !s.Minimized {
		t.Error("detach changed minimized")
	}

	m.PressButton(window.Preview, ButtonDetach)
	if s := m.Panel(window.Preview).State; s != window.New() {
		t.Errorf("detach button on floating panel = %v, want docked", s)
	}

	m.PressButton(window.Editor, ButtonMinimize)
	m.PressButton(window.Editor, ButtonRestore)
	if s := m.Panel(window.Editor).State; s != window.New() {
		t.Errorf("restore button = %v", s)
	}
}

func TestDockedPanelsShareGrid(t *testing.T) {
	m := newStudio(t, Options{})
	m.ToggleDetach(window.Preview)

	if r := m.PanelRect(window.Editor); r.X != 0 || r.W != m.Width {
		t.Errorf("lone docked editor rect = %+v", r)
	}
	fr := m.PanelRect(window.Preview)
	if fr.W != floatWidth || fr.H != floatHeight {
		t.Errorf("floating rect = %+v", fr)
	}

	k, ok := m.PanelAt(fr.X+1, fr.Y+1)
	if !ok || k != window.Preview {
		t.Errorf("PanelAt over floating preview = %v, %v", k, ok)
	}
}

func TestFloatingOrder(t *testing.T) {
	m := newStudio(t, Options{})
	m.ToggleDetach(window.Preview)
	m.ToggleDetach(window.Editor)

	if got := m.Floating(); len(got) != 2 || got[1] != window.Editor {
		t.Fatalf("Floating = %v", got)
	}
	m.Raise(window.Preview)
	if got := m.Floating(); got[1] != window.Preview {
		t.Errorf("raise did not move preview on top: %v", got)
	}

	m.Restore(window.Preview)
	if got := m.Floating(); len(got) != 1 || got[0] != window.Editor {
		t.Errorf("docked panel left in stacking order: %v", got)
	}
}

func TestConsoleCommands(t *testing.T) {
	m := newStudio(t, Options{})

	m.RunCommand("detach editor")
	s := m.Panel(window.Editor).State
	want := window.DetachPoint(window.DefaultOffsets[window.Editor], m.Width, m.Height)
	if !s.Detached || s.Position != want {
		t.Errorf("editor after console detach = %v, want at %v", s, want)
	}

	m.RunCommand("minimize preview")
	if !m.Renderer.Minimized() {
		t.Error("console minimize did not suspend rendering")
	}

	m.Console.Type("restore preview")
	m.SubmitConsole()
	if m.Panel(window.Preview).State != window.New() {
		t.Errorf("preview after restore = %v", m.Panel(window.Preview).State)
	}
	if m.Console.Input() != "" {
		t.Error("input not cleared after submit")
	}
}

func TestEditing(t *testing.T) {
	m := newStudio(t, Options{})

	m.TypeText("<b>é</b>")
	m.Backspace()
	if got := m.Buffers.Markup; got != "<b>é</b" {
		t.Errorf("markup = %q", got)
	}
	for range 3 {
		m.Backspace()
	}
	if got := m.Buffers.Markup; got != "<b>é" {
		t.Errorf("markup = %q, want %q", got, "<b>é")
	}
	m.Backspace()
	if got := m.Buffers.Markup; got != "<b>" {
		t.Errorf("markup after multi-byte backspace = %q", got)
	}

	m.NextTab()
	if m.Tab != preview.Style {
		t.Errorf("tab = %v", m.Tab)
	}
	m.PrevTab()
	m.PrevTab()
	if m.Tab != preview.Script {
		t.Errorf("tab after wrapping back = %v", m.Tab)
	}
}

func TestWorkspaceChangeMsg(t *testing.T) {
	changes := make(chan workspace.Change, 1)
	m := newStudio(t, Options{Changes: changes})

	_, cmd := m.Update(WorkspaceChangeMsg{Kind: preview.Script, Content: "go()"})
	if m.Buffers.Script != "go()" {
		t.Errorf("script = %q", m.Buffers.Script)
	}
	if !strings.Contains(m.Pane.Document(), "go()") {
		t.Error("change not rendered")
	}
	if cmd == nil {
		t.Fatal("studio stopped listening for changes")
	}

	close(changes)
	if msg := cmd(); msg != (WorkspaceClosedMsg{}) {
		t.Errorf("closed channel produced %T", msg)
	}
}

func TestFilterMouseMotion(t *testing.T) {
	m := newStudio(t, Options{})
	motion := tea.MouseMotionMsg{X: 3, Y: 4}

	if got := FilterMouseMotion(m, motion); got != nil {
		t.Errorf("idle motion passed the filter: %v", got)
	}
	click := tea.MouseClickMsg{X: 3, Y: 4, Button: tea.MouseLeft}
	if got := FilterMouseMotion(m, click); got == nil {
		t.Error("click was filtered")
	}

	m.ApplyEvent(window.Preview, window.DetachRequested{Position: window.Point{X: 1, Y: 1}})
	m.BeginDrag(window.Preview, window.Point{X: 2, Y: 2})
	if got := FilterMouseMotion(m, motion); got == nil {
		t.Error("motion during a drag was filtered")
	}
}

func TestRender(t *testing.T) {
	sink := &recordingSink{viewers: 2}
	m := newStudio(t, Options{
		Buffers:    preview.Buffers{Markup: "<h1>Hello</h1>"},
		Sink:       sink,
		PreviewURL: "http://localhost:7690",
	})

	out := ansi.Strip(m.Render())
	for _, want := range []string{"livepane", "Preview", "Editor", "# Hello", "browsers 2", "15:04", "HTML"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}

	m.ShowHelp = true
	if out := ansi.Strip(m.Render()); !strings.Contains(out, "WINDOWS") {
		t.Error("help overlay not drawn")
	}

	m.Width, m.Height = 0, 0
	if m.Render() != "" {
		t.Error("render before the first WindowSizeMsg should be empty")
	}
}
