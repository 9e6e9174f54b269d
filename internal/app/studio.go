// Package app implements the livepane studio: two dockable panels (live
// preview and code editor) over a console footer, as a bubbletea model.
//
// The studio owns both window states and the three code buffers. Every
// buffer change recomposes the document and hands it to the sandbox
// renderer within the same Update call.
package app

import (
	"fmt"
	"io"
	"slices"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/livepane/internal/config"
	"github.com/Gaurav-Gosain/livepane/internal/console"
	"github.com/Gaurav-Gosain/livepane/internal/drag"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
	"github.com/Gaurav-Gosain/livepane/internal/window"
	"github.com/Gaurav-Gosain/livepane/internal/workspace"
)

// Focus is the part of the studio that receives typed text.
type Focus int

const (
	FocusEditor Focus = iota
	FocusConsole
)

// Panel is one dockable window and its drag controller.
type Panel struct {
	Kind  window.Kind
	State window.State
	Drag  drag.Controller
}

// VisualPosition is where the panel is drawn: the live drag position during
// a drag, the settled position otherwise.
func (p *Panel) VisualPosition() window.Point {
	return p.Drag.Position(p.State)
}

// BufferSink receives the buffers behind each composed document, for
// consumers that export them (the browser preview server).
type BufferSink interface {
	SetBuffers(preview.Buffers)
}

// Options configures a Studio.
type Options struct {
	Config     *config.Config
	Buffers    preview.Buffers
	Changes    <-chan workspace.Change
	Surfaces   []sandbox.Surface
	Sink       BufferSink
	ExportDir  string
	PreviewURL string
	Logger     *log.Logger
	Now        func() time.Time
}

// Studio is the bubbletea model.
type Studio struct {
	Width  int
	Height int

	Panels  map[window.Kind]*Panel
	Buffers preview.Buffers
	Tab     preview.Kind
	Focus   Focus

	Pane     *sandbox.TextSurface
	Renderer *sandbox.Renderer
	Console  *console.Console
	Keybinds *config.KeybindRegistry
	Config   *config.Config

	ShowHelp   bool
	ShowSource bool
	PreviewURL string

	// order is the stacking order of floating panels, topmost last.
	order     []window.Kind
	changes   <-chan workspace.Change
	sink      BufferSink
	exportDir string
	now       func() time.Time
	logger    *log.Logger
}

// New creates a studio and renders the initial document.
func New(opts Options) *Studio {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	pane := &sandbox.TextSurface{}
	surfaces := append([]sandbox.Surface{pane}, opts.Surfaces...)

	m := &Studio{
		Panels:     make(map[window.Kind]*Panel, len(window.Kinds)),
		Tab:        preview.Markup,
		Pane:       pane,
		Renderer:   sandbox.NewRenderer(surfaces...),
		Console:    console.New(200),
		Keybinds:   config.NewKeybindRegistry(cfg),
		Config:     cfg,
		PreviewURL: opts.PreviewURL,
		changes:    opts.Changes,
		sink:       opts.Sink,
		exportDir:  exportDir,
		now:        now,
		logger:     logger,
	}
	for _, k := range window.Kinds {
		m.Panels[k] = &Panel{Kind: k, State: window.New()}
	}

	m.SetBuffers(opts.Buffers)
	return m
}

// Panel returns the panel of kind k.
func (m *Studio) Panel(k window.Kind) *Panel {
	return m.Panels[k]
}

// SetBuffer replaces one buffer and re-renders.
func (m *Studio) SetBuffer(k preview.Kind, content string) {
	if m.Buffers.Get(k) == content {
		return
	}
	m.Buffers = m.Buffers.With(k, content)
	m.refresh()
}

// SetBuffers replaces all buffers and re-renders.
func (m *Studio) SetBuffers(b preview.Buffers) {
	m.Buffers = b
	m.refresh()
}

// refresh is the buffer change pipeline: compose, then render.
func (m *Studio) refresh() {
	doc := m.Buffers.Compose()
	if m.sink != nil {
		m.sink.SetBuffers(m.Buffers)
	}
	m.Renderer.Update(doc)
}

// ApplyEvent folds a window event into panel k's state.
func (m *Studio) ApplyEvent(k window.Kind, ev window.Event) {
	p := m.Panels[k]
	if p == nil {
		return
	}

	switch ev.(type) {
	case window.RestoreRequested:
		// Restore wins over a drag in flight; the release is then a no-op.
		p.Drag.End()
	case window.DetachRequested, window.DragStarted:
		m.raise(k)
	}

	before := p.State
	p.State = window.Apply(p.State, ev)
	if k == window.Preview {
		m.Renderer.SetMinimized(p.State.Minimized)
	}
	m.syncOrder()

	m.logger.Debug("window event",
		"panel", k,
		"event", fmt.Sprintf("%T", ev),
		"from", before,
		"to", p.State,
	)
}

// ToggleMinimize minimizes or shows panel k.
func (m *Studio) ToggleMinimize(k window.Kind) {
	m.ApplyEvent(k, window.MinimizeToggled{})
}

// ToggleDetach floats a docked panel at its default offset, or docks a
// floating one.
func (m *Studio) ToggleDetach(k window.Kind) {
	if m.Panels[k].State.Detached {
		m.ApplyEvent(k, window.RestoreRequested{})
		return
	}
	m.ApplyEvent(k, window.DetachRequested{Position: m.DetachPoint(k)})
}

// Restore docks and shows panel k.
func (m *Studio) Restore(k window.Kind) {
	m.ApplyEvent(k, window.RestoreRequested{})
}

// DetachPoint is where panel k lands when detached in the current viewport.
func (m *Studio) DetachPoint(k window.Kind) window.Point {
	offset, ok := m.Config.Layout.Offsets()[k]
	if !ok {
		offset = window.DefaultOffsets[k]
	}
	return window.DetachPoint(offset, m.Width, m.Height)
}

// BeginDrag starts dragging panel k from pointer. Only detached panels can be
// dragged; the call reports whether a drag started.
func (m *Studio) BeginDrag(k window.Kind, pointer window.Point) bool {
	p := m.Panels[k]
	if !p.Drag.Begin(pointer, p.State) {
		return false
	}
	m.ApplyEvent(k, window.DragStarted{})
	return true
}

// MoveDrag moves every panel being dragged. Only the visual position
// changes; window states are untouched until EndDrags.
func (m *Studio) MoveDrag(pointer window.Point) bool {
	moved := false
	for _, k := range window.Kinds {
		p := m.Panels[k]
		p.Drag.SetBounds(m.dragBounds())
		if _, ok := p.Drag.Move(pointer); ok {
			moved = true
		}
	}
	return moved
}

// dragBounds keeps a floating panel's corner on screen, so the position
// drawn is always the position stored.
func (m *Studio) dragBounds() drag.Bounds {
	return drag.Bounds{Max: window.Point{X: max(m.Width-1, 0), Y: max(m.Height-1, 0)}}
}

// EndDrags ends every live drag, committing each final position.
func (m *Studio) EndDrags() {
	for _, k := range window.Kinds {
		if pos, ok := m.Panels[k].Drag.End(); ok {
			m.ApplyEvent(k, window.DragEnded{Position: pos})
		}
	}
}

// Dragging reports whether any panel is being dragged.
func (m *Studio) Dragging() bool {
	for _, p := range m.Panels {
		if p.Drag.Active() {
			return true
		}
	}
	return false
}

// Raise puts a floating panel on top of the others.
func (m *Studio) Raise(k window.Kind) {
	if m.Panels[k].State.Detached {
		m.raise(k)
	}
}

func (m *Studio) raise(k window.Kind) {
	m.order = slices.DeleteFunc(m.order, func(o window.Kind) bool { return o == k })
	m.order = append(m.order, k)
}

// syncOrder drops docked panels from the stacking order.
func (m *Studio) syncOrder() {
	m.order = slices.DeleteFunc(m.order, func(k window.Kind) bool {
		return !m.Panels[k].State.Detached
	})
}

// Floating returns the detached panels, bottom to top.
func (m *Studio) Floating() []window.Kind {
	return slices.Clone(m.order)
}

// Editor

// TypeText appends s to the active buffer.
func (m *Studio) TypeText(s string) {
	if s == "" {
		return
	}
	m.SetBuffer(m.Tab, m.Buffers.Get(m.Tab)+s)
}

// Backspace removes the last rune of the active buffer.
func (m *Studio) Backspace() {
	cur := []rune(m.Buffers.Get(m.Tab))
	if len(cur) == 0 {
		return
	}
	m.SetBuffer(m.Tab, string(cur[:len(cur)-1]))
}

// NextTab cycles the editor tabs forward.
func (m *Studio) NextTab() {
	m.Tab = preview.Kinds[(indexOf(m.Tab)+1)%len(preview.Kinds)]
}

// PrevTab cycles the editor tabs backward.
func (m *Studio) PrevTab() {
	n := len(preview.Kinds)
	m.Tab = preview.Kinds[(indexOf(m.Tab)+n-1)%n]
}

func indexOf(k preview.Kind) int {
	if i := slices.Index(preview.Kinds, k); i >= 0 {
		return i
	}
	return 0
}

// Console

// ConsoleEnv is what console commands see.
func (m *Studio) ConsoleEnv() console.Env {
	states := make(map[window.Kind]window.State, len(m.Panels))
	for k, p := range m.Panels {
		states[k] = p.State
	}
	return console.Env{
		Buffers:   m.Buffers,
		ExportDir: m.exportDir,
		Now:       m.now,
		Width:     m.Width,
		Height:    m.Height,
		Offsets:   m.Config.Layout.Offsets(),
		States:    states,
	}
}

// SubmitConsole runs the typed console line.
func (m *Studio) SubmitConsole() {
	m.handleResult(m.Console.Submit(m.ConsoleEnv()))
}

// RunCommand runs line as if typed into the console.
func (m *Studio) RunCommand(line string) {
	m.handleResult(m.Console.Run(m.ConsoleEnv(), line))
}

func (m *Studio) handleResult(res console.Result) {
	for _, pe := range res.Events {
		m.ApplyEvent(pe.Panel, pe.Event)
	}
	if res.Log != nil {
		m.logger.Info("buffers", "html", res.Log["html"], "css", res.Log["css"], "js", res.Log["js"])
	}
}
