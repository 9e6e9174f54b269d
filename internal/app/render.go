package app

import (
	"fmt"
	"image/color"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/Gaurav-Gosain/livepane/internal/config"
	"github.com/Gaurav-Gosain/livepane/internal/console"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/theme"
	"github.com/Gaurav-Gosain/livepane/internal/window"
	"github.com/charmbracelet/x/ansi"
)

// Layout constants, in cells.
const (
	titleHeight     = 1
	consoleHeight   = 8
	floatWidth      = 48
	floatHeight     = 16
	minimizedHeight = 4
	buttonWidth     = 3
	tabWidth        = 8
)

// Button is one of the three header controls.
type Button int

const (
	ButtonNone Button = iota
	ButtonMinimize
	ButtonDetach
	ButtonRestore
)

// Rect is a cell rectangle; X and Y are the top-left corner.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) is inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Viewer counts the browsers watching the preview.
type Viewer interface {
	Count() int
}

func (m *Studio) gridRect() Rect {
	h := max(m.Height-titleHeight-consoleHeight, minimizedHeight)
	return Rect{X: 0, Y: titleHeight, W: max(m.Width, 1), H: h}
}

// ConsoleRect is where the console footer is drawn.
func (m *Studio) ConsoleRect() Rect {
	g := m.gridRect()
	return Rect{X: 0, Y: g.Y + g.H, W: g.W, H: consoleHeight}
}

// PanelRect is where panel k is drawn. Docked panels share the grid in
// column order; a detached panel floats at its visual position.
func (m *Studio) PanelRect(k window.Kind) Rect {
	p := m.Panels[k]
	height := func(full int) int {
		if p.State.Minimized {
			return minimizedHeight
		}
		return full
	}

	if p.State.Detached {
		pos := p.VisualPosition()
		return Rect{
			X: max(pos.X, 0),
			Y: max(pos.Y, 0),
			W: min(floatWidth, max(m.Width, 1)),
			H: height(floatHeight),
		}
	}

	g := m.gridRect()
	var docked []window.Kind
	for _, kk := range window.Kinds {
		if !m.Panels[kk].State.Detached {
			docked = append(docked, kk)
		}
	}
	i := slices.Index(docked, k)
	w := g.W / len(docked)
	x := g.X + i*w
	if i == len(docked)-1 {
		w = g.W - x
	}
	return Rect{X: x, Y: g.Y, W: w, H: height(g.H)}
}

// stacking returns every panel bottom to top: docked ones first, then the
// floating ones in raise order.
func (m *Studio) stacking() []window.Kind {
	var out []window.Kind
	for _, k := range window.Kinds {
		if !m.Panels[k].State.Detached {
			out = append(out, k)
		}
	}
	return append(out, m.order...)
}

// PanelAt returns the topmost panel under (x, y).
func (m *Studio) PanelAt(x, y int) (window.Kind, bool) {
	stack := m.stacking()
	for i := len(stack) - 1; i >= 0; i-- {
		if m.PanelRect(stack[i]).Contains(x, y) {
			return stack[i], true
		}
	}
	return 0, false
}

// OnHeader reports whether (x, y) is on panel k's header row or top border.
func (m *Studio) OnHeader(k window.Kind, x, y int) bool {
	r := m.PanelRect(k)
	return x >= r.X && x < r.X+r.W && (y == r.Y || y == r.Y+1)
}

// ButtonAt returns the header button of panel k under (x, y).
func (m *Studio) ButtonAt(k window.Kind, x, y int) Button {
	r := m.PanelRect(k)
	if y != r.Y+1 {
		return ButtonNone
	}
	right := r.X + r.W - 1
	switch {
	case x >= right-buttonWidth && x < right:
		return ButtonRestore
	case x >= right-2*buttonWidth && x < right-buttonWidth:
		return ButtonDetach
	case x >= right-3*buttonWidth && x < right-2*buttonWidth:
		return ButtonMinimize
	}
	return ButtonNone
}

// PressButton runs a header button of panel k.
func (m *Studio) PressButton(k window.Kind, b Button) {
	switch b {
	case ButtonMinimize:
		m.ToggleMinimize(k)
	case ButtonDetach:
		m.ToggleDetach(k)
	case ButtonRestore:
		m.Restore(k)
	}
}

// TabAt returns the editor tab under (x, y).
func (m *Studio) TabAt(x, y int) (preview.Kind, bool) {
	p := m.Panels[window.Editor]
	if p.State.Minimized {
		return 0, false
	}
	r := m.PanelRect(window.Editor)
	if y != r.Y+2 || x <= r.X {
		return 0, false
	}
	i := (x - r.X - 1) / tabWidth
	if i >= len(preview.Kinds) {
		return 0, false
	}
	return preview.Kinds[i], true
}

// View renders the studio.
func (m *Studio) View() tea.View {
	var view tea.View
	view.SetContent(m.Render())
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion
	view.WindowTitle = "livepane"
	return view
}

// Render draws every layer onto a canvas the size of the terminal.
func (m *Studio) Render() string {
	if m.Width <= 0 || m.Height <= 0 {
		return ""
	}

	layers := []*lipgloss.Layer{
		lipgloss.NewLayer(m.renderTitle()).X(0).Y(0).Z(0).ID("title"),
	}
	for z, k := range m.stacking() {
		r := m.PanelRect(k)
		content := m.renderPanel(k, r)
		layers = append(layers, lipgloss.NewLayer(content).X(r.X).Y(r.Y).Z(1+z).ID(k.String()))
	}
	cr := m.ConsoleRect()
	layers = append(layers, lipgloss.NewLayer(m.renderConsole(cr)).X(cr.X).Y(cr.Y).Z(0).ID("console"))

	if m.ShowHelp {
		help := m.renderHelp()
		x := max((m.Width-lipgloss.Width(help))/2, 0)
		y := max((m.Height-lipgloss.Height(help))/2, 0)
		layers = append(layers, lipgloss.NewLayer(help).X(x).Y(y).Z(100).ID("help"))
	}

	canvas := lipgloss.NewCanvas(m.Width, m.Height)
	canvas.Compose(lipgloss.NewCompositor(layers...))
	return canvas.Render()
}

func (m *Studio) border() lipgloss.Border {
	if m.Config.Appearance.ASCIIOnly {
		return lipgloss.ASCIIBorder()
	}
	switch m.Config.Appearance.BorderStyle {
	case "normal":
		return lipgloss.NormalBorder()
	case "thick":
		return lipgloss.ThickBorder()
	case "double":
		return lipgloss.DoubleBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	case "block":
		return lipgloss.BlockBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, "…")
	if pad := w - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func colored(s string, c color.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func (m *Studio) renderTitle() string {
	parts := []string{"livepane"}
	if m.PreviewURL != "" {
		parts = append(parts, "preview "+m.PreviewURL)
	}
	keys := m.Keybinds.GetKeysForDisplay("toggle_help")
	if keys != "" {
		parts = append(parts, keys+" help")
	}
	left := " " + strings.Join(parts, " · ")
	clock := m.now().Format("15:04") + " "

	w := max(m.Width, 1)
	line := fit(left, max(w-ansi.StringWidth(clock), 0)) + clock
	return lipgloss.NewStyle().
		Background(theme.HeaderBg()).
		Foreground(theme.HeaderFg()).
		Bold(true).
		Render(fit(line, w))
}

// box wraps lines in the panel border, padding them to fill r.
func (m *Studio) box(lines []string, r Rect, focused bool) string {
	innerW := max(r.W-2, 0)
	innerH := max(r.H-2, 0)
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	out := make([]string, innerH)
	for i := range out {
		if i < len(lines) {
			out[i] = fit(lines[i], innerW)
		} else {
			out[i] = strings.Repeat(" ", innerW)
		}
	}
	return lipgloss.NewStyle().
		Border(m.border()).
		BorderForeground(theme.Border(focused)).
		Foreground(theme.Foreground()).
		Render(strings.Join(out, "\n"))
}

func (m *Studio) renderHeader(k window.Kind, innerW int) string {
	p := m.Panels[k]
	title := " " + k.Title()
	if p.Drag.Active() {
		title += " (moving)"
	}
	detach := "[^]"
	if p.State.Detached {
		detach = "[v]"
	}
	buttons := colored("[-]", theme.ButtonMinimize()) +
		colored(detach, theme.ButtonDetach()) +
		colored("[+]", theme.ButtonRestore())
	if innerW < 3*buttonWidth {
		return fit(title, innerW)
	}
	return colored(fit(title, innerW-3*buttonWidth), theme.HeaderFg()) + buttons
}

func (m *Studio) renderPanel(k window.Kind, r Rect) string {
	innerW := max(r.W-2, 0)
	innerH := max(r.H-2, 0)
	lines := []string{m.renderHeader(k, innerW)}

	focused := false
	if m.Panels[k].State.Minimized {
		lines = append(lines, colored(m.minimizedStatus(k), theme.Muted()))
	} else {
		switch k {
		case window.Preview:
			lines = append(lines, m.previewBody(innerH-1)...)
		case window.Editor:
			focused = m.Focus == FocusEditor
			lines = append(lines, m.editorBody(innerH-1, focused)...)
		}
	}
	return m.box(lines, r, focused)
}

// minimizedStatus is the one line a minimized panel shows under its header.
func (m *Studio) minimizedStatus(k window.Kind) string {
	if k == window.Editor {
		src := m.Buffers.Get(m.Tab)
		return fmt.Sprintf("%s · %d lines", strings.ToUpper(m.Tab.String()), strings.Count(src, "\n")+1)
	}
	if m.Renderer.Pending() {
		return "paused · changes waiting"
	}
	return "paused"
}

func (m *Studio) previewBody(rows int) []string {
	if rows <= 0 {
		return nil
	}
	text := m.Pane.Text()
	if m.ShowSource {
		text = m.Pane.Lines()
	}

	status := fmt.Sprintf("renders %d", m.Renderer.Renders())
	if v, ok := m.sink.(Viewer); ok {
		status += fmt.Sprintf(" · browsers %d", v.Count())
	}
	if m.ShowSource {
		status += " · source"
	}

	body := rows - 1
	if len(text) > body {
		text = text[:max(body, 0)]
	}
	lines := make([]string, 0, rows)
	lines = append(lines, text...)
	for len(lines) < body {
		lines = append(lines, "")
	}
	return append(lines, colored(status, theme.Muted()))
}

func (m *Studio) editorBody(rows int, focused bool) []string {
	if rows <= 0 {
		return nil
	}
	var tabs strings.Builder
	for _, k := range preview.Kinds {
		label := fit(" "+strings.ToUpper(k.String()), tabWidth)
		if k == m.Tab {
			tabs.WriteString(lipgloss.NewStyle().Foreground(theme.TabActive()).Bold(true).Underline(true).Render(label))
		} else {
			tabs.WriteString(colored(label, theme.TabInactive()))
		}
	}
	lines := []string{tabs.String()}

	src := strings.Split(strings.ReplaceAll(m.Buffers.Get(m.Tab), "\t", "  "), "\n")
	if focused {
		src[len(src)-1] += "█"
	}
	start := max(len(src)-(rows-1), 0)
	for i := start; i < len(src); i++ {
		lines = append(lines, colored(fmt.Sprintf("%3d ", i+1), theme.Muted())+src[i])
	}
	return lines
}

func (m *Studio) renderConsole(r Rect) string {
	innerH := max(r.H-2, 0)
	history := m.Console.Lines()
	if keep := innerH - 1; len(history) > keep {
		history = history[len(history)-max(keep, 0):]
	}

	lines := make([]string, 0, innerH)
	for _, l := range history {
		switch l.Kind {
		case console.KindEcho:
			lines = append(lines, colored(l.Text, theme.ConsoleEcho()))
		case console.KindSuccess:
			lines = append(lines, colored(l.Text, theme.ConsoleSuccess()))
		case console.KindError:
			lines = append(lines, colored(l.Text, theme.ConsoleError()))
		default:
			lines = append(lines, l.Text)
		}
	}
	for len(lines) < innerH-1 {
		lines = append(lines, "")
	}

	focused := m.Focus == FocusConsole
	input := "> " + m.Console.Input()
	if focused {
		input += "█"
	}
	lines = append(lines, input)
	return m.box(lines, r, focused)
}

func (m *Studio) renderHelp() string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.CLITableKey()).Bold(true)
	titleStyle := lipgloss.NewStyle().Foreground(theme.CLITableHeader()).Bold(true)

	var lines []string
	for i, section := range config.GetKeybindings(m.Keybinds) {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, titleStyle.Render(section.Title))
		for _, b := range section.Bindings {
			lines = append(lines, keyStyle.Render(fit(b.Key, 18))+" "+b.Description)
		}
	}
	lines = append(lines, "", colored("press any key to close", theme.Muted()))

	return lipgloss.NewStyle().
		Border(m.border()).
		BorderForeground(theme.Border(true)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
