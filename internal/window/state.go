// Package window implements the dockable window state machine shared by the
// preview and editor panels.
//
// A State is a plain value. Every transition returns a new State and never
// mutates its receiver, so the host can keep the authoritative copy and hand
// it down to the panels on each render pass.
package window

import "fmt"

// Point is a position in cells relative to the top-left of the viewport.
type Point struct {
	X int
	Y int
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// State is the minimized/detached/dragging/position state of one window.
//
// Dragging implies Detached. Position is only meaningful while Detached.
// Minimized and Detached are independent of each other.
type State struct {
	Minimized bool
	Dragging  bool
	Detached  bool
	Position  Point
}

// New returns a docked, visible window at the origin.
func New() State {
	return State{}
}

// ToggleMinimize flips Minimized and leaves everything else alone.
func (s State) ToggleMinimize() State {
	s.Minimized = !s.Minimized
	return s
}

// Detach pulls a docked window out of the grid and places it at p.
// Detaching an already detached window is a no-op.
func (s State) Detach(p Point) State {
	if s.Detached {
		return s
	}
	s.Detached = true
	s.Position = p
	return s
}

// Restore puts the window back into its docked slot, un-minimized, whatever
// it was doing before. A drag in progress is dropped.
func (s State) Restore() State {
	return State{}
}

// BeginDrag marks a detached window as being dragged. Docked windows are not
// draggable, so the call is ignored for them.
func (s State) BeginDrag() State {
	if !s.Detached {
		return s
	}
	s.Dragging = true
	return s
}

// EndDrag clears Dragging.
func (s State) EndDrag() State {
	s.Dragging = false
	return s
}

// Settle ends a drag and commits the final resting position. It only moves
// windows that were actually being dragged.
func (s State) Settle(p Point) State {
	if s.Dragging && s.Detached {
		s.Position = p
	}
	return s.EndDrag()
}

// Docked reports whether the window occupies its grid slot.
func (s State) Docked() bool {
	return !s.Detached
}

// Valid reports whether s satisfies the state invariants.
func (s State) Valid() bool {
	return !s.Dragging || s.Detached
}

func (s State) String() string {
	mode := "docked"
	if s.Detached {
		mode = "detached@" + s.Position.String()
	}
	if s.Dragging {
		mode += "+dragging"
	}
	if s.Minimized {
		mode += "+minimized"
	}
	return mode
}
