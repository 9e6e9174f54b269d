// Package drag turns raw pointer movement into positions for a detached
// window.
//
// A Controller holds at most one Session. While the session is live every
// pointer move yields a visual position; the window state itself is only
// written once, when the pointer is released.
package drag

import "github.com/Gaurav-Gosain/livepane/internal/window"

// Session is the bookkeeping for one drag, from press to release.
type Session struct {
	// Origin is the pointer position at drag start.
	Origin window.Point
	// Offset is the pointer position minus the window position at drag start.
	Offset window.Point
	// Last is the most recent visual position.
	Last window.Point
}

// Bounds is the rectangle a window's top-left corner may occupy, inclusive.
type Bounds struct {
	Min, Max window.Point
}

// Clamp returns p moved inside b.
func (b Bounds) Clamp(p window.Point) window.Point {
	return window.Point{
		X: min(max(p.X, b.Min.X), max(b.Max.X, b.Min.X)),
		Y: min(max(p.Y, b.Min.Y), max(b.Max.Y, b.Min.Y)),
	}
}

// Controller tracks the drag session of a single window. The zero value is
// idle, unbounded and ready to use.
type Controller struct {
	session *Session
	bounds  *Bounds
}

// SetBounds limits the positions Move hands out.
func (c *Controller) SetBounds(b Bounds) {
	c.bounds = &b
}

// Begin starts a session if the window is detached and no session is live.
// It reports whether a session was started.
func (c *Controller) Begin(pointer window.Point, s window.State) bool {
	if c.session != nil || !s.Detached {
		return false
	}
	c.session = &Session{
		Origin: pointer,
		Offset: pointer.Sub(s.Position),
		Last:   s.Position,
	}
	return true
}

// Move computes the window position for a pointer at p, clamped to the
// bounds if any. The second return value is false when no drag is in
// progress.
func (c *Controller) Move(p window.Point) (window.Point, bool) {
	if c.session == nil {
		return window.Point{}, false
	}
	pos := p.Sub(c.session.Offset)
	if c.bounds != nil {
		pos = c.bounds.Clamp(pos)
	}
	c.session.Last = pos
	return pos, true
}

// End destroys the session and returns the final position, which is exactly
// the last position handed out by Move (or the start position if the pointer
// never moved). The second return value is false when no drag was live.
func (c *Controller) End() (window.Point, bool) {
	if c.session == nil {
		return window.Point{}, false
	}
	last := c.session.Last
	c.session = nil
	return last, true
}

// Active reports whether a session is live.
func (c *Controller) Active() bool {
	return c.session != nil
}

// Session returns a copy of the live session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Position returns the visual position of s: the live drag position while a
// session is active, the stored position otherwise.
func (c *Controller) Position(s window.State) window.Point {
	if c.session != nil {
		return c.session.Last
	}
	return s.Position
}
