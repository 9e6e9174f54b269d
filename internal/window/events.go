package window

// Event is a transition request emitted upward by a panel. Panels never change
// their own State; the owner applies events with Apply.
type Event interface {
	isEvent()
}

// MinimizeToggled asks the owner to flip the minimized flag.
type MinimizeToggled struct{}

// DetachRequested asks the owner to float the window at Position.
type DetachRequested struct {
	Position Point
}

// RestoreRequested asks the owner to dock the window again.
type RestoreRequested struct{}

// DragStarted reports a header press on a detached window.
type DragStarted struct{}

// DragEnded reports the pointer release that finished a drag, with the
// window's final resting position.
type DragEnded struct {
	Position Point
}

func (MinimizeToggled) isEvent()  {}
func (DetachRequested) isEvent()  {}
func (RestoreRequested) isEvent() {}
func (DragStarted) isEvent()      {}
func (DragEnded) isEvent()        {}

// Apply folds ev into s. Unknown events leave s unchanged.
func Apply(s State, ev Event) State {
	switch ev := ev.(type) {
	case MinimizeToggled:
		return s.ToggleMinimize()
	case DetachRequested:
		return s.Detach(ev.Position)
	case RestoreRequested:
		return s.Restore()
	case DragStarted:
		return s.BeginDrag()
	case DragEnded:
		return s.Settle(ev.Position)
	}
	return s
}

// ApplyAll folds events into s in order.
func ApplyAll(s State, events ...Event) State {
	for _, ev := range events {
		s = Apply(s, ev)
	}
	return s
}
