// Package sandbox owns the render surfaces the composed document is loaded
// into and decides when a render happens.
//
// Rendering is a full reload: each Load replaces the surface's previous
// document, discarding whatever state the old one had. While the hosting
// window is minimized renders are held back; the most recent document is
// rendered once, as soon as the window is shown again.
package sandbox

import (
	"errors"
	"os"

	"charm.land/log/v2"
)

// IframePolicy is the sandbox attribute used for browser surfaces. Scripts
// may run, but the document never shares an origin with the host page.
const IframePolicy = "allow-scripts"

// CSPPolicy is the Content-Security-Policy applied when a composed document
// is served directly, giving the same isolation without an iframe.
const CSPPolicy = "sandbox " + IframePolicy

// ErrRefused is returned by surfaces that will not load a document.
var ErrRefused = errors.New("surface refused document")

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "sandbox",
})

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	logger = l
}

// Surface is something a composed document can be loaded into.
//
// Load must either fully replace the current content with doc, or return an
// error and leave the current content untouched.
type Surface interface {
	Load(doc string) error
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(doc string) error

// Load calls f(doc).
func (f SurfaceFunc) Load(doc string) error {
	return f(doc)
}

type slot struct {
	surface  Surface
	lastGood string
	loaded   bool
}

// Renderer drives one or more surfaces for a single window.
type Renderer struct {
	slots     []*slot
	minimized bool
	latest    string
	hasLatest bool
	dirty     bool
	renders   int
}

// NewRenderer returns a renderer that loads into the given surfaces.
func NewRenderer(surfaces ...Surface) *Renderer {
	r := &Renderer{}
	for _, s := range surfaces {
		r.Attach(s)
	}
	return r
}

// Attach adds a surface. If a document has already been rendered the new
// surface is brought up to date immediately (unless minimized).
func (r *Renderer) Attach(s Surface) {
	sl := &slot{surface: s}
	r.slots = append(r.slots, sl)
	if r.hasLatest && !r.minimized && !r.dirty {
		r.load(sl, r.latest)
	}
}

// Update records a new composed document and renders it unless the window is
// minimized.
func (r *Renderer) Update(doc string) {
	r.latest = doc
	r.hasLatest = true
	r.dirty = true
	if r.minimized {
		logger.Debug("render suspended", "bytes", len(doc))
		return
	}
	r.flush()
}

// SetMinimized tells the renderer whether its window is minimized. Showing
// the window renders the latest document if it changed while hidden.
func (r *Renderer) SetMinimized(minimized bool) {
	if r.minimized == minimized {
		return
	}
	r.minimized = minimized
	if !minimized && r.dirty {
		r.flush()
	}
}

// Minimized reports whether rendering is suspended.
func (r *Renderer) Minimized() bool {
	return r.minimized
}

// Latest returns the most recent composed document, rendered or not.
func (r *Renderer) Latest() string {
	return r.latest
}

// Pending reports whether a document is waiting to be rendered.
func (r *Renderer) Pending() bool {
	return r.dirty
}

// Renders returns how many render passes have run.
func (r *Renderer) Renders() int {
	return r.renders
}

// LastGood returns the document currently shown by the i-th surface.
func (r *Renderer) LastGood(i int) (string, bool) {
	if i < 0 || i >= len(r.slots) {
		return "", false
	}
	return r.slots[i].lastGood, r.slots[i].loaded
}

func (r *Renderer) flush() {
	r.renders++
	r.dirty = false
	for _, sl := range r.slots {
		r.load(sl, r.latest)
	}
}

func (r *Renderer) load(sl *slot, doc string) {
	if err := sl.surface.Load(doc); err != nil {
		// The surface keeps its previous document; nothing is reported
		// to the user.
		logger.Warn("render failed, keeping previous document", "err", err, "bytes", len(doc))
		return
	}
	sl.lastGood = doc
	sl.loaded = true
}
