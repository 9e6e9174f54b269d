package web

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
)

func recv(t *testing.T, sub *Subscriber) string {
	t.Helper()
	select {
	case doc := <-sub.Updates():
		return doc
	case <-time.After(time.Second):
		t.Fatal("no document delivered")
		return ""
	}
}

func TestHubImplementsSurface(t *testing.T) {
	var _ sandbox.Surface = NewHub()
}

func TestHubLatestWins(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("test")

	for _, doc := range []string{"one", "two", "three"} {
		if err := h.Load(doc); err != nil {
			t.Fatal(err)
		}
	}

	if got := recv(t, sub); got != "three" {
		t.Errorf("got %q, want the latest document", got)
	}
	select {
	case doc := <-sub.Updates():
		t.Errorf("stale document %q still queued", doc)
	default:
	}
}

func TestHubSubscribeReceivesCurrent(t *testing.T) {
	h := NewHub()
	if _, ok := h.Document(); ok {
		t.Fatal("empty hub reported a document")
	}
	if err := h.Load("<p>hi</p>"); err != nil {
		t.Fatal(err)
	}

	sub := h.Subscribe("late")
	if got := recv(t, sub); got != "<p>hi</p>" {
		t.Errorf("late subscriber got %q", got)
	}
}

func TestHubRefusesLargeDocument(t *testing.T) {
	h := NewHub()
	if err := h.Load("small"); err != nil {
		t.Fatal(err)
	}

	err := h.Load(strings.Repeat("x", MaxDocumentSize+1))
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("err = %v, want ErrDocumentTooLarge", err)
	}
	if doc, _ := h.Document(); doc != "small" {
		t.Errorf("refused load replaced document with %d bytes", len(doc))
	}
	if h.Loads() != 1 {
		t.Errorf("Loads = %d, want 1", h.Loads())
	}
}

func TestHubRendererKeepsLastGood(t *testing.T) {
	h := NewHub()
	r := sandbox.NewRenderer(h)

	r.Update("good")
	r.Update(strings.Repeat("x", MaxDocumentSize+1))

	if doc, _ := h.Document(); doc != "good" {
		t.Errorf("hub document = %d bytes, want the last good one", len(doc))
	}
	if lg, ok := r.LastGood(0); !ok || lg != "good" {
		t.Errorf("LastGood = %q, %v", lg, ok)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("a")
	b := h.Subscribe("b")
	if a.ID == b.ID {
		t.Fatal("subscribers share an ID")
	}
	if h.Count() != 2 {
		t.Fatalf("Count = %d", h.Count())
	}

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	if h.Count() != 1 {
		t.Errorf("Count after unsubscribe = %d", h.Count())
	}

	_ = h.Load("doc")
	select {
	case <-a.Updates():
		t.Error("unsubscribed subscriber received a document")
	default:
	}
	if got := recv(t, b); got != "doc" {
		t.Errorf("b got %q", got)
	}
}

func TestHubBuffersFollowAcceptedDocument(t *testing.T) {
	h := NewHub()
	r := sandbox.NewRenderer(h)
	publish := func(b preview.Buffers) {
		h.SetBuffers(b)
		r.Update(b.Compose())
	}

	good := preview.Buffers{Markup: "<p>ok</p>"}
	publish(good)
	if got := h.Buffers(); got != good {
		t.Fatalf("buffers = %+v, want %+v", got, good)
	}

	huge := preview.Buffers{Markup: strings.Repeat("x", MaxDocumentSize+1)}
	publish(huge)
	if got := h.Buffers(); got != good {
		t.Error("buffers of a refused document were exported")
	}
	if doc, _ := h.Document(); doc != good.Compose() {
		t.Error("document and exported buffers diverged")
	}

	next := preview.Buffers{Markup: "<p>next</p>"}
	publish(next)
	if got := h.Buffers(); got != next {
		t.Errorf("buffers = %+v, want %+v", got, next)
	}
}
