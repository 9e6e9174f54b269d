package sandbox_test

import (
	"errors"
	"io"
	"testing"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
)

func init() {
	sandbox.SetLogger(log.New(io.Discard))
}

// recorder is a Surface that remembers every document it was asked to load.
type recorder struct {
	loads  []string
	refuse func(doc string) bool
}

func (r *recorder) Load(doc string) error {
	if r.refuse != nil && r.refuse(doc) {
		return sandbox.ErrRefused
	}
	r.loads = append(r.loads, doc)
	return nil
}

func TestUpdateRendersImmediately(t *testing.T) {
	rec := &recorder{}
	r := sandbox.NewRenderer(rec)

	b := preview.Buffers{Markup: "<p>1</p>"}
	r.Update(b.Compose())
	b = b.With(preview.Style, "p{}")
	r.Update(b.Compose())

	if len(rec.loads) != 2 {
		t.Fatalf("got %d loads, want 2", len(rec.loads))
	}
	if rec.loads[1] != b.Compose() {
		t.Error("last load is not the latest document")
	}
}

func TestMinimizedSuspendsRendering(t *testing.T) {
	rec := &recorder{}
	r := sandbox.NewRenderer(rec)
	r.Update("v1")

	r.SetMinimized(true)
	r.Update("v2")
	r.Update("v3")

	if len(rec.loads) != 1 {
		t.Fatalf("rendered while minimized: %v", rec.loads)
	}
	if !r.Pending() {
		t.Error("expected a pending document")
	}

	r.SetMinimized(false)

	if len(rec.loads) != 2 {
		t.Fatalf("un-minimize rendered %d times, want exactly 1", len(rec.loads)-1)
	}
	if rec.loads[1] != "v3" {
		t.Errorf("rendered %q, want latest %q", rec.loads[1], "v3")
	}
	if r.Pending() {
		t.Error("document still pending after render")
	}
}

func TestUnminimizeWithoutChangeDoesNotRender(t *testing.T) {
	rec := &recorder{}
	r := sandbox.NewRenderer(rec)
	r.Update("v1")

	r.SetMinimized(true)
	r.SetMinimized(false)

	if len(rec.loads) != 1 {
		t.Errorf("got %d loads, want 1", len(rec.loads))
	}
}

func TestRefusedDocumentKeepsLastGood(t *testing.T) {
	rec := &recorder{refuse: func(doc string) bool { return doc == "bad" }}
	r := sandbox.NewRenderer(rec)

	r.Update("good")
	r.Update("bad")

	got, ok := r.LastGood(0)
	if !ok || got != "good" {
		t.Errorf("LastGood = %q, %v; want %q", got, ok, "good")
	}
	if r.Latest() != "bad" {
		t.Errorf("Latest = %q, want %q", r.Latest(), "bad")
	}
	if len(rec.loads) != 1 {
		t.Errorf("surface content replaced: %v", rec.loads)
	}
}

func TestSurfacesFailIndependently(t *testing.T) {
	ok := &recorder{}
	failing := sandbox.SurfaceFunc(func(string) error { return errors.New("boom") })
	r := sandbox.NewRenderer(failing, ok)

	r.Update("doc")

	if len(ok.loads) != 1 {
		t.Fatalf("healthy surface got %d loads, want 1", len(ok.loads))
	}
	if _, loaded := r.LastGood(0); loaded {
		t.Error("failing surface reported as loaded")
	}
}

func TestAttachCatchesUp(t *testing.T) {
	r := sandbox.NewRenderer()
	r.Update("doc")

	late := &recorder{}
	r.Attach(late)
	if len(late.loads) != 1 || late.loads[0] != "doc" {
		t.Errorf("late surface loads = %v", late.loads)
	}
}

func TestTextSurface(t *testing.T) {
	var ts sandbox.TextSurface
	r := sandbox.NewRenderer(&ts)

	r.Update("a\nb")
	if got := ts.Lines(); len(got) != 2 || got[1] != "b" {
		t.Errorf("Lines = %q", got)
	}

	r.Update("\xff\xfe")
	if ts.Document() != "a\nb" {
		t.Errorf("invalid UTF-8 replaced the document: %q", ts.Document())
	}
	if ts.Loads() != 1 {
		t.Errorf("Loads = %d, want 1", ts.Loads())
	}
	if !errors.Is(ts.Load("\xff"), sandbox.ErrRefused) {
		t.Error("expected ErrRefused")
	}
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "composed document drops style and script",
			doc:  preview.Compose("<h1>Hi</h1>", "h1{color:red}", "console.log(1)"),
			want: []string{"# Hi"},
		},
		{
			name: "lists and inline elements",
			doc:  "<ul><li>a</li><li>b</li></ul><p>x <b>y</b> z</p>",
			want: []string{"• a", "• b", "x y z"},
		},
		{
			name: "pre keeps line breaks",
			doc:  "<pre>one\n  two</pre>",
			want: []string{"one", "  two"},
		},
		{
			name: "malformed markup is not an error",
			doc:  "<div><p>open",
			want: []string{"open"},
		},
		{
			name: "empty shell",
			doc:  preview.Compose("", "", ""),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sandbox.RenderText(tt.doc)
			if len(got) != len(tt.want) {
				t.Fatalf("RenderText = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
