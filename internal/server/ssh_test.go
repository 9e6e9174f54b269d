package server

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
	"github.com/Gaurav-Gosain/livepane/internal/workspace"
)

func TestNewSessionStudioStarter(t *testing.T) {
	m, err := NewSessionStudio(context.Background(), &SSHServerConfig{ExportDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if m.Buffers != preview.Starter() {
		t.Errorf("buffers = %+v, want the starter", m.Buffers)
	}
}

func TestNewSessionStudioWorkspace(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>disk</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	ws, err := workspace.Open(dir, workspace.DefaultFiles())
	if err != nil {
		t.Fatal(err)
	}

	var loaded []string
	surface := sandbox.SurfaceFunc(func(doc string) error {
		loaded = append(loaded, doc)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := NewSessionStudio(ctx, &SSHServerConfig{
		Workspace: ws,
		Surfaces:  []sandbox.Surface{surface},
		ExportDir: dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Buffers.Markup != "<p>disk</p>" {
		t.Errorf("markup = %q", m.Buffers.Markup)
	}
	if len(loaded) != 1 || loaded[0] != m.Buffers.Compose() {
		t.Errorf("extra surface loads = %d", len(loaded))
	}
	if m.Init() == nil {
		t.Error("studio has nothing to listen to")
	}
}

func TestNewSessionStudioStarterOverride(t *testing.T) {
	starter := preview.Buffers{Markup: "<h1>shared</h1>"}
	m, err := NewSessionStudio(context.Background(), &SSHServerConfig{Starter: &starter, ExportDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if m.Buffers != starter {
		t.Errorf("buffers = %+v, want %+v", m.Buffers, starter)
	}
	if got := m.Pane.Document(); got != starter.Compose() {
		t.Errorf("pane document = %q", got)
	}
}

func TestNewSessionStudioConcurrent(t *testing.T) {
	cfg := &SSHServerConfig{ExportDir: t.TempDir()}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := NewSessionStudio(context.Background(), cfg); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}
