// Package workspace loads the three source buffers from a directory and
// watches it for edits made by external editors.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/fsnotify/fsnotify"
)

// ErrNotDirectory is returned when the workspace path is a regular file.
var ErrNotDirectory = errors.New("workspace path is not a directory")

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "workspace",
})

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	logger = l
}

// Files maps each buffer kind to its file name inside the workspace.
type Files struct {
	Markup string `toml:"markup"`
	Style  string `toml:"style"`
	Script string `toml:"script"`
}

// DefaultFiles returns the conventional file names.
func DefaultFiles() Files {
	return Files{
		Markup: "index.html",
		Style:  "style.css",
		Script: "script.js",
	}
}

// Name returns the file name for kind k.
func (f Files) Name(k preview.Kind) string {
	switch k {
	case preview.Markup:
		return f.Markup
	case preview.Style:
		return f.Style
	case preview.Script:
		return f.Script
	}
	return ""
}

// Change is one buffer whose file changed on disk.
type Change struct {
	Kind    preview.Kind
	Content string
}

// Workspace is a directory holding the source buffers.
type Workspace struct {
	Dir   string
	Files Files
}

// Open validates dir and returns a workspace. The directory is created if it
// does not exist yet.
func Open(dir string, files Files) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat workspace: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	defaults := DefaultFiles()
	if files.Markup == "" {
		files.Markup = defaults.Markup
	}
	if files.Style == "" {
		files.Style = defaults.Style
	}
	if files.Script == "" {
		files.Script = defaults.Script
	}

	return &Workspace{Dir: abs, Files: files}, nil
}

// Path returns the absolute path of the file backing kind k.
func (w *Workspace) Path(k preview.Kind) string {
	return filepath.Join(w.Dir, w.Files.Name(k))
}

// Load reads all three buffers. Missing files are filled from starter, and
// written back so that an external editor has something to open.
func (w *Workspace) Load(starter preview.Buffers) (preview.Buffers, error) {
	var b preview.Buffers
	for _, k := range preview.Kinds {
		data, err := os.ReadFile(w.Path(k))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			content := starter.Get(k)
			if err := os.WriteFile(w.Path(k), []byte(content), 0o644); err != nil {
				return b, fmt.Errorf("seed %s: %w", w.Files.Name(k), err)
			}
			logger.Debug("seeded buffer", "file", w.Files.Name(k))
			b = b.With(k, content)
		case err != nil:
			return b, fmt.Errorf("read %s: %w", w.Files.Name(k), err)
		default:
			b = b.With(k, string(data))
		}
	}
	return b, nil
}

// Save writes buffer k back to its file.
func (w *Workspace) Save(k preview.Kind, content string) error {
	if err := os.WriteFile(w.Path(k), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.Files.Name(k), err)
	}
	return nil
}

// kindFor maps a changed path back to a buffer kind.
func (w *Workspace) kindFor(path string) (preview.Kind, bool) {
	base := filepath.Base(path)
	for _, k := range preview.Kinds {
		if w.Files.Name(k) == base {
			return k, true
		}
	}
	return 0, false
}

// Watch reports changes to the buffer files until ctx is cancelled. The
// returned channel is closed when watching stops. Editors that save by
// rename are handled by watching the directory rather than the files.
func (w *Workspace) Watch(ctx context.Context) (<-chan Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", w.Dir, err)
	}

	changes := make(chan Change, 8)
	go func() {
		defer close(changes)
		defer func() { _ = watcher.Close() }()

		last := map[preview.Kind]string{}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				k, ok := w.kindFor(ev.Name)
				if !ok {
					continue
				}
				data, err := os.ReadFile(w.Path(k))
				if err != nil {
					// Rename-based saves briefly leave no file behind.
					logger.Debug("skip unreadable change", "file", ev.Name, "err", err)
					continue
				}
				content := string(data)
				if prev, seen := last[k]; seen && prev == content {
					continue
				}
				last[k] = content
				select {
				case changes <- Change{Kind: k, Content: content}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error", "err", err)
			}
		}
	}()
	return changes, nil
}
