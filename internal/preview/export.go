package preview

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExportContent returns what gets written for kind k: the composed document
// for Markup, the raw buffer otherwise.
func ExportContent(b Buffers, k Kind) string {
	if k == Markup {
		return b.Compose()
	}
	return b.Get(k)
}

// ExportFile writes a single export into dir and returns its path.
func ExportFile(dir string, b Buffers, k Kind) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, k.ExportName())
	if err := os.WriteFile(path, []byte(ExportContent(b, k)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", k.ExportName(), err)
	}
	return path, nil
}

// Export writes all three exports into dir.
func Export(dir string, b Buffers) ([]string, error) {
	paths := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		path, err := ExportFile(dir, b, k)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
