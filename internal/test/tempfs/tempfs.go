package tempfs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WithTempFS writes files into a fresh temporary directory and calls fn with
// its path. Keys are slash-separated paths relative to the root; a key ending
// in "/" creates an empty directory.
func WithTempFS(t *testing.T, files map[string]string, fn func(t *testing.T, root string)) {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(name, "/")))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fn(t, root)
}
