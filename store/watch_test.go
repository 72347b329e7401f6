package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestImportable(t *testing.T) {
	cases := []struct {
		name string
		path string
		want bool
	}{
		{
			name: "markdown",
			path: "notes/todo.md",
			want: true,
		},
		{
			name: "uppercase_ext",
			path: "shot.PNG",
			want: true,
		},
		{
			name: "script",
			path: "calc.tengo",
			want: true,
		},
		{
			name: "shortcut",
			path: "docs.url",
			want: true,
		},
		{
			name: "binary",
			path: "tool.exe",
			want: false,
		},
		{
			name: "no_ext",
			path: "Makefile",
			want: false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Importable(c.path); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestWatcherCoalescesRewrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("expected watcher to start, got %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "dropped.txt")
	// Editors often write the same file in several passes.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("pass"), 0o644); err != nil {
			t.Fatalf("write returned error: %v", err)
		}
	}

	select {
	case got := <-w.Events:
		if got != path {
			t.Fatalf("expected %s, got %s", path, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected an import event")
	}

	select {
	case got := <-w.Events:
		t.Fatalf("rapid rewrites should coalesce, got extra event %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherIgnoresUnknownFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("expected watcher to start, got %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "junk.bin"), []byte{0}, 0o644); err != nil {
		t.Fatalf("write returned error: %v", err)
	}

	select {
	case got := <-w.Events:
		t.Fatalf("unimportable file should be ignored, got %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}
