package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsManifestFiles(t *testing.T) {
	dir := t.TempDir()
	tex := filepath.Join(dir, "tex.png")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{tex, other} {
		if err := os.WriteFile(p, []byte("v1"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	changes := make(chan Change, 16)
	w, err := NewWatcher(Manifest{{Name: "tex", Kind: KindTexture, Path: tex}}, func(c Change) {
		changes <- c
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.AddRecursive(dir); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(other, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tex, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if c.Asset.Name != "tex" {
			t.Fatalf("change for %q, want tex", c.Asset.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); !errors.Is(err, ErrWatcherClosed) {
		t.Fatalf("second Close err = %v", err)
	}
	if err := w.AddRecursive(t.TempDir()); !errors.Is(err, ErrWatcherClosed) {
		t.Fatalf("AddRecursive err = %v", err)
	}
}
