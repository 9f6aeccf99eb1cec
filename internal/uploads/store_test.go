package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	name, err := store.Save("banner.png", strings.NewReader("pngdata"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if name != "banner.png" {
		t.Fatalf("expected banner.png, got %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read saved pic: %v", err)
	}
	if string(data) != "pngdata" {
		t.Fatalf("unexpected pic content: %q", data)
	}
}

func TestStoreSave_CollisionGetsSuffix(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	first, err := store.Save("pic.png", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("first Save returned error: %v", err)
	}
	second, err := store.Save("pic.png", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct names, both %q", first)
	}
	if !strings.HasSuffix(second, ".png") {
		t.Fatalf("expected suffix to keep the extension, got %q", second)
	}

	// First file untouched
	data, err := os.ReadFile(filepath.Join(dir, first))
	if err != nil {
		t.Fatalf("failed to read first pic: %v", err)
	}
	if string(data) != "a" {
		t.Fatalf("first pic overwritten: %q", data)
	}
}

func TestStoreSave_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	name, err := store.Save("../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if name != "passwd" {
		t.Fatalf("expected stripped base name, got %q", name)
	}
	if _, err := os.Stat(filepath.Join(dir, "passwd")); err != nil {
		t.Fatalf("expected file inside pics dir: %v", err)
	}
}

func TestWatcher_IndexesExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to seed pic: %v", err)
	}

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher returned error: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer w.Stop()

	if !w.Has("existing.png") {
		t.Fatal("expected existing file to be indexed")
	}
	if w.Has("missing.png") {
		t.Fatal("did not expect missing file in index")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.png"), []byte("y"), 0o644); err != nil {
		t.Fatalf("failed to create pic: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !w.Has("new.png") {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not index new file in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
