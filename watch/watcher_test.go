package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/mvdkit/config"
)

func testConfig() config.WatchConfig {
	return config.WatchConfig{
		Debounce:    50 * time.Millisecond,
		Extensions:  []string{".mvdxml"},
		ExcludeDirs: []string{".git", "vendor"},
	}
}

func startWatcher(t *testing.T, dir string, seed bool) *Watcher {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	w, err := New(testConfig(), dir, logger)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if seed {
		if _, err := w.Seed(); err != nil {
			t.Fatalf("failed to seed hashes: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	// Give watcher time to set up
	time.Sleep(100 * time.Millisecond)
	return w
}

func expectEvent(t *testing.T, w *Watcher, op Operation, path string) {
	t.Helper()
	select {
	case event := <-w.Events():
		if event.Operation != op {
			t.Errorf("expected %s operation, got %s", op, event.Operation)
		}
		if event.Path != path {
			t.Errorf("expected path %s, got %s", path, event.Path)
		}
	case <-time.After(time.Second):
		t.Errorf("timeout waiting for %s event", op)
	}
}

func expectNoEvent(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case event := <-w.Events():
		t.Errorf("unexpected event: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNewWatcherDefaults(t *testing.T) {
	w, err := New(config.WatchConfig{Extensions: []string{"MVDXML"}}, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	if !w.extensions[".mvdxml"] {
		t.Error("expected extension to be normalized to .mvdxml")
	}
	if !w.excludes["node_modules"] {
		t.Error("expected default excludes when none are configured")
	}
	if w.debounce != defaultDebounce {
		t.Errorf("expected default debounce, got %v", w.debounce)
	}
}

func TestWatcherFileCreation(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, false)

	if err := os.WriteFile(filepath.Join(dir, "view.mvdxml"), []byte("<mvdXML/>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	expectEvent(t, w, OpCreate, "view.mvdxml")
}

func TestWatcherFileModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "view.mvdxml")
	if err := os.WriteFile(path, []byte("<mvdXML/>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	w := startWatcher(t, dir, true)

	if err := os.WriteFile(path, []byte("<mvdXML name=\"changed\"/>"), 0644); err != nil {
		t.Fatalf("failed to modify test file: %v", err)
	}
	expectEvent(t, w, OpModify, "view.mvdxml")
}

func TestWatcherFileDeletion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "view.mvdxml")
	if err := os.WriteFile(path, []byte("<mvdXML/>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	w := startWatcher(t, dir, true)

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove test file: %v", err)
	}
	expectEvent(t, w, OpDelete, "view.mvdxml")

	if _, ok := w.Hash("view.mvdxml"); ok {
		t.Error("expected hash to be forgotten after delete")
	}
}

func TestWatcherUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "view.mvdxml")
	content := []byte("<mvdXML/>")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	w := startWatcher(t, dir, true)

	if hash, ok := w.Hash("view.mvdxml"); !ok || hash != ContentHash(content) {
		t.Fatalf("expected seeded hash %s, got %s", ContentHash(content), hash)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to rewrite test file: %v", err)
	}
	expectNoEvent(t, w)
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, false)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	expectNoEvent(t, w)
}

func TestWatcherIgnoresExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	excluded := filepath.Join(dir, "vendor")
	if err := os.MkdirAll(excluded, 0755); err != nil {
		t.Fatalf("failed to create excluded dir: %v", err)
	}
	w := startWatcher(t, dir, false)

	if err := os.WriteFile(filepath.Join(excluded, "view.mvdxml"), []byte("<mvdXML/>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	expectNoEvent(t, w)
}

func TestWatcherNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, false)

	sub := filepath.Join(dir, "views")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	// Let the create event add the watch before writing into it
	time.Sleep(150 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "view.mvdxml"), []byte("<mvdXML/>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	expectEvent(t, w, OpCreate, filepath.Join("views", "view.mvdxml"))
}

func TestSeedSkipsExcluded(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.mvdxml", filepath.Join("sub", "b.mvdxml"), filepath.Join(".git", "c.mvdxml"), "d.txt"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(p), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}

	w, err := New(testConfig(), dir, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	found, err := w.Seed()
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 seeded files, got %v", found)
	}
	if _, ok := w.Hash(filepath.Join("sub", "b.mvdxml")); !ok {
		t.Error("expected nested file to be seeded")
	}
}
