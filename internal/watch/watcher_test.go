package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskclaim/taskclaim/internal/logging"
)

func TestWatcherReportsTrackedFiles(t *testing.T) {
	dir := t.TempDir()

	changes := make(chan []string, 1)
	w, err := New(dir, []string{"tasks.json"}, 20*time.Millisecond,
		func(changed []string) { changes <- changed }, logging.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("writing tracked file: %v", err)
	}

	select {
	case changed := <-changes:
		if len(changed) != 1 || changed[0] != "tasks.json" {
			t.Errorf("changed = %v, want [tasks.json]", changed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification within 2s")
	}
}

func TestWatcherIgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()

	changes := make(chan []string, 1)
	w, err := New(dir, []string{"tasks.json"}, 20*time.Millisecond,
		func(changed []string) { changes <- changed }, logging.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing untracked file: %v", err)
	}

	select {
	case changed := <-changes:
		t.Errorf("unexpected notification for %v", changed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherBatchesWithinDebounceWindow(t *testing.T) {
	dir := t.TempDir()

	changes := make(chan []string, 4)
	w, err := New(dir, []string{"tasks.json", "sessions.json"}, 100*time.Millisecond,
		func(changed []string) { changes <- changed }, logging.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sessions.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case changed := <-changes:
		if len(changed) != 2 {
			t.Errorf("changed = %v, want both documents in one batch", changed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification within 2s")
	}
}
