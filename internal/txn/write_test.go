package txn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taskclaim/taskclaim/internal/errors"
	"github.com/taskclaim/taskclaim/internal/logging"
)

func newTestWriter(t *testing.T, retention int) *Writer {
	t.Helper()
	return NewWriter(JSONValidator{}, NewFileBackupKeeper(retention), logging.NopLogger())
}

func TestWriteCreatesDocument(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	w := newTestWriter(t, 3)

	if err := w.Write(doc, []byte(`{"tasks":[]}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(doc)
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	if string(data) != `{"tasks":[]}` {
		t.Errorf("document content = %q", data)
	}
}

func TestWriteReplacesAndBacksUp(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	w := newTestWriter(t, 3)

	if err := w.Write(doc, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := w.Write(doc, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	data, _ := os.ReadFile(doc)
	if string(data) != `{"v":2}` {
		t.Errorf("document = %q, want replacement content", data)
	}

	backup, err := os.ReadFile(doc + ".bak.1")
	if err != nil {
		t.Fatalf("freshest backup missing: %v", err)
	}
	if string(backup) != `{"v":1}` {
		t.Errorf("backup = %q, want prior content", backup)
	}
}

func TestWriteRejectsMalformedContent(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	w := newTestWriter(t, 3)

	if err := w.Write(doc, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("initial Write: %v", err)
	}

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"truncated json", []byte(`{"v":`)},
		{"plain text", []byte("not json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.Write(doc, tt.content)
			if !errors.Is(err, errors.ErrValidationFailed) {
				t.Fatalf("Write = %v, want ErrValidationFailed", err)
			}

			// Original untouched.
			data, _ := os.ReadFile(doc)
			if string(data) != `{"v":1}` {
				t.Errorf("document = %q, original must be untouched", data)
			}
		})
	}

	// No staged temp artifacts left behind.
	entries, _ := os.ReadDir(filepath.Dir(doc))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".staged-") {
			t.Errorf("leftover temp artifact: %s", e.Name())
		}
	}
}

func TestBackupRotationOrder(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "sessions.json")
	w := newTestWriter(t, 2)

	for v := 1; v <= 4; v++ {
		if err := w.Write(doc, []byte(fmt.Sprintf(`{"v":%d}`, v))); err != nil {
			t.Fatalf("Write v=%d: %v", v, err)
		}
	}

	// After writing v4: .bak.1 holds v3, .bak.2 holds v2, v1 rotated out.
	b1, _ := os.ReadFile(doc + ".bak.1")
	if string(b1) != `{"v":3}` {
		t.Errorf(".bak.1 = %q, want v3", b1)
	}
	b2, _ := os.ReadFile(doc + ".bak.2")
	if string(b2) != `{"v":2}` {
		t.Errorf(".bak.2 = %q, want v2", b2)
	}
	if _, err := os.Stat(doc + ".bak.3"); !os.IsNotExist(err) {
		t.Error(".bak.3 should not exist with retention 2")
	}
}

func TestZeroRetentionKeepsNoBackups(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	w := newTestWriter(t, 0)

	if err := w.Write(doc, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(doc, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(doc + ".bak.1"); !os.IsNotExist(err) {
		t.Error("no backups should exist with retention 0")
	}
}

func TestRestoreLatest(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	keeper := NewFileBackupKeeper(3)
	w := NewWriter(JSONValidator{}, keeper, logging.NopLogger())

	if err := w.Write(doc, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(doc, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Simulate a corrupted document, then restore.
	if err := os.WriteFile(doc, []byte("garbage"), 0644); err != nil {
		t.Fatalf("corrupting document: %v", err)
	}
	if err := keeper.RestoreLatest(doc); err != nil {
		t.Fatalf("RestoreLatest: %v", err)
	}

	data, _ := os.ReadFile(doc)
	if string(data) != `{"v":1}` {
		t.Errorf("restored document = %q, want freshest backup content", data)
	}
}

func TestRestoreLatestWithoutBackupFails(t *testing.T) {
	keeper := NewFileBackupKeeper(3)
	if err := keeper.RestoreLatest(filepath.Join(t.TempDir(), "tasks.json")); err == nil {
		t.Fatal("RestoreLatest with no backup should fail")
	}
}

func TestBackupList(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	keeper := NewFileBackupKeeper(3)
	w := NewWriter(JSONValidator{}, keeper, logging.NopLogger())

	for v := 1; v <= 3; v++ {
		if err := w.Write(doc, []byte(fmt.Sprintf(`{"v":%d}`, v))); err != nil {
			t.Fatalf("Write v=%d: %v", v, err)
		}
	}

	backups := keeper.List(doc)
	if len(backups) != 2 {
		t.Fatalf("List returned %d backups, want 2", len(backups))
	}
	if filepath.Base(backups[0]) != "tasks.json.bak.1" {
		t.Errorf("first backup = %s, want tasks.json.bak.1", backups[0])
	}
}

func TestWriteNotifiesBackupHook(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	w := newTestWriter(t, 3)

	var backups []string
	w.SetHooks(Hooks{BackupCreated: func(path string) { backups = append(backups, path) }})

	// The first write has nothing to snapshot, so no event.
	if err := w.Write(doc, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if len(backups) != 0 {
		t.Fatalf("hook fired %d times after first write, want 0", len(backups))
	}

	if err := w.Write(doc, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if len(backups) != 1 || backups[0] != doc {
		t.Errorf("hook calls = %v, want [%s]", backups, doc)
	}
}

func TestZeroRetentionSkipsBackupHook(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "tasks.json")
	w := newTestWriter(t, 0)

	fired := 0
	w.SetHooks(Hooks{BackupCreated: func(string) { fired++ }})

	if err := w.Write(doc, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(doc, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if fired != 0 {
		t.Errorf("hook fired %d times with retention 0, want 0", fired)
	}
}

// recordingKeeper stands in for the file keeper so restore behavior can
// be observed without real backup files.
type recordingKeeper struct {
	restores int
}

func (k *recordingKeeper) Create(string) (bool, error) { return true, nil }

func (k *recordingKeeper) RestoreLatest(string) error {
	k.restores++
	return nil
}

func TestWriteNotifiesRestoreHookOnFailedSwap(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tasks.json")
	// A directory at the target path makes the final rename fail after
	// staging succeeds.
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatalf("preparing target: %v", err)
	}

	keeper := &recordingKeeper{}
	w := NewWriter(JSONValidator{}, keeper, logging.NopLogger())

	var restored []string
	var reason string
	w.SetHooks(Hooks{RestorePerformed: func(path, r string) {
		restored = append(restored, path)
		reason = r
	}})

	err := w.Write(target, []byte(`{"v":1}`))
	if !errors.Is(err, errors.ErrWriteFailed) {
		t.Fatalf("Write = %v, want ErrWriteFailed", err)
	}
	if keeper.restores != 1 {
		t.Errorf("restores = %d, want 1", keeper.restores)
	}
	if len(restored) != 1 || restored[0] != target {
		t.Errorf("hook calls = %v, want [%s]", restored, target)
	}
	if reason == "" {
		t.Error("restore hook should carry the swap failure reason")
	}
}

func TestChecksumDeterministic(t *testing.T) {
	a := Checksum([]byte(`{"tasks":[]}`))
	b := Checksum([]byte(`{"tasks":[]}`))
	c := Checksum([]byte(`{"tasks":[1]}`))

	if a != b {
		t.Error("identical content must have identical checksums")
	}
	if a == c {
		t.Error("different content must have different checksums")
	}
	if len(a) != 64 {
		t.Errorf("checksum length = %d, want 64 hex chars", len(a))
	}
}
