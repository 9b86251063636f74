package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskclaim/taskclaim/internal/errors"
	"github.com/taskclaim/taskclaim/internal/logging"
	"github.com/taskclaim/taskclaim/internal/scope"
	"github.com/taskclaim/taskclaim/internal/txn"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	writer := txn.NewWriter(txn.JSONValidator{}, txn.NewFileBackupKeeper(2), logging.NopLogger())
	return NewStore(path, writer, logging.NopLogger())
}

func testPolicy() PolicyConfig {
	return PolicyConfig{
		MaxConcurrentSessions: 4,
		AllowNestedScopes:     true,
	}
}

func testSession(id string, status Status, focus string, ids ...string) Session {
	now := time.Now().UTC()
	return Session{
		ID:     id,
		Status: status,
		Scope: scope.Declaration{
			Type:            scope.TypeCustom,
			CustomTaskIDs:   ids,
			ComputedTaskIDs: ids,
		},
		Focus:        Focus{CurrentTask: focus},
		StartedAt:    now,
		LastActivity: now,
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	doc := NewDocument(testPolicy())
	doc.Sessions = append(doc.Sessions, testSession("S1", StatusActive, "T001", "T001", "T002"))
	doc.Meta.SessionsCreated = 1

	if err := store.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Sessions) != 1 {
		t.Fatalf("loaded %d sessions, want 1", len(loaded.Sessions))
	}
	if loaded.Sessions[0].Focus.CurrentTask != "T001" {
		t.Errorf("focus = %q, want T001", loaded.Sessions[0].Focus.CurrentTask)
	}
	if loaded.Policy.MaxConcurrentSessions != 4 {
		t.Errorf("policy not persisted: %+v", loaded.Policy)
	}
	if loaded.Meta.SessionsCreated != 1 {
		t.Errorf("sessionsCreated = %d, want 1", loaded.Meta.SessionsCreated)
	}
}

func TestLoadDetectsChecksumMismatch(t *testing.T) {
	store := newTestStore(t)
	doc := NewDocument(testPolicy())
	doc.Sessions = append(doc.Sessions, testSession("S1", StatusActive, "T001", "T001"))
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(store.Path())
	var raw Document
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	raw.Sessions[0].Status = StatusSuspended
	tampered, _ := json.MarshalIndent(&raw, "", "  ")
	if err := os.WriteFile(store.Path(), tampered, 0644); err != nil {
		t.Fatalf("tampering: %v", err)
	}

	_, err := store.Load()
	if !errors.Is(err, errors.ErrChecksumMismatch) {
		t.Fatalf("Load = %v, want ErrChecksumMismatch", err)
	}
}

func TestFindAndRemove(t *testing.T) {
	doc := NewDocument(testPolicy())
	doc.Sessions = append(doc.Sessions,
		testSession("S1", StatusActive, "T001", "T001"),
		testSession("S2", StatusSuspended, "T002", "T002"),
	)

	if got := doc.Find("S2"); got == nil || got.ID != "S2" {
		t.Fatalf("Find(S2) = %v", got)
	}
	if got := doc.Find("S9"); got != nil {
		t.Fatalf("Find(S9) = %v, want nil", got)
	}

	if !doc.Remove("S1") {
		t.Fatal("Remove(S1) = false, want true")
	}
	if doc.Remove("S1") {
		t.Fatal("second Remove(S1) = true, want false")
	}
	if len(doc.Sessions) != 1 || doc.Sessions[0].ID != "S2" {
		t.Errorf("sessions after removal = %+v", doc.Sessions)
	}
}

func TestActiveFocusTasks(t *testing.T) {
	doc := NewDocument(testPolicy())
	doc.Sessions = append(doc.Sessions,
		testSession("S1", StatusActive, "T001", "T001"),
		testSession("S2", StatusSuspended, "T002", "T002"),
		testSession("S3", StatusActive, "", "T003"),
	)

	got := doc.ActiveFocusTasks()
	if len(got) != 1 {
		t.Fatalf("ActiveFocusTasks = %v, want only S1", got)
	}
	if got["S1"] != "T001" {
		t.Errorf("ActiveFocusTasks[S1] = %q, want T001", got["S1"])
	}
}

func TestSetFocus(t *testing.T) {
	s := testSession("S1", StatusActive, "", "T001", "T002")
	now := time.Now().UTC()

	s.SetFocus("T001", now)
	s.SetFocus("T001", now) // no-op
	s.SetFocus("T002", now)

	if s.Focus.CurrentTask != "T002" {
		t.Errorf("CurrentTask = %q, want T002", s.Focus.CurrentTask)
	}
	if s.Focus.PreviousTask != "T001" {
		t.Errorf("PreviousTask = %q, want T001", s.Focus.PreviousTask)
	}
	if len(s.Focus.History) != 2 {
		t.Errorf("history length = %d, want 2 (idempotent refocus must not append)", len(s.Focus.History))
	}
	if s.Stats.FocusChanges != 2 {
		t.Errorf("FocusChanges = %d, want 2", s.Stats.FocusChanges)
	}
}

func TestNewSessionID(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 15, 30, 0, time.UTC)

	id := NewSessionID(now)
	if !strings.HasPrefix(id, "S20260827T101530-") {
		t.Errorf("id = %q, want timestamp prefix", id)
	}

	if other := NewSessionID(now); other == id {
		t.Error("two IDs from the same instant should differ in their random suffix")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Init(testPolicy())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !created {
		t.Error("first Init should create the registry")
	}

	created, err = store.Init(testPolicy())
	if err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if created {
		t.Error("second Init should be a no-op")
	}
}
