package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBusPublishOrder(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.SubscribeAll(func(e Event) { calls = append(calls, "wildcard") })
	bus.Subscribe("session.started", func(e Event) { calls = append(calls, "specific") })

	bus.Publish(NewSessionStartedEvent("S1", "T001", "task", 1, ""))

	if len(calls) != 2 {
		t.Fatalf("got %d handler calls, want 2", len(calls))
	}
	if calls[0] != "specific" || calls[1] != "wildcard" {
		t.Errorf("call order = %v, want specific before wildcard", calls)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	called := 0
	id := bus.Subscribe("session.ended", func(e Event) { called++ })

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe should find the subscription")
	}
	if bus.Unsubscribe(id) {
		t.Fatal("second Unsubscribe should return false")
	}

	bus.Publish(NewSessionEndedEvent("S1", 0, ""))
	if called != 0 {
		t.Errorf("handler called %d times after unsubscribe, want 0", called)
	}
}

func TestBusIgnoresUnmatchedTypes(t *testing.T) {
	bus := NewBus()

	called := 0
	bus.Subscribe("session.suspended", func(e Event) { called++ })

	bus.Publish(NewSessionResumedEvent("S1", "T001"))
	if called != 0 {
		t.Errorf("handler for another type called %d times, want 0", called)
	}
}

func TestFileSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	sink := NewFileSink(path)

	if err := sink.Record(NewSessionStartedEvent("S1", "T001", "subtree", 3, "")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := sink.Record(NewBackupCreatedEvent("tasks.json")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("audit log has %d lines, want 2", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line is not JSON: %v", err)
	}
	if first["type"] != "session.started" {
		t.Errorf("first entry type = %v, want session.started", first["type"])
	}
	if first["id"] == "" {
		t.Error("audit entries should carry an id")
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second line is not JSON: %v", err)
	}
	if second["type"] != "backup.created" {
		t.Errorf("second entry type = %v, want backup.created", second["type"])
	}
}

func TestAttachRoutesBusToSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	bus := NewBus()
	Attach(bus, NewFileSink(path))

	bus.Publish(NewSessionSuspendedEvent("S1", "lunch"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("audit log not written: %v", err)
	}
	if !strings.Contains(string(data), "session.suspended") {
		t.Errorf("audit log missing event: %s", data)
	}
}
