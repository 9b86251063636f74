package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogFileName is the audit log name within the data directory.
const LogFileName = "audit.log"

// Sink consumes audit events. The engine treats the sink as append-only
// and write-only: it never reads entries back.
type Sink interface {
	Record(e Event) error
}

// entry is one serialized audit line.
type entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Detail    any       `json:"detail,omitempty"`
}

// FileSink appends one JSON line per event to the audit log.
// It is safe for concurrent use within a process; cross-process appends
// rely on O_APPEND line atomicity for the small entries written here.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a FileSink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Record implements Sink.
func (s *FileSink) Record(e Event) error {
	line, err := json.Marshal(entry{
		ID:        uuid.NewString(),
		Type:      e.EventType(),
		Timestamp: e.Timestamp(),
		Detail:    e,
	})
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Attach subscribes the sink to every event on the bus. Sink failures are
// deliberately swallowed: audit must never fail a lifecycle operation
// that has already committed.
func Attach(bus *Bus, sink Sink) {
	bus.SubscribeAll(func(e Event) {
		_ = sink.Record(e)
	})
}
