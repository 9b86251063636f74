// Package audit emits one structured event per lifecycle transition and
// per backup/restore. Events flow through a synchronous bus into an
// append-only sink; the engine only writes, never reads.
package audit

import "time"

// Event is the interface all audit events implement.
type Event interface {
	// EventType returns the event identifier.
	// Convention: "category.action" (e.g. "session.started", "backup.created").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now().UTC(),
	}
}

// SessionStartedEvent is emitted when a session is created.
type SessionStartedEvent struct {
	baseEvent
	SessionID string
	FocusTask string
	ScopeType string
	TaskCount int
	Warning   string
}

// NewSessionStartedEvent creates a SessionStartedEvent.
func NewSessionStartedEvent(sessionID, focusTask, scopeType string, taskCount int, warning string) SessionStartedEvent {
	return SessionStartedEvent{
		baseEvent: newBaseEvent("session.started"),
		SessionID: sessionID,
		FocusTask: focusTask,
		ScopeType: scopeType,
		TaskCount: taskCount,
		Warning:   warning,
	}
}

// SessionSuspendedEvent is emitted when a session is suspended.
type SessionSuspendedEvent struct {
	baseEvent
	SessionID string
	Note      string
}

// NewSessionSuspendedEvent creates a SessionSuspendedEvent.
func NewSessionSuspendedEvent(sessionID, note string) SessionSuspendedEvent {
	return SessionSuspendedEvent{
		baseEvent: newBaseEvent("session.suspended"),
		SessionID: sessionID,
		Note:      note,
	}
}

// SessionResumedEvent is emitted when a suspended session resumes.
type SessionResumedEvent struct {
	baseEvent
	SessionID string
	FocusTask string
}

// NewSessionResumedEvent creates a SessionResumedEvent.
func NewSessionResumedEvent(sessionID, focusTask string) SessionResumedEvent {
	return SessionResumedEvent{
		baseEvent: newBaseEvent("session.resumed"),
		SessionID: sessionID,
		FocusTask: focusTask,
	}
}

// SessionEndedEvent is emitted when a session ends and moves to history.
type SessionEndedEvent struct {
	baseEvent
	SessionID      string
	TasksCompleted int
	Note           string
}

// NewSessionEndedEvent creates a SessionEndedEvent.
func NewSessionEndedEvent(sessionID string, tasksCompleted int, note string) SessionEndedEvent {
	return SessionEndedEvent{
		baseEvent:      newBaseEvent("session.ended"),
		SessionID:      sessionID,
		TasksCompleted: tasksCompleted,
		Note:           note,
	}
}

// BackupCreatedEvent is emitted after an accepted write rotates backups.
type BackupCreatedEvent struct {
	baseEvent
	Document string
}

// NewBackupCreatedEvent creates a BackupCreatedEvent.
func NewBackupCreatedEvent(document string) BackupCreatedEvent {
	return BackupCreatedEvent{
		baseEvent: newBaseEvent("backup.created"),
		Document:  document,
	}
}

// RestorePerformedEvent is emitted after a backup is copied back over a
// document following a failed swap.
type RestorePerformedEvent struct {
	baseEvent
	Document string
	Reason   string
}

// NewRestorePerformedEvent creates a RestorePerformedEvent.
func NewRestorePerformedEvent(document, reason string) RestorePerformedEvent {
	return RestorePerformedEvent{
		baseEvent: newBaseEvent("backup.restored"),
		Document:  document,
		Reason:    reason,
	}
}
