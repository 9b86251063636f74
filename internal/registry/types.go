// Package registry defines the session registry document: the live and
// historical session records that own task claims, plus the policy
// configuration governing concurrent sessions.
package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskclaim/taskclaim/internal/scope"
)

// Status is the state of a live session. Ended sessions are removed from
// the live collection and mirrored into history; they have no status.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// FocusEntry is one append-only record of a focus change.
type FocusEntry struct {
	TaskID string    `json:"taskId"`
	At     time.Time `json:"at"`
}

// Focus tracks what a session is actively working on.
type Focus struct {
	// CurrentTask is the single task the session is working on, empty if
	// the focus was cleared.
	CurrentTask  string       `json:"currentTask,omitempty"`
	PreviousTask string       `json:"previousTask,omitempty"`
	History      []FocusEntry `json:"history,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// Stats accumulates per-session counters.
type Stats struct {
	TasksCompleted int `json:"tasksCompleted"`
	FocusChanges   int `json:"focusChanges"`
	SuspendCount   int `json:"suspendCount"`
	ResumeCount    int `json:"resumeCount"`
}

// Session is one live session record. Its scope's ComputedTaskIDs are
// resolved at creation and immutable thereafter.
type Session struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	AgentID string `json:"agentId,omitempty"`
	Status  Status `json:"status"`

	Scope scope.Declaration `json:"scope"`
	Focus Focus             `json:"focus"`
	Stats Stats             `json:"stats"`

	StartedAt    time.Time  `json:"startedAt"`
	LastActivity time.Time  `json:"lastActivity"`
	SuspendedAt  *time.Time `json:"suspendedAt,omitempty"`
}

// SetFocus records a focus change, appending to the append-only history.
func (s *Session) SetFocus(taskID string, at time.Time) {
	if s.Focus.CurrentTask == taskID {
		return
	}
	s.Focus.PreviousTask = s.Focus.CurrentTask
	s.Focus.CurrentTask = taskID
	s.Focus.History = append(s.Focus.History, FocusEntry{TaskID: taskID, At: at})
	s.Stats.FocusChanges++
}

// HistoryRecord is an immutable mirror of an ended session.
type HistoryRecord struct {
	Session
	EndedAt time.Time `json:"endedAt"`
	EndNote string    `json:"endNote,omitempty"`
}

// PolicyConfig is the registry's persisted policy section.
type PolicyConfig struct {
	MaxConcurrentSessions  int  `json:"maxConcurrentSessions"`
	MaxActiveTasksPerScope int  `json:"maxActiveTasksPerScope"`
	AllowNestedScopes      bool `json:"allowNestedScopes"`
	AllowScopeOverlap      bool `json:"allowScopeOverlap"`
}

// Metadata carries the registry document's integrity fields.
type Metadata struct {
	Checksum        string    `json:"checksum"`
	LastModified    time.Time `json:"lastModified"`
	SessionsCreated int       `json:"sessionsCreated"`
}

// Document is the full session registry.
type Document struct {
	Policy   PolicyConfig    `json:"policy"`
	Sessions []Session       `json:"sessions"`
	History  []HistoryRecord `json:"history"`
	Meta     Metadata        `json:"meta"`
}

// NewDocument returns an empty registry with the given policy.
func NewDocument(policy PolicyConfig) *Document {
	return &Document{
		Policy:   policy,
		Sessions: []Session{},
		History:  []HistoryRecord{},
	}
}

// Find returns a pointer into the live sessions slice, or nil.
func (d *Document) Find(id string) *Session {
	for i := range d.Sessions {
		if d.Sessions[i].ID == id {
			return &d.Sessions[i]
		}
	}
	return nil
}

// Remove deletes a session from the live collection.
// Returns false if the session was not present.
func (d *Document) Remove(id string) bool {
	for i := range d.Sessions {
		if d.Sessions[i].ID == id {
			d.Sessions = append(d.Sessions[:i], d.Sessions[i+1:]...)
			return true
		}
	}
	return false
}

// ActiveFocusTasks returns the focus task of every active session,
// keyed by session ID.
func (d *Document) ActiveFocusTasks() map[string]string {
	out := make(map[string]string)
	for _, s := range d.Sessions {
		if s.Status == StatusActive && s.Focus.CurrentTask != "" {
			out[s.ID] = s.Focus.CurrentTask
		}
	}
	return out
}

// NewSessionID generates a session ID from the timestamp plus a random
// suffix, e.g. "S20260827T101530-3f8a2c1d".
func NewSessionID(now time.Time) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("S%s-%s", now.UTC().Format("20060102T150405"), suffix)
}
