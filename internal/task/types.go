// Package task defines the task store document: the shared JSON collection
// of task records, its integrity metadata, and the snapshot index the
// scope resolver and hierarchy policy walk.
package task

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
	StatusDone    Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusBlocked, StatusDone:
		return true
	}
	return false
}

// Priority orders tasks for auto-focus selection.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the priority's selection rank; higher is more urgent.
// Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Task is one record in the task store. ParentID defines hierarchy edges
// only, not ownership; an empty ParentID marks a root task. IDs are stable
// and never reused.
type Task struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parentId,omitempty"`
	Title     string    `json:"title,omitempty"`
	Status    Status    `json:"status"`
	Phase     string    `json:"phase,omitempty"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Metadata carries the store document's integrity and coordination fields.
type Metadata struct {
	Checksum            string    `json:"checksum"`
	LastModified        time.Time `json:"lastModified"`
	ActiveSessions      int       `json:"activeSessions"`
	MultiSessionEnabled bool      `json:"multiSessionEnabled"`
}

// Document is the full task store: all task records plus metadata.
// It is only ever mutated through the transaction layer.
type Document struct {
	Tasks []Task   `json:"tasks"`
	Meta  Metadata `json:"meta"`
}

// NewDocument returns an empty task store document with multi-session
// coordination enabled.
func NewDocument() *Document {
	return &Document{
		Tasks: []Task{},
		Meta: Metadata{
			MultiSessionEnabled: true,
		},
	}
}

// Find returns a pointer into the document's task slice for the given ID,
// or nil if the task does not exist.
func (d *Document) Find(id string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i]
		}
	}
	return nil
}

// NextID returns the next sequential task ID ("T001", "T002", ...).
// IDs are never reused: the counter is derived from the highest ID ever
// issued, including done tasks.
func (d *Document) NextID() string {
	max := 0
	for _, t := range d.Tasks {
		var n int
		if _, err := fmt.Sscanf(t.ID, "T%d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("T%03d", max+1)
}
