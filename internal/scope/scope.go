// Package scope declares session scopes and resolves them against a task
// store snapshot. Resolution is pure: for a fixed snapshot and declaration
// it always produces the same ordered id set.
package scope

// Type identifies how a scope declaration maps to tasks.
type Type string

const (
	// TypeTask claims exactly the root task.
	TypeTask Type = "task"
	// TypeTaskGroup claims the root task and its direct children.
	TypeTaskGroup Type = "taskGroup"
	// TypeSubtree claims the root task and all descendants up to MaxDepth.
	TypeSubtree Type = "subtree"
	// TypeEpicPhase claims the subtree filtered to one phase.
	TypeEpicPhase Type = "epicPhase"
	// TypeEpic claims the full subtree with no phase filter.
	TypeEpic Type = "epic"
	// TypeCustom claims an explicit id set; RootTaskID is ignored.
	TypeCustom Type = "custom"
)

// Valid reports whether t is a known scope type.
func (t Type) Valid() bool {
	switch t {
	case TypeTask, TypeTaskGroup, TypeSubtree, TypeEpicPhase, TypeEpic, TypeCustom:
		return true
	}
	return false
}

// Declaration describes which tasks a session may claim. ComputedTaskIDs
// is resolved once at session creation and never recomputed afterwards:
// re-resolution against a changed store would silently change the
// session's claimed coverage.
type Declaration struct {
	Type           Type     `json:"type"`
	RootTaskID     string   `json:"rootTaskId,omitempty"`
	PhaseFilter    string   `json:"phaseFilter,omitempty"`
	MaxDepth       int      `json:"maxDepth,omitempty"`
	ExcludeTaskIDs []string `json:"excludeTaskIds,omitempty"`
	CustomTaskIDs  []string `json:"customTaskIds,omitempty"`

	// ComputedTaskIDs is the cached resolved set, immutable for the
	// session's life.
	ComputedTaskIDs []string `json:"computedTaskIds"`
}
