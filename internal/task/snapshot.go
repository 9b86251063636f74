package task

import "sort"

// Snapshot is an indexed, read-only view of a task store document built
// once per operation. It provides the parent→children edges the scope
// resolver traverses and the depth lookups the hierarchy policy needs.
type Snapshot struct {
	doc      *Document
	byID     map[string]*Task
	children map[string][]string
}

// NewSnapshot indexes the document. The snapshot shares the document's
// backing array; callers must not mutate the document while using it.
func NewSnapshot(doc *Document) *Snapshot {
	s := &Snapshot{
		doc:      doc,
		byID:     make(map[string]*Task, len(doc.Tasks)),
		children: make(map[string][]string),
	}
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		s.byID[t.ID] = t
		if t.ParentID != "" {
			s.children[t.ParentID] = append(s.children[t.ParentID], t.ID)
		}
	}
	// Deterministic child order regardless of document order.
	for _, ids := range s.children {
		sort.Strings(ids)
	}
	return s
}

// Lookup returns the task with the given ID.
func (s *Snapshot) Lookup(id string) (*Task, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Children returns the direct child IDs of the given task, sorted.
func (s *Snapshot) Children(id string) []string {
	return s.children[id]
}

// Len returns the number of tasks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.byID)
}

// Depth returns how many parent edges separate the task from its root.
// A root task has depth 0. Malformed cyclic parent data terminates via a
// visited set and reports the depth walked so far.
func (s *Snapshot) Depth(id string) int {
	depth := 0
	visited := map[string]bool{id: true}

	cur, ok := s.byID[id]
	for ok && cur.ParentID != "" {
		if visited[cur.ParentID] {
			break
		}
		visited[cur.ParentID] = true
		depth++
		cur, ok = s.byID[cur.ParentID]
	}
	return depth
}
