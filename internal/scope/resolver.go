package scope

import (
	"github.com/taskclaim/taskclaim/internal/errors"
	"github.com/taskclaim/taskclaim/internal/task"
)

// Resolve maps a declaration plus a task store snapshot to the concrete,
// ordered id set the scope claims. An empty result after exclusion is a
// hard validation error: a session may never claim zero tasks. A
// nonexistent root fails the same way rather than silently resolving to
// an empty set.
func Resolve(snap *task.Snapshot, decl Declaration) ([]string, error) {
	if !decl.Type.Valid() {
		return nil, errors.Wrapf(errors.ErrScopeInvalid, "unknown scope type %q", decl.Type)
	}

	var ids []string

	switch decl.Type {
	case TypeCustom:
		for _, id := range decl.CustomTaskIDs {
			if _, ok := snap.Lookup(id); !ok {
				return nil, errors.Wrapf(errors.ErrScopeInvalid, "custom task %q does not exist", id)
			}
		}
		ids = dedupe(decl.CustomTaskIDs)

	default:
		if _, ok := snap.Lookup(decl.RootTaskID); !ok {
			return nil, errors.Wrapf(errors.ErrScopeInvalid, "root task %q does not exist", decl.RootTaskID)
		}

		switch decl.Type {
		case TypeTask:
			ids = []string{decl.RootTaskID}

		case TypeTaskGroup:
			ids = append([]string{decl.RootTaskID}, snap.Children(decl.RootTaskID)...)

		case TypeSubtree, TypeEpic:
			ids = descend(snap, decl.RootTaskID, decl.MaxDepth)

		case TypeEpicPhase:
			for _, id := range descend(snap, decl.RootTaskID, decl.MaxDepth) {
				t, _ := snap.Lookup(id)
				if t.Phase == decl.PhaseFilter {
					ids = append(ids, id)
				}
			}
		}
	}

	ids = subtract(ids, decl.ExcludeTaskIDs)
	if len(ids) == 0 {
		return nil, errors.Wrap(errors.ErrScopeInvalid, "scope resolves to zero tasks")
	}
	return ids, nil
}

// descend collects root plus descendants via breadth-first traversal over
// the snapshot's parent→children index. maxDepth bounds recursion depth
// relative to the root (0 = unbounded); the visited set guarantees
// termination on malformed cyclic data.
func descend(snap *task.Snapshot, rootID string, maxDepth int) []string {
	type frame struct {
		id    string
		depth int
	}

	var out []string
	visited := map[string]bool{rootID: true}
	queue := []frame{{id: rootID, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur.id)

		if maxDepth > 0 && cur.depth >= maxDepth {
			continue
		}
		for _, child := range snap.Children(cur.id) {
			if visited[child] {
				continue
			}
			visited[child] = true
			queue = append(queue, frame{id: child, depth: cur.depth + 1})
		}
	}
	return out
}

// subtract removes excluded ids while preserving order.
func subtract(ids, exclude []string) []string {
	if len(exclude) == 0 {
		return ids
	}
	drop := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		drop[id] = true
	}

	out := ids[:0]
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}

// dedupe removes duplicate ids while preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
