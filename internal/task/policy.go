package task

import (
	"github.com/taskclaim/taskclaim/internal/errors"
)

// HierarchyPolicy answers whether a parent may accept another child.
// It is consulted by task-creation flows and shares the parent/child
// edges the scope resolver walks.
type HierarchyPolicy interface {
	// CanAddChild returns nil if a new child may be added under parentID,
	// or a wrapped ErrHierarchyLimit describing the violated limit.
	// An empty parentID (new root task) is always permitted.
	CanAddChild(snap *Snapshot, parentID string) error
}

// LimitPolicy enforces simple depth and sibling-count limits.
type LimitPolicy struct {
	// MaxDepth is the maximum depth for new tasks; a child of a task at
	// depth MaxDepth-1 is the deepest allowed.
	MaxDepth int
	// MaxChildren bounds direct children per parent, 0 = no limit.
	MaxChildren int
}

// CanAddChild implements HierarchyPolicy.
func (p LimitPolicy) CanAddChild(snap *Snapshot, parentID string) error {
	if parentID == "" {
		return nil
	}

	if _, ok := snap.Lookup(parentID); !ok {
		return errors.Wrapf(errors.ErrTaskNotFound, "parent %q", parentID)
	}

	if p.MaxDepth > 0 {
		if depth := snap.Depth(parentID) + 1; depth >= p.MaxDepth {
			return errors.Wrapf(errors.ErrHierarchyLimit,
				"child of %q would be at depth %d, max %d", parentID, depth, p.MaxDepth)
		}
	}

	if p.MaxChildren > 0 {
		if n := len(snap.Children(parentID)); n >= p.MaxChildren {
			return errors.Wrapf(errors.ErrHierarchyLimit,
				"%q already has %d children, max %d", parentID, n, p.MaxChildren)
		}
	}

	return nil
}
