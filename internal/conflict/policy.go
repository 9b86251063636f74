package conflict

import (
	"fmt"

	"github.com/taskclaim/taskclaim/internal/errors"
)

// Policy decides which overlap verdicts block a new session. Hard and
// identical conflicts always block; nested and partial overlaps are
// configurable.
type Policy struct {
	// AllowNested permits proper subset/superset scopes, with a warning.
	AllowNested bool
	// AllowPartial permits partially overlapping scopes, with a warning.
	AllowPartial bool
}

// DefaultPolicy permits nested scopes and blocks partial overlap.
func DefaultPolicy() Policy {
	return Policy{
		AllowNested:  true,
		AllowPartial: false,
	}
}

// Evaluate applies the policy to a detection result. It returns a warning
// string for permitted-but-noteworthy overlaps, or an error for blocked
// ones: a hard conflict surfaces as task-already-claimed, everything else
// as scope-conflict naming the offending session.
func (p Policy) Evaluate(r Result) (warning string, err error) {
	switch r.Verdict {
	case None:
		return "", nil

	case Hard:
		return "", errors.Wrapf(errors.ErrTaskAlreadyClaimed,
			"task %s is the focus of session %s", r.Overlap[0], r.OffendingSessionID)

	case Identical:
		return "", errors.Wrapf(errors.ErrScopeConflict,
			"scope is identical to session %s", r.OffendingSessionID)

	case Nested:
		if !p.AllowNested {
			return "", errors.Wrapf(errors.ErrScopeConflict,
				"scope is nested within session %s (%d shared tasks)",
				r.OffendingSessionID, len(r.Overlap))
		}
		return fmt.Sprintf("scope nests with session %s (%d shared tasks)",
			r.OffendingSessionID, len(r.Overlap)), nil

	case Partial:
		if !p.AllowPartial {
			return "", errors.Wrapf(errors.ErrScopeConflict,
				"scope partially overlaps session %s (%d shared tasks)",
				r.OffendingSessionID, len(r.Overlap))
		}
		return fmt.Sprintf("scope partially overlaps session %s (%d shared tasks)",
			r.OffendingSessionID, len(r.Overlap)), nil

	default:
		return "", errors.Wrapf(errors.ErrScopeConflict, "unknown verdict %d", r.Verdict)
	}
}
