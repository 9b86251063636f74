// Package conflict classifies overlap between a candidate scope and every
// other active session's claimed tasks, and applies the allowance policy
// that decides which overlaps block a new session.
package conflict

// Verdict classifies the relationship between a candidate scope and one
// active session's resolved set.
type Verdict int

const (
	// None: no overlap with any active session.
	None Verdict = iota
	// Hard: the candidate focus task is another session's current focus,
	// independent of overlap size.
	Hard
	// Identical: both resolved sets are exactly equal.
	Identical
	// Nested: one set is a proper subset of the other.
	Nested
	// Partial: the sets overlap without either containing the other.
	Partial
)

// String returns the verdict name used in errors and audit events.
func (v Verdict) String() string {
	switch v {
	case None:
		return "none"
	case Hard:
		return "hard"
	case Identical:
		return "identical"
	case Nested:
		return "nested"
	case Partial:
		return "partial"
	default:
		return "unknown"
	}
}

// ActiveClaim is the view of one live session the detector compares
// against: its identity, its current focus, and its immutable resolved set.
type ActiveClaim struct {
	SessionID   string
	FocusTaskID string
	TaskIDs     []string
}

// Result is the detector's classified verdict. OffendingSessionID and
// Overlap are set for any verdict other than None.
type Result struct {
	Verdict            Verdict
	OffendingSessionID string
	Overlap            []string
}

// Detect compares the candidate resolved set and focus against every
// active claim. Claims are evaluated in order and the first match wins;
// the hard-conflict rule is checked against all claims before any overlap
// classification, so a focus collision is never reported as a mere
// overlap.
func Detect(active []ActiveClaim, candidateIDs []string, candidateFocusID string) Result {
	// Hard rule first: you cannot claim a task someone else is actively
	// working on, regardless of how the scopes relate.
	if candidateFocusID != "" {
		for _, claim := range active {
			if claim.FocusTaskID != "" && claim.FocusTaskID == candidateFocusID {
				return Result{
					Verdict:            Hard,
					OffendingSessionID: claim.SessionID,
					Overlap:            []string{candidateFocusID},
				}
			}
		}
	}

	candidate := toSet(candidateIDs)

	for _, claim := range active {
		other := toSet(claim.TaskIDs)
		overlap := intersect(candidateIDs, other)
		if len(overlap) == 0 {
			continue
		}

		var verdict Verdict
		switch {
		case len(overlap) == len(candidate) && len(overlap) == len(other):
			verdict = Identical
		case len(overlap) == len(candidate) || len(overlap) == len(other):
			verdict = Nested
		default:
			verdict = Partial
		}

		return Result{
			Verdict:            verdict,
			OffendingSessionID: claim.SessionID,
			Overlap:            overlap,
		}
	}

	return Result{Verdict: None}
}

// toSet builds a membership set, deduplicating ids.
func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// intersect returns the ids present in both, in candidate order.
func intersect(candidateIDs []string, other map[string]bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range candidateIDs {
		if other[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
