// Package lifecycle implements the session state machine: start, suspend,
// resume, and end. Every operation locks the session registry before the
// task store, re-reads both documents under the locks, validates, writes,
// and releases in reverse order. Recoverable failures retry the whole
// operation from lock acquisition.
package lifecycle

import (
	"sort"
	"time"

	"github.com/taskclaim/taskclaim/internal/audit"
	"github.com/taskclaim/taskclaim/internal/config"
	"github.com/taskclaim/taskclaim/internal/conflict"
	"github.com/taskclaim/taskclaim/internal/errors"
	"github.com/taskclaim/taskclaim/internal/logging"
	"github.com/taskclaim/taskclaim/internal/registry"
	"github.com/taskclaim/taskclaim/internal/scope"
	"github.com/taskclaim/taskclaim/internal/task"
	"github.com/taskclaim/taskclaim/internal/txn"
)

// Manager coordinates session transitions across the two documents.
type Manager struct {
	registry *registry.Store
	tasks    *task.Store

	lockTimeout time.Duration
	lockPoll    time.Duration
	retry       RetryPolicy

	bus *audit.Bus
	log *logging.Logger
	now func() time.Time
}

// NewManager creates a Manager. The bus may be nil when no audit trail is
// wanted, such as in read-only status commands.
func NewManager(reg *registry.Store, tasks *task.Store, cfg *config.Config, bus *audit.Bus, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Manager{
		registry:    reg,
		tasks:       tasks,
		lockTimeout: cfg.Lock.Timeout(),
		lockPoll:    cfg.Lock.PollInterval(),
		retry:       RetryFromConfig(cfg.Retry),
		bus:         bus,
		log:         log,
		now:         time.Now,
	}
}

// StartRequest describes the session to create. FocusTaskID is optional;
// when empty the focus is selected automatically from the resolved scope.
type StartRequest struct {
	Name        string
	AgentID     string
	Scope       scope.Declaration
	FocusTaskID string
}

// StartResult reports the created session and any overlap warning the
// policy permitted.
type StartResult struct {
	Session registry.Session
	Warning string
}

// Start creates a new session: resolves the scope against the current task
// store, checks it against every live session's claim, selects or validates
// the focus task, and commits both documents.
func (m *Manager) Start(req StartRequest) (*StartResult, error) {
	var result *StartResult

	err := m.retry.Do(func() error {
		return m.withBothLocks(func(regDoc *registry.Document, taskDoc *task.Document) error {
			if len(regDoc.Sessions) >= regDoc.Policy.MaxConcurrentSessions {
				return errors.Wrapf(errors.ErrMaxSessionsReached,
					"%d live sessions, limit %d", len(regDoc.Sessions), regDoc.Policy.MaxConcurrentSessions)
			}

			snap := task.NewSnapshot(taskDoc)
			ids, err := scope.Resolve(snap, req.Scope)
			if err != nil {
				return err
			}
			if limit := regDoc.Policy.MaxActiveTasksPerScope; limit > 0 && len(ids) > limit {
				return errors.Wrapf(errors.ErrScopeInvalid,
					"scope claims %d tasks, limit %d", len(ids), limit)
			}

			activeFocus := regDoc.ActiveFocusTasks()
			focusID, err := chooseFocus(snap, ids, req.FocusTaskID, activeFocus)
			if err != nil {
				return err
			}

			claims := activeClaims(regDoc)
			verdict := conflict.Detect(claims, ids, focusID)
			warning, err := policyFor(regDoc.Policy).Evaluate(verdict)
			if err != nil {
				return err
			}

			now := m.now().UTC()
			id := registry.NewSessionID(now)
			if regDoc.Find(id) != nil {
				return errors.Wrapf(errors.ErrIDCollision, "session id %s", id)
			}

			demoteStaleActive(taskDoc, ids, activeFocus, now)
			if t := taskDoc.Find(focusID); t != nil && t.Status != task.StatusActive {
				t.Status = task.StatusActive
				t.UpdatedAt = now
			}

			decl := req.Scope
			decl.ComputedTaskIDs = ids

			session := registry.Session{
				ID:           id,
				Name:         req.Name,
				AgentID:      req.AgentID,
				Status:       registry.StatusActive,
				Scope:        decl,
				StartedAt:    now,
				LastActivity: now,
			}
			session.SetFocus(focusID, now)

			regDoc.Sessions = append(regDoc.Sessions, session)
			regDoc.Meta.SessionsCreated++
			taskDoc.Meta.ActiveSessions = len(regDoc.Sessions)

			if err := m.tasks.Save(taskDoc); err != nil {
				return err
			}
			if err := m.registry.Save(regDoc); err != nil {
				return err
			}

			m.log.WithSession(id).Info("session started",
				"focus", focusID, "scope_type", string(decl.Type), "tasks", len(ids))
			m.publish(audit.NewSessionStartedEvent(id, focusID, string(decl.Type), len(ids), warning))

			result = &StartResult{Session: session, Warning: warning}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Suspend pauses an active session. The task store is not touched: the
// focus task stays active so other sessions keep seeing the claim.
func (m *Manager) Suspend(sessionID, note string) error {
	return m.retry.Do(func() error {
		return m.withRegistryLock(func(regDoc *registry.Document) error {
			s := regDoc.Find(sessionID)
			if s == nil {
				return errors.Wrapf(errors.ErrSessionNotFound, "%s", sessionID)
			}
			if s.Status != registry.StatusActive {
				return errors.Wrapf(errors.ErrSessionWrongState,
					"session %s is %s, suspend requires active", sessionID, s.Status)
			}

			now := m.now().UTC()
			s.Status = registry.StatusSuspended
			s.SuspendedAt = &now
			s.LastActivity = now
			s.Stats.SuspendCount++
			if note != "" {
				s.Focus.Notes = note
			}

			if err := m.registry.Save(regDoc); err != nil {
				return err
			}

			m.log.WithSession(sessionID).Info("session suspended")
			m.publish(audit.NewSessionSuspendedEvent(sessionID, note))
			return nil
		})
	})
}

// Resume reactivates a suspended session and restores its focus task to
// active in the task store if something demoted it in the meantime.
func (m *Manager) Resume(sessionID string) (*registry.Session, error) {
	var resumed *registry.Session

	err := m.retry.Do(func() error {
		return m.withBothLocks(func(regDoc *registry.Document, taskDoc *task.Document) error {
			s := regDoc.Find(sessionID)
			if s == nil {
				return errors.Wrapf(errors.ErrSessionNotFound, "%s", sessionID)
			}
			if s.Status != registry.StatusSuspended {
				return errors.Wrapf(errors.ErrSessionWrongState,
					"session %s is %s, resume requires suspended", sessionID, s.Status)
			}

			now := m.now().UTC()
			s.Status = registry.StatusActive
			s.SuspendedAt = nil
			s.LastActivity = now
			s.Stats.ResumeCount++

			focusID := s.Focus.CurrentTask
			if t := taskDoc.Find(focusID); t != nil && t.Status == task.StatusPending {
				t.Status = task.StatusActive
				t.UpdatedAt = now
			}

			if err := m.tasks.Save(taskDoc); err != nil {
				return err
			}
			if err := m.registry.Save(regDoc); err != nil {
				return err
			}

			m.log.WithSession(sessionID).Info("session resumed", "focus", focusID)
			m.publish(audit.NewSessionResumedEvent(sessionID, focusID))

			copied := *s
			resumed = &copied
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return resumed, nil
}

// End terminates a session from either live state. The session moves to
// history, its still-active focus task reverts to pending, and the task
// store's live session count drops.
func (m *Manager) End(sessionID, note string) (*registry.HistoryRecord, error) {
	var record *registry.HistoryRecord

	err := m.retry.Do(func() error {
		return m.withBothLocks(func(regDoc *registry.Document, taskDoc *task.Document) error {
			s := regDoc.Find(sessionID)
			if s == nil {
				return errors.Wrapf(errors.ErrSessionNotFound, "%s", sessionID)
			}

			now := m.now().UTC()

			if t := taskDoc.Find(s.Focus.CurrentTask); t != nil && t.Status == task.StatusActive {
				t.Status = task.StatusPending
				t.UpdatedAt = now
			}

			s.Stats.TasksCompleted = countDone(taskDoc, s.Scope.ComputedTaskIDs)
			s.LastActivity = now

			rec := registry.HistoryRecord{
				Session: *s,
				EndedAt: now,
				EndNote: note,
			}
			regDoc.Remove(sessionID)
			regDoc.History = append(regDoc.History, rec)
			taskDoc.Meta.ActiveSessions = len(regDoc.Sessions)

			if err := m.tasks.Save(taskDoc); err != nil {
				return err
			}
			if err := m.registry.Save(regDoc); err != nil {
				return err
			}

			m.log.WithSession(sessionID).Info("session ended",
				"tasks_completed", rec.Stats.TasksCompleted)
			m.publish(audit.NewSessionEndedEvent(sessionID, rec.Stats.TasksCompleted, note))

			record = &rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CleanupStale ends every live session whose last activity is older than
// maxAge. Returns the IDs of the sessions it ended.
func (m *Manager) CleanupStale(maxAge time.Duration) ([]string, error) {
	cutoff := m.now().UTC().Add(-maxAge)

	var stale []string
	err := m.withRegistryLock(func(regDoc *registry.Document) error {
		for _, s := range regDoc.Sessions {
			if s.LastActivity.Before(cutoff) {
				stale = append(stale, s.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var ended []string
	for _, id := range stale {
		if _, err := m.End(id, "stale session cleanup"); err != nil {
			// Another invocation may have ended it between the scan and now.
			if errors.Is(err, errors.ErrSessionNotFound) {
				continue
			}
			return ended, err
		}
		ended = append(ended, id)
	}
	return ended, nil
}

// withRegistryLock runs fn with the registry locked and loaded.
func (m *Manager) withRegistryLock(fn func(*registry.Document) error) error {
	regLock := txn.NewFileLock(m.registry.Path())
	if err := regLock.Acquire(m.lockTimeout, m.lockPoll); err != nil {
		return err
	}
	defer regLock.Release()

	regDoc, err := m.registry.Load()
	if err != nil {
		return err
	}
	return fn(regDoc)
}

// withBothLocks runs fn with both documents locked and loaded, registry
// first. The deferred releases unlock in reverse order.
func (m *Manager) withBothLocks(fn func(*registry.Document, *task.Document) error) error {
	regLock := txn.NewFileLock(m.registry.Path())
	if err := regLock.Acquire(m.lockTimeout, m.lockPoll); err != nil {
		return err
	}
	defer regLock.Release()

	taskLock := txn.NewFileLock(m.tasks.Path())
	if err := taskLock.Acquire(m.lockTimeout, m.lockPoll); err != nil {
		return err
	}
	defer taskLock.Release()

	regDoc, err := m.registry.Load()
	if err != nil {
		return err
	}
	taskDoc, err := m.tasks.Load()
	if err != nil {
		return err
	}
	return fn(regDoc, taskDoc)
}

func (m *Manager) publish(e audit.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// chooseFocus validates an explicit focus against the resolved scope, or
// selects one automatically: the highest-priority pending task not focused
// by any active session, ties broken by earliest creation.
func chooseFocus(snap *task.Snapshot, ids []string, explicit string, activeFocus map[string]string) (string, error) {
	if explicit != "" {
		for _, id := range ids {
			if id == explicit {
				return explicit, nil
			}
		}
		return "", errors.Wrapf(errors.ErrFocusNotInScope, "task %s", explicit)
	}

	focused := make(map[string]bool, len(activeFocus))
	for _, taskID := range activeFocus {
		focused[taskID] = true
	}

	var candidates []*task.Task
	for _, id := range ids {
		t, ok := snap.Lookup(id)
		if !ok || focused[id] {
			continue
		}
		if t.Status == task.StatusPending {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		// Nothing claimable. If an in-scope task is another session's
		// focus, surface it as the candidate so the detector reports the
		// hard conflict instead of a generic focus-required failure.
		for _, id := range ids {
			if focused[id] {
				return id, nil
			}
		}
		return "", errors.Wrap(errors.ErrFocusRequired, "no unclaimed pending task in scope")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Priority.Rank(), candidates[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates[0].ID, nil
}

// demoteStaleActive reverts in-scope tasks that are marked active but are
// no live active session's focus. Such tasks are leftovers from a crashed
// invocation that never ended its session.
func demoteStaleActive(taskDoc *task.Document, ids []string, activeFocus map[string]string, now time.Time) {
	focused := make(map[string]bool, len(activeFocus))
	for _, taskID := range activeFocus {
		focused[taskID] = true
	}
	for _, id := range ids {
		t := taskDoc.Find(id)
		if t != nil && t.Status == task.StatusActive && !focused[id] {
			t.Status = task.StatusPending
			t.UpdatedAt = now
		}
	}
}

// activeClaims projects the registry's active sessions into the detector's
// view. Suspended sessions keep their claims.
func activeClaims(regDoc *registry.Document) []conflict.ActiveClaim {
	var claims []conflict.ActiveClaim
	for _, s := range regDoc.Sessions {
		focus := ""
		if s.Status == registry.StatusActive {
			focus = s.Focus.CurrentTask
		}
		claims = append(claims, conflict.ActiveClaim{
			SessionID:   s.ID,
			FocusTaskID: focus,
			TaskIDs:     s.Scope.ComputedTaskIDs,
		})
	}
	return claims
}

// policyFor maps the registry's persisted policy to overlap allowances.
func policyFor(p registry.PolicyConfig) conflict.Policy {
	return conflict.Policy{
		AllowNested:  p.AllowNestedScopes,
		AllowPartial: p.AllowScopeOverlap,
	}
}

func countDone(taskDoc *task.Document, ids []string) int {
	n := 0
	for _, id := range ids {
		if t := taskDoc.Find(id); t != nil && t.Status == task.StatusDone {
			n++
		}
	}
	return n
}
