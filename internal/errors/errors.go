// Package errors provides centralized error definitions and classification
// helpers for taskclaim. It defines the stable error categories surfaced by
// the lifecycle engine, the structural errors raised by the transaction
// layer, and the retryability classification that drives the caller-side
// retry policy.
//
// Creating and checking errors:
//
//	if errors.Is(err, errors.ErrSessionNotFound) { ... }
//	if errors.IsRetryable(err) { retry.Do(...) }
//
// Structural errors from the transaction layer (lock timeout, checksum
// mismatch) are transient: a concurrent invocation held the lock or won the
// write race, and the whole operation may succeed when retried. Policy and
// precondition errors are permanent for a given request; the caller must
// change the request.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Session Lifecycle Errors
// -----------------------------------------------------------------------------

var (
	// ErrSessionExists indicates a session with the same ID already exists.
	ErrSessionExists = New("session already exists")
	// ErrSessionNotFound indicates the requested session is not in the live collection.
	ErrSessionNotFound = New("session not found")
	// ErrSessionWrongState indicates the session is not in a valid state for
	// the requested transition (e.g. resuming a session that is already active).
	ErrSessionWrongState = New("session is in the wrong state for this operation")
	// ErrMaxSessionsReached indicates the configured concurrent session limit is hit.
	ErrMaxSessionsReached = New("maximum concurrent sessions reached")
)

// -----------------------------------------------------------------------------
// Scope and Conflict Errors
// -----------------------------------------------------------------------------

var (
	// ErrScopeInvalid indicates a scope declaration resolved to nothing, or
	// referenced a root task that does not exist.
	ErrScopeInvalid = New("scope is invalid")
	// ErrScopeConflict indicates the candidate scope collides with another
	// active session's claimed tasks.
	ErrScopeConflict = New("scope conflicts with an active session")
	// ErrTaskAlreadyClaimed indicates the candidate focus task is the current
	// focus of another active session.
	ErrTaskAlreadyClaimed = New("task is already claimed by an active session")
	// ErrFocusNotInScope indicates the declared focus task is outside the
	// resolved scope.
	ErrFocusNotInScope = New("focus task is not in scope")
	// ErrFocusRequired indicates no focus was supplied and none could be
	// inferred from the in-scope pending tasks.
	ErrFocusRequired = New("focus task required and none could be inferred")
)

// -----------------------------------------------------------------------------
// Task Errors
// -----------------------------------------------------------------------------

var (
	// ErrTaskNotFound indicates a referenced task does not exist in the store.
	ErrTaskNotFound = New("task not found")
	// ErrHierarchyLimit indicates the hierarchy policy rejected a new child
	// (depth or sibling limit).
	ErrHierarchyLimit = New("hierarchy limit exceeded")
)

// -----------------------------------------------------------------------------
// Structural Errors (transaction layer)
// -----------------------------------------------------------------------------

var (
	// ErrLockTimeout indicates an advisory lock could not be acquired within
	// the configured wait. Recoverable: retry the whole operation.
	ErrLockTimeout = New("timed out waiting for file lock")
	// ErrChecksumMismatch indicates a document's stored checksum does not
	// match its content, signaling a concurrent writer. Recoverable.
	ErrChecksumMismatch = New("document checksum mismatch")
	// ErrIDCollision indicates a freshly generated identifier already exists.
	// Recoverable: a retry generates a new one.
	ErrIDCollision = New("generated id already in use")
	// ErrWriteFailed indicates the atomic write could not complete. The
	// original document is untouched or has been restored from backup.
	ErrWriteFailed = New("atomic write failed")
	// ErrDocumentCorrupted indicates a document could not be parsed.
	ErrDocumentCorrupted = New("document corrupted")
	// ErrValidationFailed indicates staged content was rejected by the
	// document validator before the swap.
	ErrValidationFailed = New("staged content failed validation")
)

// retryable lists the transient errors that may succeed when the whole
// operation is re-run. Everything else is permanent for the invocation.
var retryable = []error{
	ErrLockTimeout,
	ErrChecksumMismatch,
	ErrIDCollision,
}

// IsRetryable reports whether the error is transient and the operation may
// succeed if retried wholesale with backoff.
func IsRetryable(err error) bool {
	for _, r := range retryable {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// Wrap annotates err with a message, preserving the error chain.
// Returns nil if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf annotates err with a formatted message, preserving the error chain.
// Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
