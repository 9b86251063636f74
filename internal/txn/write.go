package txn

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/taskclaim/taskclaim/internal/errors"
	"github.com/taskclaim/taskclaim/internal/logging"
)

// Validator checks a staged document body before the swap. Implementations
// may add schema or semantic checks beyond well-formedness.
type Validator interface {
	// Validate returns an error describing why the content must not be
	// written, or nil if the content is acceptable.
	Validate(content []byte) error
}

// JSONValidator rejects empty and syntactically malformed JSON content.
// It is the minimal validator every document write goes through.
type JSONValidator struct{}

// Validate implements Validator.
func (JSONValidator) Validate(content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("content is empty")
	}
	if !json.Valid(content) {
		return fmt.Errorf("content is not well-formed JSON")
	}
	return nil
}

// Hooks receives notifications from the write pipeline once the outcome
// is settled. Nil functions are skipped. BackupCreated fires only for
// accepted writes that snapshotted a prior version; RestorePerformed
// fires after a backup is copied back over the document following a
// failed swap.
type Hooks struct {
	BackupCreated    func(path string)
	RestorePerformed func(path, reason string)
}

// Writer performs stage-validate-swap writes with backup rotation.
// A Write either fully replaces the target or leaves it untouched.
type Writer struct {
	validator Validator
	backups   BackupKeeper
	hooks     Hooks
	log       *logging.Logger
}

// NewWriter creates a Writer. The validator and backup keeper are
// collaborators; pass JSONValidator{} and a FileBackupKeeper for the
// standard document pipeline.
func NewWriter(v Validator, bk BackupKeeper, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Writer{
		validator: v,
		backups:   bk,
		log:       log,
	}
}

// SetHooks installs pipeline notifications, typically a bridge onto the
// audit bus.
func (w *Writer) SetHooks(h Hooks) {
	w.hooks = h
}

// Write atomically replaces the document at path with content:
//
//  1. validate the staged content
//  2. stage it in a temp file in the same directory (write, fsync, chmod)
//  3. snapshot current content as the freshest backup, rotating older ones
//  4. rename the temp file over the document
//
// Any failure before the rename discards the temp artifact and leaves the
// original untouched. A failure during the rename triggers a best-effort
// restore of the just-made backup before the error is reported.
func (w *Writer) Write(path string, content []byte) error {
	if err := w.validator.Validate(content); err != nil {
		return errors.Wrapf(errors.ErrValidationFailed, "%s: %v", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "create directory: %v", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".staged-*")
	if err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "stage temp file: %v", err)
	}
	tmpPath := tmpFile.Name()

	swapped := false
	defer func() {
		if !swapped {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return errors.Wrapf(errors.ErrWriteFailed, "write staged content: %v", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.Wrapf(errors.ErrWriteFailed, "sync staged content: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "close staged file: %v", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "set permissions: %v", err)
	}

	backedUp, err := w.backups.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrWriteFailed, "backup before swap: %v", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// The swap itself failed. The original may be gone; recopy the
		// backup we just made before reporting.
		if restoreErr := w.backups.RestoreLatest(path); restoreErr != nil {
			w.log.Error("restore after failed swap also failed",
				"path", path,
				"restore_error", restoreErr.Error(),
			)
		} else if w.hooks.RestorePerformed != nil {
			w.hooks.RestorePerformed(path, err.Error())
		}
		return errors.Wrapf(errors.ErrWriteFailed, "swap %s: %v", path, err)
	}
	swapped = true

	if backedUp && w.hooks.BackupCreated != nil {
		w.hooks.BackupCreated(path)
	}

	w.log.Debug("document replaced",
		"path", path,
		"bytes", len(content),
	)
	return nil
}

// Checksum returns the hex-encoded SHA-256 digest of data. Documents embed
// this over their canonical payload so readers can detect a concurrent
// writer between load and save.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
