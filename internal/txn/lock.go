package txn

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/taskclaim/taskclaim/internal/errors"
)

// lockSuffix is appended to a document path to form its lock file path.
const lockSuffix = ".lock"

// FileLock provides cross-process mutual exclusion for one document using
// flock(2). The lock file lives next to the document it guards.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock guarding the given document path.
// The lock file is "<docPath>.lock". Call Acquire/Release to use it.
func NewFileLock(docPath string) *FileLock {
	return &FileLock{
		path: docPath + lockSuffix,
	}
}

// Acquire blocks up to timeout for the exclusive lock, polling at the given
// interval. Returns a wrapped errors.ErrLockTimeout if the lock could not
// be acquired in time; that failure is recoverable by retrying the whole
// operation.
func (fl *FileLock) Acquire(timeout, poll time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		ok, err := fl.TryAcquire()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Wrapf(errors.ErrLockTimeout, "%s after %v", fl.path, timeout)
		}
		time.Sleep(poll)
	}
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if it is held elsewhere.
func (fl *FileLock) TryAcquire() (bool, error) {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}

	fl.file = f
	return true, nil
}

// Release releases the lock and closes the lock file.
// Safe to call when the lock is not held.
func (fl *FileLock) Release() error {
	if fl.file == nil {
		return nil
	}

	if err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = fl.file.Close()
		fl.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := fl.file.Close()
	fl.file = nil
	return err
}

// Held reports whether this FileLock instance currently holds the lock.
func (fl *FileLock) Held() bool {
	return fl.file != nil
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}
