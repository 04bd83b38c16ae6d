package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is an exclusive claim on a store path held through an OS file lock on
// a sibling lock file.
type Lock struct {
	fl *flock.Flock
}

// LockPath returns the lock file used for the store at storePath.
func LockPath(storePath string) string {
	return storePath + ".lock"
}

// AcquireLock takes a non-blocking exclusive lock on the store's lock file.
// If another run holds it the error wraps ErrStoreLocked. The lock file
// itself is left in place between runs; only the OS lock matters, so a file
// left behind by a crashed run does not block the next one.
func AcquireLock(storePath string) (*Lock, error) {
	lockPath := LockPath(storePath)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrStoreLocked, lockPath)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Releasing twice is harmless.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	if err != nil {
		return fmt.Errorf("failed to unlock store: %w", err)
	}
	return nil
}
