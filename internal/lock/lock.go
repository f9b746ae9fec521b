// Package lock guards a directory against concurrent retention runs.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the advisory lock file created inside the base directory.
// Listers never treat it as a candidate.
const FileName = ".retentions.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another retention run holds the lock")

// Lock is an acquired directory lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock for dir without blocking.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file and then unlocks it, so the file it removes
// is always the one it holds. It is safe to call more than once and on a nil
// Lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := os.Remove(l.path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if unlockErr := l.fl.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	l.fl = nil
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
