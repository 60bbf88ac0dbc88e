package dispatchlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another run holds the log's lock.
var ErrLocked = errors.New("dispatch log is locked by another run")

// FileLock is an exclusive advisory lock on a log's sidecar lock file.
type FileLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the sidecar lock path for a log file.
func LockPath(logPath string) string {
	return logPath + ".lock"
}

// Lock acquires the exclusive lock for logPath without blocking. A second
// holder gets ErrLocked.
func Lock(logPath string) (*FileLock, error) {
	lockPath := LockPath(logPath)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, lockPath)
	}
	return &FileLock{path: lockPath, lock: fl}, nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *FileLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
