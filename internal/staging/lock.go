package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"soundunpack/internal/services"
)

// LockFile is created inside the workspace while a run holds it.
const LockFile = ".soundunpack.lock"

// Lock is an exclusive hold on a workspace directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire creates dir if needed and takes the workspace lock without waiting.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "lock", "Create workspace directory", err)
	}
	path := filepath.Join(dir, LockFile)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(
			services.ErrConfiguration,
			"staging",
			"lock",
			fmt.Sprintf("another soundunpack run is using %s", dir),
			nil,
		)
	}
	return &Lock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	_ = os.Remove(l.path)
	return nil
}
