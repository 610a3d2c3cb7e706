//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"windowresizer/internal/userutil"
)

// Lock holds an exclusive flock on a per-name file in the temp directory.
// The kernel drops the lock when the owning process terminates.
type Lock struct {
	file *os.File
}

// TryLock attempts to take the lock for name.
// Returns ErrAlreadyRunning if another holder exists.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("mutex name is required")
	}
	path := lockFilePath(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %q: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("flock %q: %w", path, err)
	}
	return &Lock{file: f}, nil
}

// Release drops the lock. Safe to call on nil receiver and idempotent.
// The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func lockFilePath(name string) string {
	return filepath.Join(os.TempDir(), userutil.SanitizeUsername(name)+".lock")
}
