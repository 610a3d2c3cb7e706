// Package singleinstance keeps one engine per user session.
package singleinstance

import (
	"errors"

	"windowresizer/internal/userutil"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

const mutexPrefix = `Global\windowresizer-`

// DefaultMutexName returns the lock identifier for single-instance
// enforcement. The name mirrors the pipe naming convention from ipc.DefaultPipeName().
func DefaultMutexName() string {
	return mutexPrefix + userutil.InstanceSuffix()
}
