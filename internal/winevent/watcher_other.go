//go:build !windows

package winevent

import "windowresizer/internal/winctl"

// Watcher is a stub on platforms without WinEvent hooks.
type Watcher struct{}

// NewWatcher creates an idle watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Start always fails with ErrUnsupported.
func (w *Watcher) Start(func(winctl.Handle)) error { return ErrUnsupported }

// Stop is a no-op.
func (w *Watcher) Stop() error { return nil }
