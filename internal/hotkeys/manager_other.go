//go:build !windows

package hotkeys

import (
	"errors"
	"log/slog"
	"sync"
)

// Manager validates bindings on platforms without global hotkeys.
type Manager struct {
	mu     sync.Mutex
	active []string
}

// NewManager creates a new hotkey manager.
func NewManager() *Manager {
	return &Manager{}
}

// Start validates bindings. On non-Windows targets no OS-level hotkey is
// registered and onPress never fires.
func (m *Manager) Start(bindings []Binding, onPress func(Binding)) error {
	if onPress == nil {
		return errors.New("onPress callback is required")
	}
	if len(bindings) == 0 {
		return errors.New("at least one hotkey binding is required")
	}
	names := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.IsZero() {
			return errors.New("hotkey binding is not initialized")
		}
		names = append(names, b.Normalized())
	}

	slog.Warn("[hotkey] DEBUG global hotkeys are not supported on this platform; bindings validated but will never fire",
		"bindings", names)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = names
	return nil
}

// Stop forgets the validated bindings.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	return nil
}

// ActiveBindings returns the normalized bindings accepted by Start.
func (m *Manager) ActiveBindings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.active...)
}
