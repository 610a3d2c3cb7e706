package session

import "windowresizer/internal/hotkeys"

// Action is the logical operation a hotkey press maps to.
type Action int

const (
	ActionNone Action = iota
	ActionSave
	ActionRestore
	ActionRestoreAll
)

func (a Action) String() string {
	switch a {
	case ActionSave:
		return "save"
	case ActionRestore:
		return "restore"
	case ActionRestoreAll:
		return "restore-all"
	default:
		return "none"
	}
}

// Keymap binds the three configured hotkeys to actions.
type Keymap struct {
	Save       hotkeys.Binding
	Restore    hotkeys.Binding
	RestoreAll hotkeys.Binding
}

// Action resolves a press. Restore-all is checked first, then save, then
// restore, so overlapping bindings resolve the same way every time.
func (k Keymap) Action(pressed hotkeys.Binding) Action {
	switch {
	case pressed.IsZero():
		return ActionNone
	case !k.RestoreAll.IsZero() && pressed.Same(k.RestoreAll):
		return ActionRestoreAll
	case !k.Save.IsZero() && pressed.Same(k.Save):
		return ActionSave
	case !k.Restore.IsZero() && pressed.Same(k.Restore):
		return ActionRestore
	default:
		return ActionNone
	}
}

// Bindings returns the configured bindings in registration order,
// skipping duplicates.
func (k Keymap) Bindings() []hotkeys.Binding {
	var out []hotkeys.Binding
	for _, b := range []hotkeys.Binding{k.Save, k.Restore, k.RestoreAll} {
		if b.IsZero() {
			continue
		}
		dup := false
		for _, existing := range out {
			if existing.Same(b) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, b)
		}
	}
	return out
}
