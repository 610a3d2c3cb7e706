package hotkeys

import "fmt"

// Modifier represents a Win32 hotkey modifier bitmask.
type Modifier uint32

// VKey represents a Win32 virtual-key code.
type VKey uint32

// Binding describes a parsed global hotkey.
// Construct only via ParseBinding or FromParts to guarantee invariant consistency.
type Binding struct {
	modifiers  Modifier
	key        VKey
	normalized string
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.modifiers }

// Key returns the virtual-key code.
func (b Binding) Key() VKey { return b.key }

// Normalized returns the canonical human-readable binding string.
func (b Binding) Normalized() string { return b.normalized }

func (b Binding) String() string { return b.normalized }

// IsZero reports whether b was never parsed.
func (b Binding) IsZero() bool { return b.key == 0 }

// Same reports whether b and other fire on the same key combination.
func (b Binding) Same(other Binding) bool {
	return b.modifiers == other.modifiers && b.key == other.key
}

// RegisterError reports a binding the OS refused to register, typically
// because another process already owns the combination.
type RegisterError struct {
	Binding string
	Err     error
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("register hotkey %q failed: %v", e.Binding, e.Err)
}

func (e *RegisterError) Unwrap() error { return e.Err }

// FailedBindings extracts the bindings named by RegisterErrors in err,
// descending into errors.Join trees.
func FailedBindings(err error) []string {
	switch e := err.(type) {
	case nil:
		return nil
	case *RegisterError:
		return []string{e.Binding}
	case interface{ Unwrap() []error }:
		var failed []string
		for _, inner := range e.Unwrap() {
			failed = append(failed, FailedBindings(inner)...)
		}
		return failed
	default:
		return nil
	}
}
