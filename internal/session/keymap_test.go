package session

import (
	"testing"

	"windowresizer/internal/hotkeys"
)

func mustBinding(t *testing.T, spec string) hotkeys.Binding {
	t.Helper()
	b, err := hotkeys.ParseBinding(spec)
	if err != nil {
		t.Fatalf("ParseBinding(%q) error = %v", spec, err)
	}
	return b
}

func TestKeymapAction(t *testing.T) {
	km := Keymap{
		Save:       mustBinding(t, "Ctrl+Alt+S"),
		Restore:    mustBinding(t, "Ctrl+Alt+R"),
		RestoreAll: mustBinding(t, "Ctrl+Alt+T"),
	}
	tests := []struct {
		pressed string
		want    Action
	}{
		{pressed: "Alt+Ctrl+S", want: ActionSave},
		{pressed: "Ctrl+Alt+R", want: ActionRestore},
		{pressed: "Ctrl+Alt+T", want: ActionRestoreAll},
		{pressed: "Ctrl+Shift+S", want: ActionNone},
	}
	for _, tt := range tests {
		if got := km.Action(mustBinding(t, tt.pressed)); got != tt.want {
			t.Errorf("Action(%s) = %s, want %s", tt.pressed, got, tt.want)
		}
	}
	if got := km.Action(hotkeys.Binding{}); got != ActionNone {
		t.Errorf("Action(zero) = %s, want none", got)
	}
}

func TestKeymapRestoreAllWinsOverlap(t *testing.T) {
	same := mustBinding(t, "Ctrl+Alt+X")
	km := Keymap{Save: same, Restore: same, RestoreAll: same}
	if got := km.Action(same); got != ActionRestoreAll {
		t.Fatalf("Action() = %s, want restore-all", got)
	}
	km.RestoreAll = mustBinding(t, "Ctrl+Alt+T")
	if got := km.Action(same); got != ActionSave {
		t.Fatalf("Action() = %s, want save before restore", got)
	}
	if got := len(km.Bindings()); got != 2 {
		t.Fatalf("len(Bindings()) = %d, want duplicates collapsed to 2", got)
	}
}
