package hotkeys

import (
	"errors"
	"strings"
	"testing"
)

func TestParseBindingSuccess(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantNorm string
		wantMods Modifier
		wantKey  VKey
	}{
		// Function key with two modifiers
		{
			name:     "Ctrl+Shift+F12",
			spec:     "Ctrl+Shift+F12",
			wantNorm: "Ctrl+Shift+F12",
			wantMods: modControl | modShift,
			wantKey:  vkF12,
		},
		// Backtick key
		{
			name:     "Ctrl+backtick",
			spec:     "Ctrl+`",
			wantNorm: "Ctrl+`",
			wantMods: modControl,
			wantKey:  vkOem3,
		},
		// Letter key
		{
			name:     "Ctrl+A",
			spec:     "Ctrl+A",
			wantNorm: "Ctrl+A",
			wantMods: modControl,
			wantKey:  VKey('A'),
		},
		// Digit key
		{
			name:     "Alt+3",
			spec:     "Alt+3",
			wantNorm: "Alt+3",
			wantMods: modAlt,
			wantKey:  VKey('3'),
		},
		// Named key: space
		{
			name:     "Ctrl+Space",
			spec:     "Ctrl+Space",
			wantNorm: "Ctrl+SPACE",
			wantMods: modControl,
			wantKey:  vkSpace,
		},
		// Named key: tab
		{
			name:     "Alt+Tab",
			spec:     "Alt+Tab",
			wantNorm: "Alt+TAB",
			wantMods: modAlt,
			wantKey:  vkTab,
		},
		// Named key: enter
		{
			name:     "Ctrl+Enter",
			spec:     "Ctrl+Enter",
			wantNorm: "Ctrl+ENTER",
			wantMods: modControl,
			wantKey:  vkReturn,
		},
		// Named key: delete
		{
			name:     "Ctrl+Delete",
			spec:     "Ctrl+Delete",
			wantNorm: "Ctrl+DELETE",
			wantMods: modControl,
			wantKey:  vkDelete,
		},
		// Arrow key
		{
			name:     "Ctrl+Left",
			spec:     "Ctrl+Left",
			wantNorm: "Ctrl+LEFT",
			wantMods: modControl,
			wantKey:  vkLeft,
		},
		// Hex virtual-key code
		{
			name:     "Ctrl+0x41 (hex A)",
			spec:     "Ctrl+0x41",
			wantNorm: "Ctrl+0X41",
			wantMods: modControl,
			wantKey:  VKey(0x41),
		},
		// BACKQUOTE alias
		{
			name:     "Ctrl+Backquote",
			spec:     "Ctrl+Backquote",
			wantNorm: "Ctrl+`",
			wantMods: modControl,
			wantKey:  vkOem3,
		},
		// GRAVE alias
		{
			name:     "Ctrl+Grave",
			spec:     "Ctrl+Grave",
			wantNorm: "Ctrl+`",
			wantMods: modControl,
			wantKey:  vkOem3,
		},
		// Modifier aliases: Control == Ctrl
		{
			name:     "Control+A alias",
			spec:     "Control+A",
			wantNorm: "Ctrl+A",
			wantMods: modControl,
			wantKey:  VKey('A'),
		},
		// Modifier aliases: Super == Win
		{
			name:     "Super+A alias",
			spec:     "Super+A",
			wantNorm: "Win+A",
			wantMods: modWin,
			wantKey:  VKey('A'),
		},
		// All four modifiers
		{
			name:     "all modifiers",
			spec:     "Ctrl+Alt+Shift+Win+A",
			wantNorm: "Ctrl+Alt+Shift+Win+A",
			wantMods: modControl | modAlt | modShift | modWin,
			wantKey:  VKey('A'),
		},
		// Duplicate modifiers deduplicated
		{
			name:     "dedup Ctrl+Ctrl+A",
			spec:     "Ctrl+Ctrl+A",
			wantNorm: "Ctrl+A",
			wantMods: modControl,
			wantKey:  VKey('A'),
		},
		// Case insensitivity
		{
			name:     "lowercase ctrl+shift+f12",
			spec:     "ctrl+shift+f12",
			wantNorm: "Ctrl+Shift+F12",
			wantMods: modControl | modShift,
			wantKey:  vkF12,
		},
		// Whitespace padding
		{
			name:     "whitespace padded",
			spec:     "  Ctrl + A  ",
			wantNorm: "Ctrl+A",
			wantMods: modControl,
			wantKey:  VKey('A'),
		},
		// F1 function key
		{
			name:     "Alt+F1",
			spec:     "Alt+F1",
			wantNorm: "Alt+F1",
			wantMods: modAlt,
			wantKey:  vkF1,
		},
		// Original tool defaults
		{
			name:     "Ctrl+Alt+S",
			spec:     "Ctrl+Alt+S",
			wantNorm: "Ctrl+Alt+S",
			wantMods: modControl | modAlt,
			wantKey:  VKey('S'),
		},
		// Windows Forms digit name
		{
			name:     "Ctrl+D1",
			spec:     "Ctrl+D1",
			wantNorm: "Ctrl+1",
			wantMods: modControl,
			wantKey:  VKey('1'),
		},
		// Keypad digit
		{
			name:     "Alt+NumPad5",
			spec:     "Alt+NumPad5",
			wantNorm: "Alt+NUMPAD5",
			wantMods: modAlt,
			wantKey:  vkNumpad0 + 5,
		},
		// Navigation key
		{
			name:     "Ctrl+PageUp",
			spec:     "Ctrl+PageUp",
			wantNorm: "Ctrl+PAGEUP",
			wantMods: modControl,
			wantKey:  vkPrior,
		},
		// Highest function key
		{
			name:     "Shift+F24",
			spec:     "Shift+F24",
			wantNorm: "Shift+F24",
			wantMods: modShift,
			wantKey:  vkF24,
		},
		// ESC alias
		{
			name:     "Ctrl+Esc",
			spec:     "Ctrl+Esc",
			wantNorm: "Ctrl+ESC",
			wantMods: modControl,
			wantKey:  vkEscape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binding, err := ParseBinding(tt.spec)
			if err != nil {
				t.Fatalf("ParseBinding(%q) returned unexpected error: %v", tt.spec, err)
			}
			if binding.Normalized() != tt.wantNorm {
				t.Errorf("Normalized() = %q, want %q", binding.Normalized(), tt.wantNorm)
			}
			if binding.Modifiers() != tt.wantMods {
				t.Errorf("Modifiers() = 0x%X, want 0x%X", binding.Modifiers(), tt.wantMods)
			}
			if binding.Key() != tt.wantKey {
				t.Errorf("Key() = 0x%X, want 0x%X", binding.Key(), tt.wantKey)
			}
		})
	}
}

func TestParseBindingErrors(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantSub string // expected substring in error message
	}{
		{
			name:    "empty spec",
			spec:    "",
			wantSub: "empty",
		},
		{
			name:    "whitespace-only spec",
			spec:    "   ",
			wantSub: "empty",
		},
		{
			name:    "key only, no modifier",
			spec:    "Ctrl",
			wantSub: "modifiers and key",
		},
		{
			name:    "unknown modifier",
			spec:    "Meta+A",
			wantSub: "unknown modifier",
		},
		{
			name:    "missing key token",
			spec:    "Ctrl+",
			wantSub: "missing hotkey key token",
		},
		{
			name:    "unknown key name",
			spec:    "Ctrl+Hyper",
			wantSub: "unknown key",
		},
		{
			name:    "invalid hex key",
			spec:    "Ctrl+0xZZZZ",
			wantSub: "invalid hex key",
		},
		{
			name:    "hex key 0x0000",
			spec:    "Ctrl+0x0000",
			wantSub: "not a valid virtual key",
		},
		{
			name:    "all duplicate modifiers => zero (leading +)",
			spec:    "+A",
			wantSub: "unknown modifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBinding(tt.spec)
			if err == nil {
				t.Fatalf("ParseBinding(%q) expected error, got nil", tt.spec)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestParseBindingRejectsOutOfRangeFunctionKey(t *testing.T) {
	for _, spec := range []string{"Ctrl+F25", "Ctrl+F0", "Ctrl+F01"} {
		if _, err := ParseBinding(spec); err == nil {
			t.Errorf("ParseBinding(%q) expected error", spec)
		}
	}
}

func TestFromParts(t *testing.T) {
	tests := []struct {
		name      string
		modifiers []string
		key       string
		wantNorm  string
		wantErr   string
	}{
		{name: "save default", modifiers: []string{"Ctrl", "Alt"}, key: "S", wantNorm: "Ctrl+Alt+S"},
		{name: "restore all default", modifiers: []string{"Ctrl", "Alt"}, key: "T", wantNorm: "Ctrl+Alt+T"},
		{name: "case and spaces", modifiers: []string{" shift ", "WIN"}, key: " f5 ", wantNorm: "Shift+Win+F5"},
		{name: "no modifiers", modifiers: nil, key: "S", wantErr: "at least one modifier"},
		{name: "empty key", modifiers: []string{"Ctrl"}, key: "", wantErr: "missing hotkey key token"},
		{name: "unknown modifier", modifiers: []string{"Hyper"}, key: "S", wantErr: "unknown modifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := FromParts(tt.modifiers, tt.key)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("FromParts() error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromParts() error = %v", err)
			}
			if b.Normalized() != tt.wantNorm {
				t.Fatalf("Normalized() = %q, want %q", b.Normalized(), tt.wantNorm)
			}
		})
	}
}

func TestFromPartsDoesNotAliasInput(t *testing.T) {
	mods := make([]string, 1, 4)
	mods[0] = "Ctrl"
	if _, err := FromParts(mods, "A"); err != nil {
		t.Fatalf("FromParts() error = %v", err)
	}
	if got := mods[:2][1]; got != "" {
		t.Fatalf("FromParts wrote %q into the caller's backing array", got)
	}
}

func TestBindingSame(t *testing.T) {
	a, _ := ParseBinding("Ctrl+Alt+S")
	b, _ := FromParts([]string{"Alt", "Control"}, "s")
	c, _ := ParseBinding("Ctrl+Alt+R")
	if !a.Same(b) {
		t.Fatal("modifier order or aliases should not matter")
	}
	if a.Same(c) {
		t.Fatal("different keys reported as same")
	}
	if (Binding{}).IsZero() != true || a.IsZero() {
		t.Fatal("IsZero() mismatch")
	}
}

func TestFailedBindings(t *testing.T) {
	err := errors.Join(
		&RegisterError{Binding: "Ctrl+Alt+S", Err: errors.New("in use")},
		errors.New("unrelated"),
		errors.Join(&RegisterError{Binding: "Ctrl+Alt+T", Err: errors.New("in use")}),
	)
	got := FailedBindings(err)
	if len(got) != 2 || got[0] != "Ctrl+Alt+S" || got[1] != "Ctrl+Alt+T" {
		t.Fatalf("FailedBindings() = %v", got)
	}
	if FailedBindings(nil) != nil {
		t.Fatal("FailedBindings(nil) should be nil")
	}

	var regErr *RegisterError
	if !errors.As(err, &regErr) || regErr.Binding != "Ctrl+Alt+S" {
		t.Fatalf("errors.As() = %v", regErr)
	}
}
