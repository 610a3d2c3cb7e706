package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	modAlt     Modifier = 0x0001
	modControl Modifier = 0x0002
	modShift   Modifier = 0x0004
	modWin     Modifier = 0x0008
)

const (
	vkBack     VKey = 0x08
	vkTab      VKey = 0x09
	vkReturn   VKey = 0x0D
	vkPause    VKey = 0x13
	vkEscape   VKey = 0x1B
	vkSpace    VKey = 0x20
	vkPrior    VKey = 0x21
	vkNext     VKey = 0x22
	vkEnd      VKey = 0x23
	vkHome     VKey = 0x24
	vkLeft     VKey = 0x25
	vkUp       VKey = 0x26
	vkRight    VKey = 0x27
	vkDown     VKey = 0x28
	vkInsert   VKey = 0x2D
	vkDelete   VKey = 0x2E
	vkNumpad0  VKey = 0x60
	vkF1       VKey = 0x70
	vkF12      VKey = 0x7B
	vkF24      VKey = 0x87
	vkOemPlus  VKey = 0xBB
	vkOemComma VKey = 0xBC
	vkOemMinus VKey = 0xBD
	vkOem3     VKey = 0xC0
)

var modifierByName = map[string]Modifier{
	"CTRL":    modControl,
	"CONTROL": modControl,
	"SHIFT":   modShift,
	"ALT":     modAlt,
	"WIN":     modWin,
	"SUPER":   modWin,
}

var keyByName = map[string]VKey{
	"SPACE":     vkSpace,
	"TAB":       vkTab,
	"ENTER":     vkReturn,
	"RETURN":    vkReturn,
	"ESC":       vkEscape,
	"ESCAPE":    vkEscape,
	"BACKSPACE": vkBack,
	"BACK":      vkBack,
	"PAUSE":     vkPause,
	"DELETE":    vkDelete,
	"INSERT":    vkInsert,
	"HOME":      vkHome,
	"END":       vkEnd,
	"PAGEUP":    vkPrior,
	"PRIOR":     vkPrior,
	"PAGEDOWN":  vkNext,
	"NEXT":      vkNext,
	"LEFT":      vkLeft,
	"RIGHT":     vkRight,
	"UP":        vkUp,
	"DOWN":      vkDown,
	"OEMPLUS":   vkOemPlus,
	"OEMMINUS":  vkOemMinus,
	"OEMCOMMA":  vkOemComma,
}

// ParseBinding parses a binding like "Ctrl+Alt+S".
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}
	return build(parts[:len(parts)-1], parts[len(parts)-1], raw)
}

// FromParts builds a binding from a modifier list and a key name, the shape
// stored in the config document ({modifier_keys: [Ctrl, Alt], key: S}).
func FromParts(modifiers []string, key string) (Binding, error) {
	raw := strings.Join(append(append([]string(nil), modifiers...), key), "+")
	if len(modifiers) == 0 {
		return Binding{}, fmt.Errorf("at least one modifier is required: %q", raw)
	}
	return build(modifiers, key, raw)
}

func build(modifierTokens []string, keyToken string, raw string) (Binding, error) {
	var modifiers Modifier
	seen := map[Modifier]struct{}{}
	var normalizedMods []string

	for _, token := range modifierTokens {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, ok := modifierByName[name]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		if _, exists := seen[mod]; exists {
			continue
		}
		seen[mod] = struct{}{}
		modifiers |= mod
		normalizedMods = append(normalizedMods, normalizeModifierName(mod))
	}

	key, normalizedKey, err := parseKey(keyToken)
	if err != nil {
		return Binding{}, err
	}

	if modifiers == 0 {
		return Binding{}, fmt.Errorf("at least one modifier is required: %q", raw)
	}

	normalized := strings.Join(append(normalizedMods, normalizedKey), "+")
	return Binding{
		modifiers:  modifiers,
		key:        key,
		normalized: normalized,
	}, nil
}

func parseKey(raw string) (VKey, string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, "", fmt.Errorf("missing hotkey key token")
	}

	if key, ok := functionKey(token); ok {
		return key, token, nil
	}
	if key, ok := keyByName[token]; ok {
		return key, token, nil
	}

	if len(token) == 1 {
		ch := token[0]
		if ch >= 'A' && ch <= 'Z' {
			return VKey(ch), token, nil
		}
		if ch >= '0' && ch <= '9' {
			return VKey(ch), token, nil
		}
		if ch == '`' {
			return vkOem3, "`", nil
		}
	}

	// Windows Forms names digits D0..D9 and keypad keys NUMPAD0..NUMPAD9.
	if len(token) == 2 && token[0] == 'D' && token[1] >= '0' && token[1] <= '9' {
		return VKey(token[1]), token[1:], nil
	}
	if digit, ok := strings.CutPrefix(token, "NUMPAD"); ok && len(digit) == 1 && digit[0] >= '0' && digit[0] <= '9' {
		return vkNumpad0 + VKey(digit[0]-'0'), token, nil
	}

	switch token {
	case "BACKQUOTE", "GRAVE", "OEMTILDE":
		return vkOem3, "`", nil
	}

	if strings.HasPrefix(token, "0X") {
		value, err := strconv.ParseUint(token[2:], 16, 16)
		if err != nil {
			return 0, "", fmt.Errorf("invalid hex key %q", raw)
		}
		if value == 0 {
			return 0, "", fmt.Errorf("key code 0x0000 is not a valid virtual key")
		}
		return VKey(value), token, nil
	}

	return 0, "", fmt.Errorf("unknown key %q in hotkey spec", raw)
}

// functionKey maps F1..F24.
func functionKey(token string) (VKey, bool) {
	digits, ok := strings.CutPrefix(token, "F")
	if !ok || digits == "" || digits[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || VKey(n-1)+vkF1 > vkF24 {
		return 0, false
	}
	return vkF1 + VKey(n-1), true
}

func normalizeModifierName(mod Modifier) string {
	switch mod {
	case modControl:
		return "Ctrl"
	case modShift:
		return "Shift"
	case modAlt:
		return "Alt"
	case modWin:
		return "Win"
	default:
		return "Mod"
	}
}
