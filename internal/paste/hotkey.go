package paste

import (
	"log/slog"
	"strings"
)

// HotkeyToWtypeArgs turns "ctrl+shift+v" into wtype arguments: modifiers
// are pressed with -M, the final key tapped with -k, then modifiers
// released in reverse with -m.
func HotkeyToWtypeArgs(hotkey string) []string {
	parts := strings.Split(hotkey, "+")
	args := make([]string, 0, len(parts)*4)

	for i, part := range parts {
		key := wtypeKeyName(part)
		if i < len(parts)-1 {
			args = append(args, "-M", key)
		} else {
			args = append(args, "-k", key)
		}
	}
	for i := len(parts) - 2; i >= 0; i-- {
		args = append(args, "-m", wtypeKeyName(parts[i]))
	}
	return args
}

func wtypeKeyName(part string) string {
	lowered := strings.ToLower(part)
	if lowered == "meta" {
		return "super"
	}
	return lowered
}

// HotkeyToYdotoolArgs turns "ctrl+v" into ydotool key arguments using raw
// evdev codes: "29:1" "47:1" "47:0" "29:0" (1 is press, 0 is release).
func HotkeyToYdotoolArgs(hotkey string) []string {
	parts := strings.Split(hotkey, "+")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		code, ok := ydotoolKeyCode(part)
		if !ok {
			slog.Warn("unknown key in paste hotkey", "key", part)
			continue
		}
		codes = append(codes, code)
	}

	args := make([]string, 0, len(codes)*2)
	for _, code := range codes {
		args = append(args, code+":1")
	}
	for i := len(codes) - 1; i >= 0; i-- {
		args = append(args, codes[i]+":0")
	}
	return args
}

func ydotoolKeyCode(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "ctrl":
		return "29", true // KEY_LEFTCTRL
	case "shift":
		return "42", true // KEY_LEFTSHIFT
	case "alt":
		return "56", true // KEY_LEFTALT
	case "super", "meta":
		return "125", true // KEY_LEFTMETA
	case "v":
		return "47", true
	case "c":
		return "46", true
	case "a":
		return "30", true
	case "z":
		return "44", true
	}
	return "", false
}
