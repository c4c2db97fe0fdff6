package input

import (
	"fmt"
	"strings"
)

// Key is a Linux evdev key code.
type Key uint16

// Codes from linux/input-event-codes.h for the keys murmur can watch.
var keyNames = map[string]Key{
	"FN":         464,
	"CAPSLOCK":   58,
	"RIGHTCTRL":  97,
	"LEFTCTRL":   29,
	"RIGHTALT":   100,
	"LEFTALT":    56,
	"RIGHTMETA":  126,
	"LEFTMETA":   125,
	"RIGHTSHIFT": 54,
	"LEFTSHIFT":  42,
	"SCROLLLOCK": 70,
	"PAUSE":      119,
	"INSERT":     110,
	"F1":         59,
	"F2":         60,
	"F3":         61,
	"F4":         62,
	"F5":         63,
	"F6":         64,
	"F7":         65,
	"F8":         66,
	"F9":         67,
	"F10":        68,
	"F11":        87,
	"F12":        88,
	"SPACE":      57,
}

// ResolveKey resolves a human-readable name like "KEY_RIGHTCTRL" (or just
// "rightctrl") to an evdev key code.
func ResolveKey(name string) (Key, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	upper = strings.TrimPrefix(upper, "KEY_")
	key, ok := keyNames[upper]
	if !ok {
		return 0, fmt.Errorf("unknown key name: %s", name)
	}
	return key, nil
}

// String returns the canonical KEY_* name, or the numeric code for keys
// outside the watch table.
func (k Key) String() string {
	for name, code := range keyNames {
		if code == k {
			return "KEY_" + name
		}
	}
	return fmt.Sprintf("KEY_%d", uint16(k))
}
