package paste

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Method names the tool used to deliver text into the focused window.
type Method string

const (
	MethodXdotool Method = "xdotool"
	MethodWtype   Method = "wtype"
	MethodYdotool Method = "ydotool"
	MethodWlCopy  Method = "wl-copy"
)

func (m Method) String() string { return string(m) }

// PickMethod resolves the configured paste method. An explicit setting is
// taken at face value; "auto" probes the session type and installed tools.
// On Wayland ydotool is preferred because it works on every compositor,
// wtype needs virtual-keyboard support, and wl-copy is the clipboard-only
// fallback of last resort.
func PickMethod(setting string) (Method, error) {
	switch Method(setting) {
	case MethodXdotool, MethodWtype, MethodYdotool, MethodWlCopy:
		return Method(setting), nil
	}

	isWayland := os.Getenv("WAYLAND_DISPLAY") != ""
	isX11 := os.Getenv("DISPLAY") != ""

	if isWayland {
		if toolAvailable("ydotool") && (YdotoolSocketAvailable() || EnsureYdotooldRunning()) {
			return MethodYdotool, nil
		}
		if toolAvailable("wtype") {
			return MethodWtype, nil
		}
		if toolAvailable("wl-copy") {
			slog.Warn("ydotool/wtype not found; falling back to clipboard-only paste, install ydotool for automatic pasting")
			return MethodWlCopy, nil
		}
	}

	if isX11 && toolAvailable("xdotool") {
		return MethodXdotool, nil
	}

	return "", errors.New("no paste tool found: install ydotool + wl-copy (Wayland) or xdotool (X11)")
}

// ParseMethod validates an explicit method name without probing the
// environment.
func ParseMethod(setting string) (Method, error) {
	switch Method(setting) {
	case MethodXdotool, MethodWtype, MethodYdotool, MethodWlCopy:
		return Method(setting), nil
	}
	return "", fmt.Errorf("unknown paste method %q", setting)
}

func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
