package paste

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

func ydotoolSocketCandidates() []string {
	var paths []string
	if p := os.Getenv("YDOTOOL_SOCKET"); p != "" {
		paths = append(paths, p)
	}
	return append(paths, "/tmp/.ydotool_socket")
}

// YdotoolSocketAvailable reports whether the ydotoold socket exists.
func YdotoolSocketAvailable() bool {
	for _, p := range ydotoolSocketCandidates() {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func ydotooldServiceActive() bool {
	return exec.Command("systemctl", "--user", "is-active", "ydotoold.service").Run() == nil
}

// YdotoolReady reports whether ydotool can be expected to work right now.
func YdotoolReady() bool {
	return YdotoolSocketAvailable() || ydotooldServiceActive()
}

// UinputAccessible reports whether /dev/uinput is readable and writable by
// the current user. ydotoold needs this.
func UinputAccessible() bool {
	return unix.Access("/dev/uinput", unix.R_OK|unix.W_OK) == nil
}

// EnsureYdotooldRunning makes a best-effort attempt to start the ydotoold
// user service for sessions where the unit is installed but not running.
func EnsureYdotooldRunning() bool {
	if YdotoolReady() {
		return true
	}

	// Enable persistently on first run; fall back to a plain start where
	// enable is restricted.
	if exec.Command("systemctl", "--user", "enable", "--now", "ydotoold.service").Run() != nil {
		_ = exec.Command("systemctl", "--user", "start", "ydotoold.service").Run()
	}
	time.Sleep(200 * time.Millisecond)

	return YdotoolReady()
}

func validatedCurrentUser() (string, error) {
	user := os.Getenv("USER")
	if user == "" {
		return "", errors.New("could not determine current username")
	}
	for _, c := range user {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
		if !ok {
			return "", errors.New("refusing to use unsafe username in privileged setup")
		}
	}
	return user, nil
}

// RepairUinputPermissions installs a udev rule granting the input group
// access to /dev/uinput, adds the current user to that group, and reloads
// udev. Runs under pkexec, so the desktop prompts for authorization.
func RepairUinputPermissions() error {
	user, err := validatedCurrentUser()
	if err != nil {
		return err
	}

	script := fmt.Sprintf(`set -e
install -d /etc/udev/rules.d
cat > /etc/udev/rules.d/80-murmur-uinput.rules <<'EOF'
KERNEL=="uinput", GROUP="input", MODE="0660", OPTIONS+="static_node=uinput"
EOF
usermod -aG input %s
udevadm control --reload-rules || true
udevadm trigger --name-match=uinput || true
if [ -e /dev/uinput ]; then chgrp input /dev/uinput || true; chmod 0660 /dev/uinput || true; fi`, user)

	if err := exec.Command("pkexec", "/bin/sh", "-c", script).Run(); err != nil {
		return fmt.Errorf("privileged uinput setup was denied or failed: %w", err)
	}
	return nil
}

// RepairPasteSetup tries to get ydotool working end to end: start the
// daemon, repair /dev/uinput permissions if that is what blocks it, and
// retry.
func RepairPasteSetup() error {
	if EnsureYdotooldRunning() {
		return nil
	}

	if !UinputAccessible() {
		if err := RepairUinputPermissions(); err != nil {
			return err
		}
	}

	if !EnsureYdotooldRunning() {
		return errors.New("could not start ydotoold after repair")
	}
	return nil
}
