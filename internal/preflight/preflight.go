package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"murmur/internal/config"
	"murmur/internal/paste"
	"murmur/internal/transcribe"
)

// Severity of a check result.
type Severity string

const (
	// SeverityCritical marks checks that must pass for dictation to work.
	SeverityCritical Severity = "critical"
	// SeverityWarning marks checks for reduced but workable functionality.
	SeverityWarning Severity = "warning"
)

// Check is the outcome of one environment probe.
type Check struct {
	Name     string
	Passed   bool
	Severity Severity
	Message  string
	Hint     string
}

// Report collects all preflight results.
type Report struct {
	Checks []Check
}

func (r Report) HasCriticalFailures() bool {
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func (r Report) HasWarnings() bool {
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// CriticalFailureSummary is a one-line summary of what blocks startup.
func (r Report) CriticalFailureSummary() string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == SeverityCritical {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Setup required: " + strings.Join(names, ", ")
}

func (r Report) String() string {
	var b strings.Builder
	b.WriteString("murmur environment check:\n")
	for _, c := range r.Checks {
		tag := " PASS"
		if !c.Passed {
			tag = " FAIL"
			if c.Severity == SeverityWarning {
				tag = " WARN"
			}
		}
		fmt.Fprintf(&b, "  [%s] %-14s %s\n", tag, c.Name, c.Message)
		if c.Hint != "" {
			fmt.Fprintf(&b, "  %6s %-14s hint: %s\n", "", "", c.Hint)
		}
	}
	return b.String()
}

// CheckEnvironment probes everything the daemon needs and reports the
// findings without fixing anything.
func CheckEnvironment(cfg config.Settings) Report {
	checks := []Check{
		checkInputAccess(),
		checkRecorder(cfg.RecorderCommand),
		checkPasteTool(),
		checkUinput(),
		checkDirectory("config dir", config.Dir(), SeverityCritical),
		checkDirectory("model dir", transcribe.DefaultModelDir(), SeverityCritical),
	}
	checks = append(checks, checkEngine(cfg)...)
	return Report{Checks: checks}
}

func checkInputAccess() Check {
	const name = "input devices"
	hint := "sudo usermod -aG input $USER  (then log out and back in)"

	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return Check{Name: name, Severity: SeverityCritical, Message: "Cannot read /dev/input", Hint: hint}
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", entry.Name())
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		f.Close()
		return Check{Name: name, Passed: true, Severity: SeverityCritical, Message: "Can access " + path}
	}

	return Check{
		Name:     name,
		Severity: SeverityCritical,
		Message:  "No input devices accessible (permission denied)",
		Hint:     hint,
	}
}

func checkRecorder(command string) Check {
	if command == "" {
		command = "arecord"
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return Check{
			Name:     command,
			Severity: SeverityCritical,
			Message:  command + " not found",
			Hint:     "Install alsa-utils",
		}
	}
	return Check{Name: command, Passed: true, Severity: SeverityCritical, Message: "Found at " + path}
}

func checkPasteTool() Check {
	const name = "paste tool"
	isWayland := os.Getenv("WAYLAND_DISPLAY") != ""
	isX11 := os.Getenv("DISPLAY") != ""

	if isWayland {
		if _, err := exec.LookPath("ydotool"); err == nil {
			return Check{Name: name, Passed: true, Severity: SeverityCritical, Message: "ydotool available (Wayland)"}
		}
		if _, err := exec.LookPath("wtype"); err == nil {
			return Check{Name: name, Passed: true, Severity: SeverityCritical, Message: "wtype available (Wayland)"}
		}
		if _, err := exec.LookPath("wl-copy"); err == nil {
			return Check{
				Name:     name,
				Passed:   true,
				Severity: SeverityWarning,
				Message:  "wl-copy available (clipboard only, no auto-paste)",
				Hint:     "Install ydotool for automatic pasting",
			}
		}
	}

	if isX11 {
		if _, err := exec.LookPath("xdotool"); err == nil {
			return Check{Name: name, Passed: true, Severity: SeverityCritical, Message: "xdotool available (X11)"}
		}
	}

	if !isWayland && !isX11 {
		// Likely started by systemd before the session came up.
		return Check{
			Name:     name,
			Passed:   true,
			Severity: SeverityWarning,
			Message:  "No display server detected (OK if running as a service)",
		}
	}

	hint := "Install xdotool"
	if isWayland {
		hint = "Install ydotool and wl-clipboard"
	}
	return Check{Name: name, Severity: SeverityCritical, Message: "No paste tool found", Hint: hint}
}

func checkUinput() Check {
	const name = "uinput"
	if paste.UinputAccessible() {
		return Check{Name: name, Passed: true, Severity: SeverityWarning, Message: "/dev/uinput accessible"}
	}
	return Check{
		Name:     name,
		Severity: SeverityWarning,
		Message:  "/dev/uinput not accessible (ydotool paste unavailable)",
		Hint:     "Run with --diagnose for a guided repair, or add a udev rule for uinput",
	}
}

func checkEngine(cfg config.Settings) []Check {
	switch cfg.Engine {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return []Check{{
				Name:     "openai",
				Severity: SeverityCritical,
				Message:  "No API key configured",
				Hint:     "Set OPENAI_API_KEY or add api_key to the config",
			}}
		}
		return []Check{{Name: "openai", Passed: true, Severity: SeverityCritical, Message: "API key configured"}}
	default:
		binary := cfg.WhisperBinary
		if binary == "" {
			binary = "whisper-cli"
		}
		checks := make([]Check, 0, 2)
		if path, err := exec.LookPath(binary); err == nil {
			checks = append(checks, Check{Name: binary, Passed: true, Severity: SeverityCritical, Message: "Found at " + path})
		} else {
			checks = append(checks, Check{
				Name:     binary,
				Severity: SeverityCritical,
				Message:  binary + " not found",
				Hint:     "Install whisper.cpp",
			})
		}
		if _, err := os.Stat(transcribe.ModelPath(cfg.Model)); err == nil {
			checks = append(checks, Check{Name: "model", Passed: true, Severity: SeverityWarning, Message: cfg.Model + " downloaded"})
		} else {
			checks = append(checks, Check{
				Name:     "model",
				Severity: SeverityWarning,
				Message:  cfg.Model + " not downloaded yet (fetched on first run)",
			})
		}
		return checks
	}
}

func checkDirectory(name, path string, severity Severity) Check {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Check{
			Name:     name,
			Severity: severity,
			Message:  fmt.Sprintf("Cannot create %s: %v", path, err),
			Hint:     "Check file system permissions",
		}
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Check{
			Name:     name,
			Severity: severity,
			Message:  path + " is not a directory",
			Hint:     "Check file system permissions",
		}
	}
	return Check{Name: name, Passed: true, Severity: severity, Message: path}
}
