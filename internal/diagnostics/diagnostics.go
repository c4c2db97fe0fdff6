package diagnostics

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"murmur/internal/audio"
	"murmur/internal/config"
	"murmur/internal/input"
	"murmur/internal/paste"
	"murmur/internal/preflight"
	"murmur/internal/transcribe"
)

// Report is the machine-readable diagnose output. The schema is stable so
// bug reports can be parsed; bump schemaVersion on breaking changes.
type Report struct {
	SchemaVersion   int             `json:"schema_version"`
	AppVersion      string          `json:"app_version"`
	Command         string          `json:"command"`
	UnixTimestampMS int64           `json:"unix_timestamp_ms"`
	OK              bool            `json:"ok"`
	Environment     EnvironmentInfo `json:"environment"`
	Permissions     PermissionInfo  `json:"permissions"`
	Preflight       PreflightInfo   `json:"preflight"`
	Logs            LogInfo         `json:"logs"`
	SmokeTest       *SmokeTestInfo  `json:"smoke_test,omitempty"`
}

type EnvironmentInfo struct {
	WaylandDisplay    string            `json:"wayland_display"`
	X11Display        string            `json:"x11_display"`
	XDGSessionType    string            `json:"xdg_session_type"`
	XDGCurrentDesktop string            `json:"xdg_current_desktop"`
	CommandAvailable  map[string]bool   `json:"command_available"`
	UserServiceState  map[string]string `json:"user_service_state"`
}

type PermissionInfo struct {
	User                   string `json:"user"`
	InputGroupConfigured   bool   `json:"input_group_configured"`
	InputGroupActive       bool   `json:"input_group_active_in_process"`
	ReadableInputDevices   int    `json:"readable_input_devices"`
	TotalInputDevices      int    `json:"total_input_devices"`
	YdotoolSocketAvailable bool   `json:"ydotool_socket_available"`
	UinputAccessible       bool   `json:"uinput_accessible"`
}

type PreflightInfo struct {
	CriticalFailures int              `json:"critical_failures"`
	Warnings         int              `json:"warnings"`
	Checks           []PreflightCheck `json:"checks"`
}

type PreflightCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
}

type LogInfo struct {
	ConfiguredLogFile string   `json:"configured_log_file"`
	LogFileExists     bool     `json:"log_file_exists"`
	TailLines         []string `json:"tail_lines"`
}

type SmokeTestInfo struct {
	DurationMS int64       `json:"duration_ms"`
	Passed     bool        `json:"passed"`
	Steps      []SmokeStep `json:"steps"`
}

type SmokeStep struct {
	Name       string `json:"name"`
	Required   bool   `json:"required"`
	Status     string `json:"status"` // pass, fail or skip
	Detail     string `json:"detail"`
	DurationMS int64  `json:"duration_ms"`
}

const logTailLines = 80

// RunAndPrint writes the pretty-printed report to w and reports whether
// the environment looks healthy.
func RunAndPrint(w io.Writer, cfg config.Settings, command, appVersion string, withSmokeTest bool) (bool, error) {
	report := Run(cfg, command, appVersion, withSmokeTest)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return false, fmt.Errorf("failed to encode diagnose report: %w", err)
	}
	return report.OK, nil
}

// Run collects the full diagnose report.
func Run(cfg config.Settings, command, appVersion string, withSmokeTest bool) Report {
	pre := preflight.CheckEnvironment(cfg)

	var smoke *SmokeTestInfo
	if withSmokeTest {
		s := runSmokeTest(cfg)
		smoke = &s
	}

	ok := !pre.HasCriticalFailures() && (smoke == nil || smoke.Passed)

	return Report{
		SchemaVersion:   1,
		AppVersion:      appVersion,
		Command:         command,
		UnixTimestampMS: time.Now().UnixMilli(),
		OK:              ok,
		Environment:     collectEnvironment(),
		Permissions:     collectPermissions(),
		Preflight:       collectPreflight(pre),
		Logs:            collectLogs(cfg.LogFile),
		SmokeTest:       smoke,
	}
}

func collectEnvironment() EnvironmentInfo {
	available := make(map[string]bool)
	for _, cmd := range []string{
		"arecord", "ydotool", "ydotoold", "wl-copy", "wtype",
		"xdotool", "xclip", "pw-cat", "pactl", "whisper-cli",
	} {
		_, err := exec.LookPath(cmd)
		available[cmd] = err == nil
	}

	services := make(map[string]string)
	for _, unit := range []string{"murmur.service", "ydotoold.service"} {
		services[unit] = userUnitState(unit)
	}

	return EnvironmentInfo{
		WaylandDisplay:    os.Getenv("WAYLAND_DISPLAY"),
		X11Display:        os.Getenv("DISPLAY"),
		XDGSessionType:    os.Getenv("XDG_SESSION_TYPE"),
		XDGCurrentDesktop: os.Getenv("XDG_CURRENT_DESKTOP"),
		CommandAvailable:  available,
		UserServiceState:  services,
	}
}

func userUnitState(unit string) string {
	out, err := exec.Command("systemctl", "--user", "is-active", unit).Output()
	state := strings.TrimSpace(string(out))
	if err != nil && state == "" {
		return "unavailable"
	}
	if state == "" {
		return "inactive"
	}
	return state
}

func collectPermissions() PermissionInfo {
	user := os.Getenv("USER")
	readable, total := inputDeviceReadability()

	return PermissionInfo{
		User:                   user,
		InputGroupConfigured:   userListedInInputGroup(user),
		InputGroupActive:       inputGroupActiveInProcess(),
		ReadableInputDevices:   readable,
		TotalInputDevices:      total,
		YdotoolSocketAvailable: paste.YdotoolSocketAvailable(),
		UinputAccessible:       paste.UinputAccessible(),
	}
}

func inputDeviceReadability() (readable, total int) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return 0, 0
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		total++
		f, err := os.Open(filepath.Join("/dev/input", entry.Name()))
		if err != nil {
			continue
		}
		f.Close()
		readable++
	}
	return readable, total
}

func inputGroupGID() (int, bool) {
	f, err := os.Open("/etc/group")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ":")
		if len(parts) >= 3 && parts[0] == "input" {
			gid, err := strconv.Atoi(parts[2])
			return gid, err == nil
		}
	}
	return 0, false
}

func inputGroupActiveInProcess() bool {
	gid, ok := inputGroupGID()
	if !ok {
		return false
	}
	for _, g := range processGroupIDs() {
		if g == gid {
			return true
		}
	}
	return false
}

func processGroupIDs() []int {
	raw, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return nil
	}
	for _, line := range strings.Split(string(raw), "\n") {
		rest, ok := strings.CutPrefix(line, "Groups:")
		if !ok {
			continue
		}
		var gids []int
		for _, field := range strings.Fields(rest) {
			if gid, err := strconv.Atoi(field); err == nil {
				gids = append(gids, gid)
			}
		}
		return gids
	}
	return nil
}

func userListedInInputGroup(user string) bool {
	if user == "" {
		return false
	}
	raw, err := os.ReadFile("/etc/group")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, "input:") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 4 {
			return false
		}
		for _, member := range strings.Split(parts[3], ",") {
			if strings.TrimSpace(member) == user {
				return true
			}
		}
	}
	return false
}

func collectPreflight(report preflight.Report) PreflightInfo {
	info := PreflightInfo{Checks: make([]PreflightCheck, 0, len(report.Checks))}
	for _, c := range report.Checks {
		if !c.Passed {
			if c.Severity == preflight.SeverityCritical {
				info.CriticalFailures++
			} else {
				info.Warnings++
			}
		}
		info.Checks = append(info.Checks, PreflightCheck{
			Name:     c.Name,
			Passed:   c.Passed,
			Severity: string(c.Severity),
			Message:  c.Message,
			Hint:     c.Hint,
		})
	}
	return info
}

func collectLogs(logFile string) LogInfo {
	info := LogInfo{ConfiguredLogFile: logFile, TailLines: []string{}}
	if logFile == "" {
		return info
	}
	raw, err := os.ReadFile(logFile)
	if err != nil {
		return info
	}
	info.LogFileExists = true
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) > logTailLines {
		lines = lines[len(lines)-logTailLines:]
	}
	info.TailLines = lines
	return info
}

// runSmokeTest exercises the real pipeline end to end: key resolution,
// device selection, paste method selection, a short capture, and a local
// transcription if the model is already on disk.
func runSmokeTest(cfg config.Settings) SmokeTestInfo {
	overall := time.Now()
	var steps []SmokeStep
	addStep := func(name string, required bool, status, detail string, start time.Time) {
		steps = append(steps, SmokeStep{
			Name:       name,
			Required:   required,
			Status:     status,
			Detail:     detail,
			DurationMS: time.Since(start).Milliseconds(),
		})
	}

	start := time.Now()
	key, err := input.ResolveKey(cfg.Key)
	if err != nil {
		addStep("resolve_trigger_key", true, "fail", fmt.Sprintf("Failed to resolve key: %v", err), start)
		return SmokeTestInfo{DurationMS: time.Since(overall).Milliseconds(), Steps: steps}
	}
	addStep("resolve_trigger_key", true, "pass",
		fmt.Sprintf("Resolved %s to %s", cfg.Key, key.String()), start)

	start = time.Now()
	if device, err := (input.Enumerator{}).Pick(cfg.KeyboardDevice, key); err != nil {
		addStep("select_input_device", true, "fail", fmt.Sprintf("Input device selection failed: %v", err), start)
	} else {
		addStep("select_input_device", true, "pass", "Using "+device.Label(), start)
	}

	start = time.Now()
	if method, err := paste.PickMethod(cfg.PasteMethod); err != nil {
		addStep("select_paste_method", true, "fail", fmt.Sprintf("Paste method selection failed: %v", err), start)
	} else {
		addStep("select_paste_method", true, "pass", "Using "+method.String(), start)
	}

	wavPath := runCaptureStep(cfg, addStep)
	runTranscriptionStep(cfg, wavPath, addStep)

	if wavPath != "" {
		audio.NewRecorder(cfg.RecorderCommand).Cleanup(wavPath)
	}

	passed := true
	for _, s := range steps {
		if s.Required && s.Status != "pass" {
			passed = false
		}
	}
	return SmokeTestInfo{
		DurationMS: time.Since(overall).Milliseconds(),
		Passed:     passed,
		Steps:      steps,
	}
}

func runCaptureStep(cfg config.Settings, addStep func(string, bool, string, string, time.Time)) string {
	const name = "audio_capture_roundtrip"
	start := time.Now()

	recorder := audio.NewRecorder(cfg.RecorderCommand)
	path, err := recorder.NewPath()
	if err != nil {
		addStep(name, true, "fail", fmt.Sprintf("Could not create temp WAV path: %v", err), start)
		return ""
	}

	rec, err := recorder.Start(path)
	if err != nil {
		recorder.Cleanup(path)
		addStep(name, true, "fail", fmt.Sprintf("Failed to start recording: %v", err), start)
		return ""
	}

	time.Sleep(600 * time.Millisecond)

	recorded, err := rec.Stop()
	if err != nil {
		recorder.Cleanup(path)
		addStep(name, true, "fail", fmt.Sprintf("Failed to stop recording: %v", err), start)
		return ""
	}

	dur, err := audio.Probe(recorded)
	if err != nil {
		recorder.Cleanup(recorded)
		addStep(name, true, "fail", fmt.Sprintf("Recorded WAV unreadable: %v", err), start)
		return ""
	}

	addStep(name, true, "pass", fmt.Sprintf("Captured %s of audio at %s", dur, recorded), start)
	return recorded
}

func runTranscriptionStep(cfg config.Settings, wavPath string, addStep func(string, bool, string, string, time.Time)) {
	const name = "transcription_probe"
	start := time.Now()

	if wavPath == "" {
		addStep(name, false, "skip", "Skipped because audio capture step failed", start)
		return
	}
	if cfg.Engine == "openai" {
		addStep(name, false, "skip", "Skipped for remote engine (no network calls during diagnose)", start)
		return
	}

	binary := cfg.WhisperBinary
	if binary == "" {
		binary = "whisper-cli"
	}
	if _, err := exec.LookPath(binary); err != nil {
		addStep(name, false, "skip", binary+" not installed", start)
		return
	}
	modelPath := transcribe.ModelPath(cfg.Model)
	if _, err := os.Stat(modelPath); err != nil {
		addStep(name, false, "skip",
			fmt.Sprintf("Model %s not present at %s (download on first run)", cfg.Model, modelPath), start)
		return
	}

	engine := &transcribe.WhisperCLI{Binary: binary, ModelPath: modelPath, Language: cfg.Language}
	text, err := engine.Transcribe(context.Background(), wavPath)
	if err != nil {
		addStep(name, false, "fail", fmt.Sprintf("Transcription failed: %v", err), start)
		return
	}
	addStep(name, false, "pass", fmt.Sprintf("Transcription completed (%d chars)", len(text)), start)
}
