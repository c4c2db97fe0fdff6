package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	d := Defaults()
	if d.Key != "KEY_RIGHTCTRL" {
		t.Fatalf("unexpected default key: %q", d.Key)
	}
	if d.KeyboardDevice != "auto" {
		t.Fatalf("unexpected default device: %q", d.KeyboardDevice)
	}
	if d.RecorderCommand != "arecord" {
		t.Fatalf("unexpected recorder command: %q", d.RecorderCommand)
	}
	if d.Engine != "whisper-cli" || d.Model != "base.en" || d.Language != "en" {
		t.Fatalf("unexpected engine defaults: %+v", d)
	}
	if d.PasteMethod != "auto" || d.PasteHotkey != "ctrl+v" || d.ClipboardPaste != "auto" {
		t.Fatalf("unexpected paste defaults: %+v", d)
	}
	if d.ClipboardPasteDelayMS != 75 {
		t.Fatalf("unexpected clipboard delay: %d", d.ClipboardPasteDelayMS)
	}
	if d.LogLevel != "info" {
		t.Fatalf("unexpected log level: %q", d.LogLevel)
	}
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.ini")
	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Key != Defaults().Key || s.Model != Defaults().Model {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestLoadFromPartialConfig(t *testing.T) {
	path := writeConfig(t, `[murmur]
key = KEY_CAPSLOCK
model = large
`)

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Key != "KEY_CAPSLOCK" {
		t.Fatalf("unexpected key: %q", s.Key)
	}
	if s.Model != "large" {
		t.Fatalf("unexpected model: %q", s.Model)
	}
	if s.Language != "en" {
		t.Fatalf("expected default language, got %q", s.Language)
	}
	if s.PasteMethod != "auto" {
		t.Fatalf("expected default paste method, got %q", s.PasteMethod)
	}
}

func TestLoadFromFullConfig(t *testing.T) {
	path := writeConfig(t, `[murmur]
key = KEY_RIGHTCTRL
keyboard_device = /dev/input/event5
recorder_command = pw-record
engine = openai
model = small.en
language = es
openai_model = whisper-1
paste_method = xdotool
paste_hotkey = ctrl+shift+v
clipboard_paste = off
clipboard_paste_delay_ms = 100
rules_iteration_limit = 5
log_file = /tmp/test.log
log_level = debug
desktop_notifications = true
`)

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.KeyboardDevice != "/dev/input/event5" {
		t.Fatalf("unexpected device: %q", s.KeyboardDevice)
	}
	if s.RecorderCommand != "pw-record" {
		t.Fatalf("unexpected recorder: %q", s.RecorderCommand)
	}
	if s.Engine != "openai" || s.Language != "es" {
		t.Fatalf("unexpected engine settings: %+v", s)
	}
	if s.PasteMethod != "xdotool" || s.PasteHotkey != "ctrl+shift+v" || s.ClipboardPaste != "off" {
		t.Fatalf("unexpected paste settings: %+v", s)
	}
	if s.ClipboardPasteDelayMS != 100 {
		t.Fatalf("unexpected delay: %d", s.ClipboardPasteDelayMS)
	}
	if s.RulesIterationLimit != 5 {
		t.Fatalf("unexpected iteration limit: %d", s.RulesIterationLimit)
	}
	if s.LogFile != "/tmp/test.log" || s.LogLevel != "debug" {
		t.Fatalf("unexpected log settings: %+v", s)
	}
	if !s.DesktopNotifications {
		t.Fatalf("expected desktop notifications enabled")
	}
}

func TestLoadFromInvalidIntFallsBack(t *testing.T) {
	path := writeConfig(t, `[murmur]
clipboard_paste_delay_ms = not-a-number
`)

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.ClipboardPasteDelayMS != 75 {
		t.Fatalf("expected fallback delay, got %d", s.ClipboardPasteDelayMS)
	}
}

func TestLoadFromEmptyValueFallsBack(t *testing.T) {
	path := writeConfig(t, `[murmur]
key =
`)

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Key != "KEY_RIGHTCTRL" {
		t.Fatalf("expected default key for empty value, got %q", s.Key)
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.ini"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.OpenAI.APIKey != "sk-test" {
		t.Fatalf("expected API key from environment, got %q", s.OpenAI.APIKey)
	}
}
