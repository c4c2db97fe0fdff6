package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const section = "murmur"

// Settings stores the full runtime configuration. Values are resolved once
// at startup and immutable for the life of a session.
type Settings struct {
	Key             string
	KeyboardDevice  string
	RecorderCommand string

	Engine        string
	WhisperBinary string
	Model         string
	Language      string
	OpenAI        OpenAISettings

	PasteMethod           string
	PasteHotkey           string
	ClipboardPaste        string
	ClipboardPasteDelayMS int

	RulesFile           string
	RulesIterationLimit int

	LogFile              string
	LogLevel             string
	DesktopNotifications bool
}

// OpenAISettings configures the remote transcription backend.
type OpenAISettings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Defaults returns the built-in settings used when no config file exists.
func Defaults() Settings {
	return Settings{
		Key:                   "KEY_RIGHTCTRL",
		KeyboardDevice:        "auto",
		RecorderCommand:       "arecord",
		Engine:                "whisper-cli",
		WhisperBinary:         "whisper-cli",
		Model:                 "base.en",
		Language:              "en",
		OpenAI:                OpenAISettings{Model: "whisper-1"},
		PasteMethod:           "auto",
		PasteHotkey:           "ctrl+v",
		ClipboardPaste:        "auto",
		ClipboardPasteDelayMS: 75,
		RulesFile:             filepath.Join(Dir(), "substitutions.rules"),
		RulesIterationLimit:   30,
		LogFile:               defaultLogFile(),
		LogLevel:              "info",
	}
}

// Dir returns the murmur configuration directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, "murmur")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.ini")
}

func defaultLogFile() string {
	base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "murmur", "murmur.log")
}

// Load resolves settings from the default config file location.
func Load() (Settings, error) {
	return LoadFrom(Path())
}

// LoadFrom resolves settings from path, falling back to defaults for any
// missing key. A missing file yields defaults without error.
func LoadFrom(path string) (Settings, error) {
	s := Defaults()
	applyEnv(&s)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("failed to stat config %q: %w", path, err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	sec := file.Section(section)

	s.Key = strOrDefault(sec, "key", s.Key)
	s.KeyboardDevice = strOrDefault(sec, "keyboard_device", s.KeyboardDevice)
	s.RecorderCommand = strOrDefault(sec, "recorder_command", s.RecorderCommand)
	s.Engine = strOrDefault(sec, "engine", s.Engine)
	s.WhisperBinary = strOrDefault(sec, "whisper_binary", s.WhisperBinary)
	s.Model = strOrDefault(sec, "model", s.Model)
	s.Language = strOrDefault(sec, "language", s.Language)
	s.OpenAI.APIKey = strOrDefault(sec, "openai_api_key", s.OpenAI.APIKey)
	s.OpenAI.BaseURL = strOrDefault(sec, "openai_base_url", s.OpenAI.BaseURL)
	s.OpenAI.Model = strOrDefault(sec, "openai_model", s.OpenAI.Model)
	s.PasteMethod = strOrDefault(sec, "paste_method", s.PasteMethod)
	s.PasteHotkey = strOrDefault(sec, "paste_hotkey", s.PasteHotkey)
	s.ClipboardPaste = strOrDefault(sec, "clipboard_paste", s.ClipboardPaste)
	s.ClipboardPasteDelayMS = intOrDefault(sec, "clipboard_paste_delay_ms", s.ClipboardPasteDelayMS)
	s.RulesFile = strOrDefault(sec, "rules_file", s.RulesFile)
	s.RulesIterationLimit = intOrDefault(sec, "rules_iteration_limit", s.RulesIterationLimit)
	s.LogFile = strOrDefault(sec, "log_file", s.LogFile)
	s.LogLevel = strOrDefault(sec, "log_level", s.LogLevel)
	s.DesktopNotifications = boolOrDefault(sec, "desktop_notifications", s.DesktopNotifications)

	clamp(&s)
	return s, nil
}

// applyEnv fills secrets from the environment so they can stay out of the
// config file.
func applyEnv(s *Settings) {
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		s.OpenAI.APIKey = key
	}
	if base := strings.TrimSpace(os.Getenv("OPENAI_API_BASE")); base != "" {
		s.OpenAI.BaseURL = base
	}
}

func clamp(s *Settings) {
	if s.ClipboardPasteDelayMS < 0 {
		s.ClipboardPasteDelayMS = 75
	}
	if s.RulesIterationLimit <= 0 {
		s.RulesIterationLimit = 30
	}
}

func strOrDefault(sec *ini.Section, key, fallback string) string {
	if !sec.HasKey(key) {
		return fallback
	}
	value := strings.TrimSpace(sec.Key(key).String())
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(sec *ini.Section, key string, fallback int) int {
	if !sec.HasKey(key) {
		return fallback
	}
	value, err := sec.Key(key).Int()
	if err != nil {
		return fallback
	}
	return value
}

func boolOrDefault(sec *ini.Section, key string, fallback bool) bool {
	if !sec.HasKey(key) {
		return fallback
	}
	value, err := sec.Key(key).Bool()
	if err != nil {
		return fallback
	}
	return value
}

// EnsureDefaultFile writes a default config file if none exists and returns
// its path.
func EnsureDefaultFile() (string, error) {
	path := Path()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config dir %q: %w", filepath.Dir(path), err)
	}

	d := Defaults()
	file := ini.Empty()
	sec := file.Section(section)
	sec.Key("key").SetValue(d.Key)
	sec.Key("keyboard_device").SetValue(d.KeyboardDevice)
	sec.Key("recorder_command").SetValue(d.RecorderCommand)
	sec.Key("engine").SetValue(d.Engine)
	sec.Key("whisper_binary").SetValue(d.WhisperBinary)
	sec.Key("model").SetValue(d.Model)
	sec.Key("language").SetValue(d.Language)
	sec.Key("paste_method").SetValue(d.PasteMethod)
	sec.Key("paste_hotkey").SetValue(d.PasteHotkey)
	sec.Key("clipboard_paste").SetValue(d.ClipboardPaste)
	sec.Key("clipboard_paste_delay_ms").SetValue(fmt.Sprintf("%d", d.ClipboardPasteDelayMS))
	sec.Key("log_file").SetValue(d.LogFile)
	sec.Key("log_level").SetValue(d.LogLevel)

	if err := file.SaveTo(path); err != nil {
		return "", fmt.Errorf("failed to write config %q: %w", path, err)
	}
	return path, nil
}
