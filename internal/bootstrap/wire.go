package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/audio"
	"murmur/internal/config"
	"murmur/internal/input"
	"murmur/internal/paste"
	"murmur/internal/ports"
	"murmur/internal/rules"
	"murmur/internal/session"
	"murmur/internal/transcribe"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *session.Controller
	Config     config.Settings
}

// Build wires all backend dependencies for the daemon. Selection failures
// (unknown key, missing device, no paste tool) surface here, before the
// session starts.
func Build(cfg config.Settings, notifier ports.Notifier) (Services, error) {
	key, err := input.ResolveKey(cfg.Key)
	if err != nil {
		return Services{}, err
	}

	device, err := (input.Enumerator{}).Pick(cfg.KeyboardDevice, key)
	if err != nil {
		return Services{}, err
	}

	method, err := paste.PickMethod(cfg.PasteMethod)
	if err != nil {
		return Services{}, err
	}

	rulesEngine, err := rules.NewEngine(cfg.RulesFile, cfg.RulesIterationLimit)
	if err != nil {
		return Services{}, err
	}

	slog.Info("session wired",
		"key", key.String(),
		"device", device.Label(),
		"engine", cfg.Engine,
		"paste_method", method.String())

	controller := session.NewController(
		&input.Reader{Device: device, Key: key},
		audio.NewRecorder(cfg.RecorderCommand),
		transcribe.NewLoader(cfg),
		rulesEngine,
		paste.NewDispatcher(paste.Config{
			Method:         method,
			Hotkey:         cfg.PasteHotkey,
			ClipboardPaste: cfg.ClipboardPaste,
			ClipboardDelay: time.Duration(cfg.ClipboardPasteDelayMS) * time.Millisecond,
		}),
		notifier,
		session.Config{},
	)

	return Services{Controller: controller, Config: cfg}, nil
}

// DescribeStartup is the one-line summary logged when the daemon boots.
func DescribeStartup(cfg config.Settings) string {
	return fmt.Sprintf("murmur starting: key=%s device=%s engine=%s model=%s",
		cfg.Key, cfg.KeyboardDevice, cfg.Engine, cfg.Model)
}
