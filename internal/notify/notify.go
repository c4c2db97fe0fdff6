package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"murmur/internal/domain"
	"murmur/internal/ports"
)

// Log reports session activity through the structured logger. This is the
// always-on notifier; everything the daemon does ends up in the log.
type Log struct{}

func (Log) State(state domain.SessionState) {
	slog.Info("session state", "state", string(state))
}

func (Log) Status(message string) {
	slog.Info(message)
}

func (Log) Text(text string) {
	slog.Info("transcribed", "text", text)
}

func (Log) Error(message string) {
	slog.Error(message)
}

// Desktop surfaces transcriptions and failures as desktop notifications.
// State transitions are deliberately quiet: a notification per keypress
// would be unbearable.
type Desktop struct {
	AppName string
}

func (d Desktop) State(domain.SessionState) {}

func (d Desktop) Status(string) {}

func (d Desktop) Text(text string) {
	if err := beeep.Notify(d.appName(), text, ""); err != nil {
		slog.Warn("desktop notification failed", "error", err)
	}
}

func (d Desktop) Error(message string) {
	if err := beeep.Alert(d.appName(), message, ""); err != nil {
		slog.Warn("desktop alert failed", "error", err)
	}
}

func (d Desktop) appName() string {
	if d.AppName == "" {
		return "murmur"
	}
	return d.AppName
}

// Multi fans every notification out to all configured notifiers in order.
type Multi []ports.Notifier

func (m Multi) State(state domain.SessionState) {
	for _, n := range m {
		n.State(state)
	}
}

func (m Multi) Status(message string) {
	for _, n := range m {
		n.Status(message)
	}
}

func (m Multi) Text(text string) {
	for _, n := range m {
		n.Text(text)
	}
}

func (m Multi) Error(message string) {
	for _, n := range m {
		n.Error(message)
	}
}
