package ports

import (
	"context"

	"murmur/internal/domain"
)

// KeySource delivers watched-key edges from a dedicated reader goroutine.
type KeySource interface {
	// Start spawns the reader. Edges arrive in production order (FIFO);
	// the channel is closed when the reader exits for any reason.
	Start(shutdown *domain.ShutdownFlag) <-chan domain.KeyEdge

	// Label is a human-readable description of the selected device.
	Label() string
}

// Recording is one in-progress audio capture, exclusively owned by the
// session controller.
type Recording interface {
	// Stop terminates the capture gracefully and returns the path of the
	// finished file. It fails explicitly if the file does not exist.
	Stop() (string, error)
}

// Capture owns capture subprocess lifecycles and their temporary storage.
type Capture interface {
	// NewPath allocates an isolated destination path for one recording.
	NewPath() (string, error)

	// Start begins capturing to path. A failed start never leaves a
	// dangling handle.
	Start(path string) (Recording, error)

	// Cleanup removes the capture file and its temporary directory. Safe
	// to call for paths that no longer exist.
	Cleanup(path string)
}

// Transcriber converts one finished capture file into text. Failures are
// per-call and do not invalidate the engine.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// TranscriberLoader performs the one-time engine warm-up during Starting,
// reporting progress through onStatus.
type TranscriberLoader interface {
	Load(ctx context.Context, onStatus func(string)) (Transcriber, error)
}

// Paster injects transcribed text into the focused application. Paste is
// best-effort relative to the session's own health.
type Paster interface {
	Paste(ctx context.Context, text string) error
}

// RulesEngine applies deterministic substitutions to transcribed text.
type RulesEngine interface {
	Apply(text string) string
}

// Notifier receives the ordered stream of session events. Implementations
// must not block the controller.
type Notifier interface {
	State(state domain.SessionState)
	Status(msg string)
	Text(text string)
	Error(msg string)
}
