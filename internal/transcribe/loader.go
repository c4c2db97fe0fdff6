package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"murmur/internal/config"
	"murmur/internal/ports"
)

// Loader performs the one-time engine warm-up for the configured backend.
type Loader struct {
	settings config.Settings
}

func NewLoader(settings config.Settings) *Loader {
	return &Loader{settings: settings}
}

// Load builds the configured transcription engine, downloading the model on
// first use for the local backend. Progress goes through onStatus.
func (l *Loader) Load(ctx context.Context, onStatus func(string)) (ports.Transcriber, error) {
	switch l.settings.Engine {
	case "", "whisper-cli":
		return l.loadWhisperCLI(ctx, onStatus)
	case "openai":
		return l.loadOpenAI()
	default:
		return nil, fmt.Errorf("unknown transcription engine %q (supported: whisper-cli, openai)", l.settings.Engine)
	}
}

func (l *Loader) loadWhisperCLI(ctx context.Context, onStatus func(string)) (ports.Transcriber, error) {
	binary := l.settings.WhisperBinary
	if binary == "" {
		binary = "whisper-cli"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%s not found in PATH (install whisper.cpp): %w", binary, err)
	}

	modelPath, err := EnsureModel(ctx, l.settings.Model, onStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare model %q: %w", l.settings.Model, err)
	}

	onStatus("Loading model...")
	return &WhisperCLI{
		Binary:    binary,
		ModelPath: modelPath,
		Language:  l.settings.Language,
	}, nil
}

func (l *Loader) loadOpenAI() (ports.Transcriber, error) {
	if l.settings.OpenAI.APIKey == "" {
		return nil, errors.New("openai engine selected but no API key configured (set OPENAI_API_KEY)")
	}
	return NewOpenAIEngine(
		l.settings.OpenAI.APIKey,
		l.settings.OpenAI.BaseURL,
		l.settings.OpenAI.Model,
		l.settings.Language,
	), nil
}
