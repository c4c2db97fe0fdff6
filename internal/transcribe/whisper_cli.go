package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"murmur/internal/audio"
)

// minCaptureDuration rejects captures too short to contain speech before
// they reach the model. Extremely short holds produce these.
const minCaptureDuration = 200 * time.Millisecond

// WhisperCLI transcribes WAV files with the whisper.cpp command-line
// frontend. The model stays on disk; per-call failures do not invalidate
// the engine.
type WhisperCLI struct {
	Binary    string
	ModelPath string
	Language  string
}

func (t *WhisperCLI) Transcribe(ctx context.Context, path string) (string, error) {
	if err := guardCapture(path); err != nil {
		return "", err
	}

	args := whisperArgs(t.ModelPath, t.Language, path)
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return NormalizeWhitespace(stdout.String()), nil
}

func whisperArgs(modelPath, language, wavPath string) []string {
	return []string{"-m", modelPath, "-l", language, "-np", "-nt", "-f", wavPath}
}

// guardCapture validates the capture file before handing it to a backend.
func guardCapture(path string) error {
	dur, err := audio.Probe(path)
	if err != nil {
		return fmt.Errorf("unreadable capture: %w", err)
	}
	if dur < minCaptureDuration {
		return fmt.Errorf("capture too short to transcribe (%s)", dur)
	}
	return nil
}
