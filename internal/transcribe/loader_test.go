package transcribe

import (
	"context"
	"strings"
	"testing"

	"murmur/internal/config"
)

func TestLoaderUnknownEngine(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Engine = "carrier-pigeon"

	_, err := NewLoader(cfg).Load(context.Background(), func(string) {})
	if err == nil || !strings.Contains(err.Error(), "unknown transcription engine") {
		t.Fatalf("expected unknown engine error, got %v", err)
	}
}

func TestLoaderOpenAIRequiresKey(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Engine = "openai"
	cfg.OpenAI.APIKey = ""

	_, err := NewLoader(cfg).Load(context.Background(), func(string) {})
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestLoaderOpenAIWithKey(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Engine = "openai"
	cfg.OpenAI.APIKey = "sk-test"

	engine, err := NewLoader(cfg).Load(context.Background(), func(string) {})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if engine == nil {
		t.Fatalf("expected an engine")
	}
}

func TestLoaderWhisperCLIMissingBinary(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Engine = "whisper-cli"
	cfg.WhisperBinary = "definitely-not-installed-whisper"

	_, err := NewLoader(cfg).Load(context.Background(), func(string) {})
	if err == nil || !strings.Contains(err.Error(), "not found in PATH") {
		t.Fatalf("expected missing binary error, got %v", err)
	}
}
