package transcribe

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngine transcribes capture files through an OpenAI-compatible audio
// transcription endpoint as a single batch call per capture.
type OpenAIEngine struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAIEngine builds the remote engine. baseURL overrides the API host
// for self-hosted compatible servers.
func NewOpenAIEngine(apiKey, baseURL, model, language string) *OpenAIEngine {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIEngine{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

func (t *OpenAIEngine) Transcribe(ctx context.Context, path string) (string, error) {
	if err := guardCapture(path); err != nil {
		return "", err
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	return NormalizeWhitespace(resp.Text), nil
}
