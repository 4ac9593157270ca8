package nlu

import (
	"context"
)

// Client defines the interface for inference providers.
type Client interface {
	ParseText(ctx context.Context, prompt string) (string, error)
}

// Transcriber converts voice audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Config holds inference provider configuration.
type Config struct {
	Provider          string // "anthropic" (default) or "openai"
	APIKey            string
	Model             string
	TranscribeAPIKey  string
	TranscribeModel   string
	MaxTokens         int
	RequestsPerMinute int
}
