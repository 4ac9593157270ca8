package nlu

import "fmt"

// NewClient creates an inference client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unknown inference provider: %q", cfg.Provider)
	}
}

// NewTranscriber creates a transcription client.
func NewTranscriber(cfg Config) (Transcriber, error) {
	return newWhisperClient(cfg)
}
