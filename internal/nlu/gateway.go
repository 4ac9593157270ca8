package nlu

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/model"
	"github.com/gustavohm/granabot/internal/service"
)

// Ceilings applied before audio ever reaches the transcription service.
const (
	MaxAudioDuration = 60 * time.Second
	MaxAudioBytes    = 10 << 20
)

// Gateway builds inference requests from conversational and domain context
// and normalizes the results. Inference failures never escape it: callers
// always get a well-formed AIResponse, degraded to unknown when necessary.
type Gateway struct {
	client      Client
	transcriber Transcriber
	limiter     *rateLimiter
	retryOpts   service.RetryOptions
}

// NewGateway creates a gateway over the given provider clients.
func NewGateway(client Client, transcriber Transcriber, requestsPerMinute int) *Gateway {
	return &Gateway{
		client:      client,
		transcriber: transcriber,
		limiter:     newRateLimiter(requestsPerMinute),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Parse runs one inference call for the message. The returned response is
// always usable; a service outage, timeout, or malformed payload all resolve
// to intent unknown with zero confidence.
func (g *Gateway) Parse(ctx context.Context, message string, uc *model.UserContext) model.AIResponse {
	if err := g.limiter.wait(ctx); err != nil {
		slog.Warn("inference rate limit wait canceled", "error", err)
		return degradedResponse()
	}

	prompt := buildPrompt(message, uc)

	var raw string
	err := common.WithRetry(ctx, func() error {
		out, callErr := g.client.ParseText(ctx, prompt)
		if callErr != nil {
			return callErr
		}
		raw = out
		return nil
	}, g.retryOpts)
	if err != nil {
		slog.Error("inference call failed, degrading to unknown intent",
			"error", err,
			"message_len", len(message))
		return degradedResponse()
	}

	resp := normalizeResponse(raw)
	slog.Debug("inference response normalized",
		"intent", resp.Intent,
		"confidence", resp.Confidence)
	return resp
}

// Transcribe validates the audio against the fixed ceilings and runs the
// transcription. An empty transcript maps to ErrAudioNotGrasped so callers
// can give the user a specific corrective instruction.
func (g *Gateway) Transcribe(ctx context.Context, audio []byte, mimeType string, duration time.Duration) (string, error) {
	if duration > MaxAudioDuration {
		return "", common.ErrAudioTooLong
	}
	if len(audio) > MaxAudioBytes {
		return "", common.ErrAudioTooLarge
	}
	if g.transcriber == nil {
		return "", common.ErrAudioNotGrasped
	}

	text, err := g.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		slog.Error("transcription failed", "error", err, "bytes", len(audio))
		return "", common.ErrAudioNotGrasped
	}
	if strings.TrimSpace(text) == "" {
		return "", common.ErrAudioNotGrasped
	}
	return text, nil
}

// Close releases the rate limiter.
func (g *Gateway) Close() {
	g.limiter.Close()
}
