// Package elevenlabs implements the synthesis.Synthesizer contract against
// the ElevenLabs text-to-speech API, requesting character-level timestamps
// alongside the audio.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/readaloudapp/readaloud-server/internal/config"
	"github.com/readaloudapp/readaloud-server/internal/domain"
	"github.com/readaloudapp/readaloud-server/internal/errors"
	"github.com/readaloudapp/readaloud-server/internal/ratelimit"
	"github.com/readaloudapp/readaloud-server/internal/synthesis"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultTimeout = 60 * time.Second

	// Burst above the steady rate so a narration's first few segments go out
	// immediately.
	defaultBurst = 3
)

// Client is a rate-limited ElevenLabs client. The API key is an explicit
// construction parameter so tests and concurrent configurations can each
// carry their own credential.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger

	apiKey       string
	baseURL      string
	modelID      string
	outputFormat string
}

var _ synthesis.Synthesizer = (*Client)(nil)

// New creates a new ElevenLabs client from configuration.
func New(cfg config.SynthesisConfig, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}

	return &Client{
		http:         &http.Client{Timeout: timeout},
		limiter:      ratelimit.New(rps, defaultBurst),
		logger:       logger,
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		modelID:      cfg.ModelID,
		outputFormat: cfg.OutputFormat,
	}
}

// synthesizeRequest is the provider wire format.
type synthesizeRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// synthesizeResponse is the with-timestamps wire format. Alignment is
// optional; the provider omits it for some voices and formats.
type synthesizeResponse struct {
	AudioBase64 string                     `json:"audio_base64"`
	Alignment   *domain.CharacterAlignment `json:"alignment"`
}

// Synthesize issues one with-timestamps request for a segment of text.
func (c *Client) Synthesize(ctx context.Context, req synthesis.Request) (*synthesis.Result, error) {
	if c.apiKey == "" {
		return nil, errors.SynthesisProvider(http.StatusUnauthorized, "no synthesis API key configured")
	}

	if err := c.limiter.Wait(ctx, req.VoiceID); err != nil {
		return nil, classifyTransportErr(ctx, err)
	}

	payload, err := json.Marshal(synthesizeRequest{Text: req.Text, ModelID: c.modelID})
	if err != nil {
		return nil, errors.Internal("encode synthesis request").WithCause(err)
	}

	url := c.baseURL + "/v1/text-to-speech/" + req.VoiceID + "/with-timestamps?output_format=" + c.outputFormat
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Internal("create synthesis request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	c.logger.Debug("synthesis request",
		"voice_id", req.VoiceID,
		"chars", len(req.Text),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportErr(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportErr(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := providerMessage(body)
		return nil, errors.SynthesisProviderf(resp.StatusCode, "provider returned %d: %s", resp.StatusCode, msg)
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.MalformedResponse("undecodable synthesis response").WithCause(err)
	}
	if decoded.AudioBase64 == "" {
		return nil, errors.MalformedResponse("synthesis response missing audio payload")
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.AudioBase64)
	if err != nil {
		return nil, errors.MalformedResponse("invalid audio encoding").WithCause(err)
	}
	if len(audio) == 0 {
		return nil, errors.MalformedResponse("synthesis response contained empty audio")
	}

	// A missing alignment is valid; word highlighting degrades gracefully.
	return &synthesis.Result{Audio: audio, Alignment: decoded.Alignment}, nil
}

// classifyTransportErr distinguishes caller cancellation from timeouts.
// A canceled context propagates as-is so the orchestrator can tell an
// aborted narration apart from a slow provider.
func classifyTransportErr(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	if ctx.Err() == context.DeadlineExceeded {
		return errors.ErrSynthesisTimeout.WithCause(err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.ErrSynthesisTimeout.WithCause(err)
	}
	return errors.ErrSynthesisProvider.WithCause(err)
}

// providerMessage extracts a human-readable message from an error body.
// ElevenLabs wraps errors as {"detail": {"status": ..., "message": ...}}.
func providerMessage(body []byte) string {
	var wrapped struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Detail.Message != "" {
		return wrapped.Detail.Message
	}
	const maxLen = 200
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return string(body)
}
