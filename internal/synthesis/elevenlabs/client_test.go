package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readaloudapp/readaloud-server/internal/config"
	"github.com/readaloudapp/readaloud-server/internal/errors"
	"github.com/readaloudapp/readaloud-server/internal/synthesis"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(config.SynthesisConfig{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		ModelID:           "eleven_multilingual_v2",
		OutputFormat:      "mp3_44100_128",
		RequestTimeout:    5 * time.Second,
		RequestsPerSecond: 100,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSynthesize_Success(t *testing.T) {
	audio := []byte("fake mpeg bytes")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/voice-a/with-timestamps", r.URL.Path)
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req synthesizeRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "Hello world.", req.Text)
		assert.Equal(t, "eleven_multilingual_v2", req.ModelID)

		w.Header().Set("Content-Type", "application/json")
		json.MarshalWrite(w, map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString(audio),
			"alignment": map[string]any{
				"characters":                    []string{"h", "i"},
				"character_start_times_seconds": []float64{0, 0.1},
				"character_end_times_seconds":   []float64{0.1, 0.2},
			},
		})
	})

	result, err := client.Synthesize(context.Background(), synthesis.Request{
		Text:    "Hello world.",
		VoiceID: "voice-a",
	})
	require.NoError(t, err)

	assert.Equal(t, audio, result.Audio)
	require.NotNil(t, result.Alignment)
	assert.Equal(t, []string{"h", "i"}, result.Alignment.Characters)
}

func TestSynthesize_MissingAlignmentIsValid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.MarshalWrite(w, map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte{0x01}),
		})
	})

	result, err := client.Synthesize(context.Background(), synthesis.Request{Text: "x", VoiceID: "v"})
	require.NoError(t, err)
	assert.Nil(t, result.Alignment)
}

func TestSynthesize_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":{"status":"rate_limited","message":"too many requests"}}`))
	})

	_, err := client.Synthesize(context.Background(), synthesis.Request{Text: "x", VoiceID: "v"})
	require.Error(t, err)

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, errors.CodeSynthesisProvider, domainErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, domainErr.UpstreamStatus)
	assert.Contains(t, domainErr.Message, "too many requests")
}

func TestSynthesize_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "this is not json"},
		{"missing audio", `{"alignment":null}`},
		{"empty audio", `{"audio_base64":""}`},
		{"invalid base64", `{"audio_base64":"!!!not-base64!!!"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := client.Synthesize(context.Background(), synthesis.Request{Text: "x", VoiceID: "v"})
			assert.True(t, errors.Is(err, errors.ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestSynthesize_Timeout(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client going away;
		// otherwise the request context never fires and Close hangs.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	})
	client.http.Timeout = 50 * time.Millisecond

	_, err := client.Synthesize(context.Background(), synthesis.Request{Text: "x", VoiceID: "v"})
	<-started
	assert.True(t, errors.Is(err, errors.ErrSynthesisTimeout), "got %v", err)
}

func TestSynthesize_CancellationPassesThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Synthesize(ctx, synthesis.Request{Text: "x", VoiceID: "v"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesize_NoAPIKey(t *testing.T) {
	client := New(config.SynthesisConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Synthesize(context.Background(), synthesis.Request{Text: "x", VoiceID: "v"})
	assert.True(t, errors.Is(err, errors.ErrSynthesisProvider))
}

func TestSynthesize_DeadlineBecomesTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Synthesize(ctx, synthesis.Request{Text: "x", VoiceID: "v"})
	assert.True(t, errors.Is(err, errors.ErrSynthesisTimeout), "got %v", err)
}
