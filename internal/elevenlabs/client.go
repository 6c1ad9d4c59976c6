// Package elevenlabs provides an HTTP client for the ElevenLabs
// text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Static errors for ElevenLabs client operations.
var (
	// ErrAPIKeyRequired is returned when no API key is resolved.
	ErrAPIKeyRequired = errors.New("elevenlabs: API key is required")
	// ErrVoiceIDRequired is returned when no voice id is resolved.
	ErrVoiceIDRequired = errors.New("elevenlabs: voice ID is required")
	// ErrEmptyText is returned when the text to synthesize is empty.
	ErrEmptyText = errors.New("elevenlabs: text is empty")
	// ErrRequestFailed is returned when the API responds with a non-2xx status.
	ErrRequestFailed = errors.New("elevenlabs: request failed")
)

// Request contains the parameters for one synthesis call.
// Credentials, model and voice come from the resolved settings.
type Request struct {
	APIKey  string
	ModelID string
	VoiceID string
	Speed   float64
	Text    string
}

// Client defines the interface for speech synthesis.
type Client interface {
	// Synthesize converts text to speech and returns MP3 audio bytes.
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// HTTPClient is the HTTP implementation of the Client interface.
// Calls are single-shot: the generation pipeline aborts on the first
// failure rather than retrying.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the ElevenLabs API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
	}
}

// NewClient creates a new ElevenLabs HTTP client.
func NewClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: "https://api.elevenlabs.io/v1",
		// Synthesis of a full chapter can take a while.
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ttsRequest is the request body for the text-to-speech endpoint.
type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// voiceSettings tunes the synthesized voice.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

// Synthesize converts text to speech and returns MP3 audio bytes.
func (c *HTTPClient) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if req.VoiceID == "" {
		return nil, ErrVoiceIDRequired
	}
	if req.Text == "" {
		return nil, ErrEmptyText
	}

	body := ttsRequest{
		Text:    req.Text,
		ModelID: req.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           req.Speed,
		},
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, req.VoiceID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, errBody)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read response: %w", err)
	}

	return audio, nil
}

// Verify interface implementation at compile time.
var _ Client = (*HTTPClient)(nil)
