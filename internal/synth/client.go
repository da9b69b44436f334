// Package synth is the client for the external text-to-speech provider.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/version"
)

const (
	// DefaultBaseURL is the ElevenLabs API.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultModel supports the languages offered in the app (en, ur, hi, ar).
	DefaultModel = "eleven_multilingual_v2"

	// maxAudioBytes bounds a single synthesized clip.
	maxAudioBytes = 50 << 20
)

var (
	ErrEmptyAudio    = errors.New("synthesis returned no audio")
	ErrNotConfigured = errors.New("synthesis provider not configured")
)

// Synthesizer produces speech audio and clones voices.
type Synthesizer interface {
	GenerateSpeech(ctx context.Context, externalVoiceID, text, language string) ([]byte, error)
	CloneVoice(ctx context.Context, name string, sample Sample) (string, error)
	DeleteVoice(ctx context.Context, externalVoiceID string) error
}

// Sample is an uploaded voice recording.
type Sample struct {
	Filename    string
	ContentType string
	Data        []byte
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("synthesis API error (status %d): %s", e.StatusCode, e.Body)
}

// Client talks to an ElevenLabs-compatible API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel selects the synthesis model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// NewClient creates a synthesis client. The overall request deadline comes
// from the caller's context.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		userAgent:  version.Get().UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type speechRequest struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id"`
	LanguageCode string `json:"language_code,omitempty"`
}

// GenerateSpeech returns MP3 audio for text spoken by externalVoiceID.
func (c *Client) GenerateSpeech(ctx context.Context, externalVoiceID, text, language string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(speechRequest{Text: text, ModelID: c.model, LanguageCode: language})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=mp3_44100_128", c.baseURL, url.PathEscape(externalVoiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	audio, err := c.do(req, maxAudioBytes)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}

// CloneVoice uploads sample and returns the provider's voice ID.
func (c *Client) CloneVoice(ctx context.Context, name string, sample Sample) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", name); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("files", sample.Filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(sample.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/voices/add", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	respBody, err := c.do(req, 1<<20)
	if err != nil {
		return "", err
	}

	var result struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if result.VoiceID == "" {
		return "", fmt.Errorf("clone response missing voice_id")
	}
	return result.VoiceID, nil
}

// DeleteVoice removes a cloned voice at the provider. Missing voices are not an error.
func (c *Client) DeleteVoice(ctx context.Context, externalVoiceID string) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/voices/"+url.PathEscape(externalVoiceID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	_, err = c.do(req, 1<<20)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: msg}
	}
	return body, nil
}
