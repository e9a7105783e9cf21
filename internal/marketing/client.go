// Package marketing generates promotional copy for catalog products through
// the Gemini text-generation API.
package marketing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the Gemini REST API.
const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-2.5-flash"
)

var (
	// ErrExternalService wraps every failure of the text-generation service.
	ErrExternalService = errors.New("marketing: text generation failed")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = fmt.Errorf("%w: api key not configured", ErrExternalService)
)

// ClientConfig configures the Gemini client.
type ClientConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// Client wraps the generateContent endpoint.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a client. An empty API key yields a client whose
// Generate always fails with ErrNotConfigured.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		model:    cfg.Model,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate sends prompt to the model and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	payload, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: status %d: decode: %v", ErrExternalService, resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 {
		if decoded.Error != nil {
			return "", fmt.Errorf("%w: status %d: %s", ErrExternalService, resp.StatusCode, decoded.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d", ErrExternalService, resp.StatusCode)
	}

	var text strings.Builder
	for _, candidate := range decoded.Candidates {
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty response", ErrExternalService)
	}
	return out, nil
}
