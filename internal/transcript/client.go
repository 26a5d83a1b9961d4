// Package transcript implements the transcript-acquisition collaborator: a
// REST client to an extraction service that turns a video URL into flat
// text plus a duration estimate for the size policy.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"clipchat/internal/domain"
)

// Config configures the transcript service client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches transcripts over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the transcript for sourceID (a video URL).
func (c *Client) Fetch(ctx context.Context, sourceID string) (domain.Transcript, error) {
	endpoint := fmt.Sprintf("%s/transcript?url=%s", c.baseURL, url.QueryEscape(sourceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Transcript{}, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Transcript{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Transcript{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Transcript{}, fmt.Errorf("transcript service failed, code %d, body %s", resp.StatusCode, payload)
	}
	var out struct {
		Transcript      string  `json:"transcript"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return domain.Transcript{}, fmt.Errorf("transcript service returned malformed body: %w", err)
	}
	return domain.Transcript{
		Text:     out.Transcript,
		Duration: time.Duration(out.DurationSeconds * float64(time.Second)),
	}, nil
}
