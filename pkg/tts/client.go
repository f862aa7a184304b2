package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Client talks to a running synthesis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Synthesize asks the service to speak text.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (*Result, error) {
	jsonBody, err := json.Marshal(Request{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("marshaling synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize/", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending synthesize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesize returned status %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding synthesize response: %w", err)
	}

	return &result, nil
}

// Delete removes the audio behind an audio_file URL. Only the last path
// segment of the URL is used.
func (c *Client) Delete(ctx context.Context, audioURL string) error {
	name := path.Base(audioURL)
	if u, err := url.Parse(audioURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, audioURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/delete/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("creating delete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete %s returned status %d", name, resp.StatusCode)
	}

	return nil
}
