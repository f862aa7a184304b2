// Package chat is the client side of a vmentor conversation: it resolves the
// caller's identity, sends questions to the chat service and turns streamed
// or JSON replies into rendered text.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmentor/vmentor/pkg/llm"
)

// ErrUnknownUser is returned when the service has no user for an email.
var ErrUnknownUser = errors.New("no user id for email")

// Client talks to the chat service HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL, e.g.
// "https://vmentor-service.emg.edu.vn" or a local proxy.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Streamed answers can take minutes; the context bounds each call.
			Timeout: 5 * time.Minute,
		},
	}
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveUserID looks up the user ID registered for email.
func (c *Client) ResolveUserID(ctx context.Context, email string) (string, error) {
	var body struct {
		UserID string `json:"user_id"`
	}

	endpoint := c.baseURL + "/api/user-id?" + url.Values{"email": {email}}.Encode()
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return "", fmt.Errorf("resolving user id: %w", err)
	}
	if body.UserID == "" {
		return "", fmt.Errorf("%w %q", ErrUnknownUser, email)
	}

	return body.UserID, nil
}

// StartText fetches the greeting a collection opens conversations with.
func (c *Client) StartText(ctx context.Context, collectionID, userID string) (string, error) {
	var body struct {
		StartText string `json:"start_text"`
	}

	endpoint := c.baseURL + "/api/collections/" + url.PathEscape(collectionID) +
		"?" + url.Values{"user_id": {userID}}.Encode()
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return "", fmt.Errorf("fetching start text: %w", err)
	}

	return body.StartText, nil
}

// Complete posts a chat request and returns the raw response. The caller
// must close the body.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IsStreaming() {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	return c.httpClient.Do(httpReq)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
