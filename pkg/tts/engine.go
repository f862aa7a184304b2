package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Engine turns text into mp3 audio.
type Engine interface {
	Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error)
}

// HTTPEngine calls an external synthesis server that accepts {text, voice}
// and answers with the audio bytes.
type HTTPEngine struct {
	url        string
	httpClient *http.Client
}

// NewHTTPEngine creates an engine posting to url.
func NewHTTPEngine(url string) *HTTPEngine {
	return &HTTPEngine{
		url: url,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Synthesize returns the audio stream. The caller closes it.
func (e *HTTPEngine) Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	jsonBody, err := json.Marshal(Request{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrSynthesis, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrSynthesis, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", ErrSynthesis, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: engine returned status %d: %s", ErrSynthesis, resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

var _ Engine = (*HTTPEngine)(nil)
