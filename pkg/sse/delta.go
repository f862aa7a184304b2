package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a data payload that looked like a JSON record but could
// not be decoded. It is never fatal to a stream.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing data payload %q: %v", e.Payload, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractDelta returns the text delta carried by a data payload.
//
// Payloads starting with "{" are decoded as JSON records and probed, in order,
// for choices[0].delta.content, answer and content; the first non-empty string
// wins and a record with none of them yields "". Any other payload, or a record
// that fails to decode, is used verbatim unless it contains "data:", which
// marks a mis-split fragment of the feed rather than content.
//
// A non-nil error is always a *ParseError. The returned delta is still valid
// in that case: it is the plain-text fallback.
func ExtractDelta(payload string) (string, error) {
	if strings.HasPrefix(payload, "{") {
		var record map[string]any
		err := json.Unmarshal([]byte(payload), &record)
		if err == nil {
			return probeRecord(record), nil
		}

		return plainDelta(payload), &ParseError{Payload: payload, Err: err}
	}

	return plainDelta(payload), nil
}

func plainDelta(payload string) string {
	if strings.TrimSpace(payload) == "" {
		return ""
	}
	if strings.Contains(payload, "data:") {
		return ""
	}
	return payload
}

// probeRecord walks the recognized content fields of a decoded record.
func probeRecord(record map[string]any) string {
	// OpenAI style: choices[0].delta.content
	if choices, ok := record["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if delta, ok := choice["delta"].(map[string]any); ok {
				if c, ok := delta["content"].(string); ok && c != "" {
					return c
				}
			}
		}
	}

	for _, key := range []string{"answer", "content"} {
		if c, ok := record[key].(string); ok && c != "" {
			return c
		}
	}

	return ""
}
