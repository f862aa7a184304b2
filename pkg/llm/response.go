package llm

import (
	"encoding/json"
	"strings"
)

// ErrorResponse is the JSON error body returned by the proxy and API servers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExtractReply returns the reply text of a non-streaming chat response body.
//
// The body is probed, in order, for answer, choices[0].message.content,
// content and output; the first non-empty string wins. Bodies that are not a
// JSON object, or carry none of the fields, are returned as raw text.
func ExtractReply(body []byte) string {
	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		return strings.TrimSpace(string(body))
	}

	if s, ok := record["answer"].(string); ok && s != "" {
		return s
	}

	if choices, ok := record["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if msg, ok := choice["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok && s != "" {
					return s
				}
			}
		}
	}

	for _, key := range []string{"content", "output"} {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}

	return strings.TrimSpace(string(body))
}
