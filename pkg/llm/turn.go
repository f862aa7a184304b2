package llm

import "time"

// Turn is one completed request/reply exchange relayed to the upstream chat
// service.
type Turn struct {
	Request *ChatRequest `json:"request"`

	// Reply is the assistant text: the accumulated deltas of a streamed
	// response, or the extracted reply of a JSON one.
	Reply string `json:"reply"`

	Streaming  bool      `json:"streaming"`
	HTTPStatus int       `json:"http_status"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// Duration returns how long the exchange took.
func (t *Turn) Duration() time.Duration {
	return t.EndedAt.Sub(t.StartedAt)
}
