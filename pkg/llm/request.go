package llm

// ChatRequest is the body of POST /api/chat/completions on the upstream chat
// service. The identity fields select the assistant persona, the calling user
// and the knowledge collection answering the question.
type ChatRequest struct {
	// Conversation messages; the widget always sends a single user message.
	Messages []Message `json:"messages"`

	AIID         string `json:"ai_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`

	// Whether to stream the response as server-sent events. Nil leaves the
	// choice to the upstream.
	Stream *bool `json:"stream,omitempty"`
}

// IsStreaming reports whether the request asked for a streamed response.
func (r *ChatRequest) IsStreaming() bool {
	return r.Stream != nil && *r.Stream
}

// LastUserMessage returns the content of the most recent user message, or ""
// when there is none.
func (r *ChatRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}
