package llm

// Message represents a single message in a conversation with the upstream
// chat service.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// NewUserMessage creates a message with the "user" role.
func NewUserMessage(text string) Message {
	return Message{Role: "user", Content: text}
}
