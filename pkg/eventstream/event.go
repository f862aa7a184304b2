package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/vmentor/vmentor/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeReplyCompleted is emitted after a relayed reply is persisted.
	EventTypeReplyCompleted = "vmentor.reply.completed"
)

// ReplyCompletedEvent is a transport-neutral event payload for a finished
// question/reply exchange.
type ReplyCompletedEvent struct {
	SchemaVersion int                `json:"schema_version"`
	EventType     string             `json:"event_type"`
	EventID       string             `json:"event_id"`
	EmittedAt     time.Time          `json:"emitted_at"`
	Source        EventSource        `json:"source"`
	RequestMeta   ReplyRequestMeta   `json:"request_meta"`
	Transcript    storage.Transcript `json:"transcript"`
}

// EventSource identifies who asked and which assistant answered.
type EventSource struct {
	UserID       string `json:"user_id,omitempty"`
	AIID         string `json:"ai_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
}

// ReplyRequestMeta captures request lifecycle metadata for the event.
type ReplyRequestMeta struct {
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	HTTPStatus  int       `json:"http_status"`
}

// NewReplyCompletedEvent builds a v1 event for a persisted transcript. The
// transcript's CreatedAt and DurationMs define the request window.
func NewReplyCompletedEvent(path string, t *storage.Transcript) *ReplyCompletedEvent {
	started := t.CreatedAt
	completed := started.Add(time.Duration(t.DurationMs) * time.Millisecond)

	return &ReplyCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeReplyCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: EventSource{
			UserID:       t.UserID,
			AIID:         t.AIID,
			CollectionID: t.CollectionID,
		},
		RequestMeta: ReplyRequestMeta{
			Path:        path,
			StartedAt:   started,
			CompletedAt: completed,
			DurationMs:  t.DurationMs,
			Streaming:   t.Streaming,
			HTTPStatus:  t.HTTPStatus,
		},
		Transcript: *t,
	}
}
