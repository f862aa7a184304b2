package eventstream

import "context"

// Publisher publishes reply events to an event stream backend.
type Publisher interface {
	PublishReply(ctx context.Context, event *ReplyCompletedEvent) error
	Close() error
}
