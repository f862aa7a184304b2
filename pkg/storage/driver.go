// Package storage persists chat transcripts relayed by the proxy.
package storage

import (
	"context"
	"time"
)

// Transcript is one completed question/reply exchange.
type Transcript struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AIID         string    `json:"ai_id"`
	CollectionID string    `json:"collection_id"`
	Prompt       string    `json:"prompt"`
	Reply        string    `json:"reply"`
	Streaming    bool      `json:"streaming"`
	HTTPStatus   int       `json:"http_status"`
	CreatedAt    time.Time `json:"created_at"`
	DurationMs   int64     `json:"duration_ms"`
}

// Filter narrows List. Zero values match everything; a Limit of 0 means no
// limit.
type Filter struct {
	UserID string
	Limit  int
}

// Driver defines the interface for persisting and retrieving transcripts.
type Driver interface {
	// Put stores a transcript. Storing an ID twice replaces the first copy.
	Put(ctx context.Context, t *Transcript) error

	// Get retrieves a transcript by ID. Returns NotFoundError when missing.
	Get(ctx context.Context, id string) (*Transcript, error)

	// Delete removes a transcript. Returns NotFoundError when missing.
	Delete(ctx context.Context, id string) error

	// List returns matching transcripts, newest first.
	List(ctx context.Context, f Filter) ([]*Transcript, error)

	// Close closes the store and releases any resources.
	Close() error
}
