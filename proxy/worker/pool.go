// Package worker provides an asynchronous worker pool for persisting relayed
// chat turns using the provided storage.Driver and announcing them on the
// provided eventstream.Publisher.
//
// The pool decouples storage operations from the proxy's HTTP hot path so that the
// client-proxy-upstream interaction is fully transparent.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmentor/vmentor/pkg/eventstream"
	"github.com/vmentor/vmentor/pkg/llm"
	"github.com/vmentor/vmentor/pkg/storage"
	"github.com/vmentor/vmentor/pkg/utils"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Path is the request path the turn was relayed on.
	Path string
	Turn *llm.Turn
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting transcripts.
	Driver storage.Driver

	// Publisher is the optional event stream for persisted replies.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Turn == nil || job.Turn.Request == nil {
		p.logger.Warn("job not queued, missing turn", "path", job.Path)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"path", job.Path,
			"user_id", job.Turn.Request.UserID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"path", job.Path,
			"user_id", job.Turn.Request.UserID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the proxy HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", "worker_id", id)
}

// processJob stores the turn as a transcript, then publishes it. Publish
// failures are logged; the transcript stays stored.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	t := NewTranscript(job.Turn)
	if err := p.config.Driver.Put(ctx, t); err != nil {
		p.logger.Error("async transcript storage failed",
			"path", job.Path,
			"error", err,
		)
		return
	}

	p.logger.Info("transcript stored",
		"id", t.ID,
		"user_id", t.UserID,
		"streaming", t.Streaming,
		"reply_preview", utils.Truncate(t.Reply, 80),
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewReplyCompletedEvent(job.Path, t)
	if err := p.config.Publisher.PublishReply(ctx, event); err != nil {
		p.logger.Warn("failed to publish reply event",
			"id", t.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("published reply event", "event_id", event.EventID)
}

// NewTranscript converts a relayed turn into a storable transcript with a
// fresh ID.
func NewTranscript(turn *llm.Turn) *storage.Transcript {
	started := turn.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	return &storage.Transcript{
		ID:           uuid.NewString(),
		UserID:       turn.Request.UserID,
		AIID:         turn.Request.AIID,
		CollectionID: turn.Request.CollectionID,
		Prompt:       turn.Request.LastUserMessage(),
		Reply:        turn.Reply,
		Streaming:    turn.Streaming,
		HTTPStatus:   turn.HTTPStatus,
		CreatedAt:    started.UTC(),
		DurationMs:   turn.Duration().Milliseconds(),
	}
}
