package sse

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrSessionEnded is returned by Feed and End once End has been called.
var ErrSessionEnded = errors.New("sse: ingestion session has ended")

// Sink receives the full accumulated text after every non-empty delta.
type Sink func(text string)

// Ingestor reassembles a chunked data feed into accumulated reply text.
//
// An Ingestor is one streaming session: it owns its line buffer and
// accumulated text and must not be shared between responses. It is not safe
// for concurrent use; Feed calls are expected to come from a single read loop.
//
// ┌───────────┐   ┌─────────┐   ┌─────────────┐   ┌──────────────────┐
// │ raw chunk │──▶│ decoder │──▶│ line buffer │──▶│ ParseLine/Delta  │
// └───────────┘   └─────────┘   └─────────────┘   └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ Sink(accumulated)│
// └──────────────────┘
type Ingestor struct {
	sink    Sink
	decoder *textDecoder
	logger  *slog.Logger

	buf  string
	text strings.Builder

	done  bool
	ended bool
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*ingestorConfig)

type ingestorConfig struct {
	charset string
	logger  *slog.Logger
}

// WithCharset sets the WHATWG encoding label of the feed. Defaults to utf-8.
// Unknown labels fall back to utf-8.
func WithCharset(label string) IngestorOption {
	return func(c *ingestorConfig) {
		c.charset = label
	}
}

// WithLogger sets the logger used for non-fatal parse failures.
func WithLogger(logger *slog.Logger) IngestorOption {
	return func(c *ingestorConfig) {
		c.logger = logger
	}
}

// NewIngestor creates a session that reports accumulated text to sink.
// A nil sink is allowed; the text is then only available via Text and End.
func NewIngestor(sink Sink, opts ...IngestorOption) *Ingestor {
	cfg := &ingestorConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dec, err := newTextDecoder(cfg.charset)
	if err != nil {
		logger.Warn("falling back to utf-8", "charset", cfg.charset, "error", err)
		dec, _ = newTextDecoder("utf-8")
	}

	return &Ingestor{
		sink:    sink,
		decoder: dec,
		logger:  logger,
	}
}

// Feed decodes chunk and processes every line it completes. The trailing
// incomplete line, if any, is kept for the next call.
func (in *Ingestor) Feed(chunk []byte) error {
	if in.ended {
		return ErrSessionEnded
	}

	in.buf += in.decoder.decode(chunk, false)

	lines := strings.Split(in.buf, "\n")
	in.buf = lines[len(lines)-1]

	for _, line := range lines[:len(lines)-1] {
		if !in.processLine(line) {
			break
		}
	}

	return nil
}

// End flushes the decoder, processes a final unterminated line and closes
// the session. It returns the accumulated text.
func (in *Ingestor) End() (string, error) {
	if in.ended {
		return in.text.String(), ErrSessionEnded
	}

	tail := in.buf + in.decoder.decode(nil, true)
	in.buf = ""

	for _, line := range strings.Split(tail, "\n") {
		if !in.processLine(line) {
			break
		}
	}

	in.ended = true
	return in.text.String(), nil
}

// Text returns the text accumulated so far.
func (in *Ingestor) Text() string {
	return in.text.String()
}

// Done reports whether a sentinel line has been seen.
func (in *Ingestor) Done() bool {
	return in.done
}

// processLine handles a single complete line. It returns false when the rest
// of the current chunk must be skipped.
func (in *Ingestor) processLine(line string) bool {
	env := ParseLine(line)

	switch env.Kind {
	case LineSentinel:
		in.done = true
		return false

	case LineData:
		delta, err := ExtractDelta(env.Payload)
		if err != nil {
			in.logger.Debug("data payload is not a JSON record", "error", err)
		}
		if delta == "" {
			return true
		}

		in.text.WriteString(delta)
		if in.sink != nil {
			in.sink(in.text.String())
		}
	}

	return true
}
