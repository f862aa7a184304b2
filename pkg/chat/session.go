package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/vmentor/vmentor/pkg/llm"
	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/pkg/sse"
	"github.com/vmentor/vmentor/pkg/tts"
)

// DefaultMaxMessageLength caps a single question, in characters.
const DefaultMaxMessageLength = 4000

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned by Send when the input exceeds the limit.
	ErrMessageTooLong = errors.New("message is too long")
)

// Update is one progressive rendering of a reply.
type Update struct {
	Text string
	HTML string
}

// Reply is the final state of one exchange.
type Reply struct {
	Text string
	HTML string

	// Streamed is set when the reply arrived as an event stream.
	Streamed bool

	// Failed is set when the reply is a synthetic connection error message.
	Failed bool
}

// Speaker speaks a finished reply in voice mode.
type Speaker interface {
	Speak(ctx context.Context, text, voice string) error
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Client       *Client
	UserID       string
	Email        string
	AIID         string
	CollectionID string

	// Language is a BCP 47 tag; it selects the synthesis voice.
	Language string

	// VoiceMode asks for unstreamed replies and speaks them.
	VoiceMode bool
	Speaker   Speaker

	Renderer         *markdown.Renderer
	MaxMessageLength int
	Logger           *slog.Logger
}

// Session is one user's conversation with an assistant. It owns the
// identity fields sent with every question. A Session is not safe for
// concurrent Send calls; independent sessions do not share state.
type Session struct {
	client       *Client
	userID       string
	email        string
	aiID         string
	collectionID string
	language     string
	voiceMode    bool
	speaker      Speaker
	renderer     *markdown.Renderer
	maxLen       int
	logger       *slog.Logger
}

// NewSession creates a session.
func NewSession(cfg SessionConfig) *Session {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = markdown.New()
	}

	maxLen := cfg.MaxMessageLength
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Session{
		client:       cfg.Client,
		userID:       cfg.UserID,
		email:        cfg.Email,
		aiID:         cfg.AIID,
		collectionID: cfg.CollectionID,
		language:     cfg.Language,
		voiceMode:    cfg.VoiceMode,
		speaker:      cfg.Speaker,
		renderer:     renderer,
		maxLen:       maxLen,
		logger:       logger,
	}
}

// UserID returns the resolved user ID, if any.
func (s *Session) UserID() string {
	return s.userID
}

// SetVoiceMode toggles voice mode.
func (s *Session) SetVoiceMode(on bool) {
	s.voiceMode = on
}

// VoiceMode reports whether voice mode is on.
func (s *Session) VoiceMode() bool {
	return s.voiceMode
}

// Start resolves the user ID from the email when it is not known yet and
// returns the collection's greeting.
func (s *Session) Start(ctx context.Context) (string, error) {
	if s.userID == "" {
		if s.email == "" {
			return "", errors.New("either a user id or an email is required")
		}
		id, err := s.client.ResolveUserID(ctx, s.email)
		if err != nil {
			return "", err
		}
		s.userID = id
	}

	if s.collectionID == "" {
		return "", nil
	}

	return s.client.StartText(ctx, s.collectionID, s.userID)
}

// Send asks one question. onUpdate, when non-nil, receives every progressive
// rendering of the reply. Transport and HTTP failures do not return an
// error: they produce a Failed reply carrying a connection error message.
// A cancelled context abandons the reply and returns ctx.Err().
func (s *Session) Send(ctx context.Context, message string, onUpdate func(Update)) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(message); n > s.maxLen {
		return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrMessageTooLong, n, s.maxLen)
	}

	stream := !s.voiceMode
	req := &llm.ChatRequest{
		Messages:     []llm.Message{llm.NewUserMessage(message)},
		AIID:         s.aiID,
		UserID:       s.userID,
		CollectionID: s.collectionID,
		Stream:       &stream,
	}

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.failed(err, onUpdate), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.failed(fmt.Errorf("HTTP error! status: %d", resp.StatusCode), onUpdate), nil
	}

	var reply *Reply
	mediaType, params, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/event-stream" {
		reply, err = s.readStream(ctx, resp.Body, params["charset"], onUpdate)
	} else {
		reply, err = s.readJSON(resp.Body, onUpdate)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.failed(err, onUpdate), nil
	}

	if s.voiceMode && s.speaker != nil && strings.TrimSpace(reply.Text) != "" {
		voice := tts.VoiceForLanguage(s.language)
		if err := s.speaker.Speak(ctx, reply.Text, voice); err != nil {
			s.logger.Warn("speaking reply failed", "voice", voice, "error", err)
		}
	}

	return reply, nil
}

func (s *Session) readStream(ctx context.Context, body io.Reader, charset string, onUpdate func(Update)) (*Reply, error) {
	var html string
	in := sse.NewIngestor(func(text string) {
		html = s.renderer.Render(text)
		if onUpdate != nil {
			onUpdate(Update{Text: text, HTML: html})
		}
	}, sse.WithCharset(charset), sse.WithLogger(s.logger))

	text, err := sse.Pump(ctx, body, in, nil)
	if err != nil {
		return nil, err
	}

	if html == "" && text != "" {
		html = s.renderer.Render(text)
	}

	return &Reply{Text: text, HTML: html, Streamed: true}, nil
}

func (s *Session) readJSON(body io.Reader, onUpdate func(Update)) (*Reply, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading reply: %w", err)
	}

	text := llm.ExtractReply(data)
	html := s.renderer.Render(text)
	if onUpdate != nil {
		onUpdate(Update{Text: text, HTML: html})
	}

	return &Reply{Text: text, HTML: html}, nil
}

func (s *Session) failed(err error, onUpdate func(Update)) *Reply {
	s.logger.Error("chat request failed", "error", err)

	text := "Connection error: " + err.Error()
	html := s.renderer.Render(text)
	if onUpdate != nil {
		onUpdate(Update{Text: text, HTML: html})
	}

	return &Reply{Text: text, HTML: html, Failed: true}
}
