package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Engine Engine
	Store  *Store

	// PublicURL is the externally reachable base URL used to build
	// audio_file links, e.g. "http://localhost:8081".
	PublicURL string

	// DefaultVoice is used when a request names no voice.
	DefaultVoice string

	Logger *slog.Logger
}

// Service synthesizes text into stored audio files.
type Service struct {
	engine       Engine
	store        *Store
	publicURL    string
	defaultVoice string
	logger       *slog.Logger
}

// NewService creates a synthesis service. A nil engine is allowed; every
// Synthesize call then fails with ErrNoEngine while downloads keep working.
func NewService(cfg ServiceConfig) *Service {
	voice := cfg.DefaultVoice
	if voice == "" {
		voice = VoiceNamMinh
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		engine:       cfg.Engine,
		store:        cfg.Store,
		publicURL:    strings.TrimRight(cfg.PublicURL, "/"),
		defaultVoice: voice,
		logger:       logger,
	}
}

// Store returns the audio store backing the service.
func (s *Service) Store() *Store {
	return s.store
}

// Synthesize speaks text with voice and stores the audio.
func (s *Service) Synthesize(ctx context.Context, text, voice string) (*Result, error) {
	if s.engine == nil {
		return nil, ErrNoEngine
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	resolved := ResolveVoice(voice, s.defaultVoice)

	audio, err := s.engine.Synthesize(ctx, text, resolved)
	if err != nil {
		return nil, err
	}
	defer audio.Close()

	name, err := s.store.Save(audio)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("synthesized audio",
		"voice", resolved,
		"file", name,
		"chars", len([]rune(text)),
	)

	return &Result{
		Text:      text,
		Voice:     resolved,
		AudioFile: fmt.Sprintf("%s/download/%s", s.publicURL, name),
	}, nil
}
