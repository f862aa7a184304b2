package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Player plays audio located at a URL and returns once playback ends.
type Player interface {
	Play(ctx context.Context, audioURL string) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, audioURL string) error

// Play calls f.
func (f PlayerFunc) Play(ctx context.Context, audioURL string) error {
	return f(ctx, audioURL)
}

// Speaker synthesizes a reply, plays it and deletes the audio file.
type Speaker struct {
	client *Client
	player Player
	logger *slog.Logger
}

// NewSpeaker creates a speaker. A nil player skips playback; the file is
// still synthesized and cleaned up.
func NewSpeaker(client *Client, player Player, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Speaker{client: client, player: player, logger: logger}
}

// Speak runs one synthesize, play, delete cycle. Blank text is a no-op.
// Deletion runs even when playback fails.
func (s *Speaker) Speak(ctx context.Context, text, voice string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	result, err := s.client.Synthesize(ctx, text, voice)
	if err != nil {
		return err
	}

	var playErr error
	if s.player != nil {
		playErr = s.player.Play(ctx, result.AudioFile)
		if playErr != nil {
			playErr = fmt.Errorf("playing %s: %w", result.AudioFile, playErr)
		}
	}

	if err := s.client.Delete(ctx, result.AudioFile); err != nil {
		s.logger.Warn("could not delete synthesized audio", "audio_file", result.AudioFile, "error", err)
	}

	return playErr
}
