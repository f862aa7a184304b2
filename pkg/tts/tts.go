// Package tts synthesizes spoken replies. The service side turns text into
// mp3 files served from an output directory; the client side asks a running
// service for audio, plays it and deletes it again.
package tts

import "errors"

var (
	// ErrSynthesis wraps failures talking to a synthesis engine.
	ErrSynthesis = errors.New("speech synthesis failed")

	// ErrEmptyText is returned when asked to speak blank text.
	ErrEmptyText = errors.New("text to synthesize is empty")

	// ErrNoEngine is returned when no synthesis engine is configured.
	ErrNoEngine = errors.New("no speech synthesis engine configured")
)

// Result is the body of a successful POST /synthesize/.
type Result struct {
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	AudioFile string `json:"audio_file"`
}

// Request is the body of POST /synthesize/.
type Request struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}
