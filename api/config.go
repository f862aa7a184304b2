// Package api provides the vmentor HTTP API: markdown rendering, stored
// transcripts, speech synthesis and an MCP endpoint.
package api

import (
	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/pkg/tts"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// TTS serves /synthesize/, /download and /delete. When nil those
	// routes answer 503.
	TTS *tts.Service

	// Renderer renders markdown for /api/render and the MCP tool.
	// Defaults to markdown.New().
	Renderer *markdown.Renderer
}
