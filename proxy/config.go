package proxy

import (
	"github.com/vmentor/vmentor/pkg/eventstream"
	"github.com/vmentor/vmentor/pkg/markdown"
)

// Config is the proxy server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UpstreamURL is the chat service base URL
	// (e.g., "https://vmentor-service.emg.edu.vn")
	UpstreamURL string

	// Publisher receives an event for every persisted reply. Optional.
	Publisher eventstream.Publisher

	// Renderer renders snapshots for the render endpoint. Defaults to
	// markdown.New().
	Renderer *markdown.Renderer
}
