// Package mcp provides an MCP (Model Context Protocol) server exposing
// vmentor's markdown renderer and stored transcripts to agents.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/pkg/storage"
	"github.com/vmentor/vmentor/pkg/utils"
)

type Config struct {
	// Driver lists stored transcripts
	Driver storage.Driver

	// Renderer for the render_markdown tool. Defaults to markdown.New().
	Renderer *markdown.Renderer

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	renderer  *markdown.Renderer
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the render and transcript tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config:   c,
		renderer: c.Renderer,
	}
	if s.renderer == nil {
		s.renderer = markdown.New()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "vmentor",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Driver == nil {
			return nil, errors.New("storage driver is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        renderToolName,
			Description: renderDescription,
		}, s.handleRender)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        listTranscriptsToolName,
			Description: listTranscriptsDescription,
		}, s.handleListTranscripts)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
