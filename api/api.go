package api

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/vmentor/vmentor/api/mcp"
	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/pkg/storage"
)

// Server is the API server for rendering, transcripts and speech.
type Server struct {
	config   Config
	driver   storage.Driver
	renderer *markdown.Renderer
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The driver is injected to allow sharing with other components
// (e.g., the proxy when not run as a singleton).
func NewServer(config Config, driver storage.Driver, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	renderer := config.Renderer
	if renderer == nil {
		renderer = markdown.New()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// The widget is embedded on third-party pages.
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "*",
	}))

	s := &Server{
		config:   config,
		driver:   driver,
		renderer: renderer,
		logger:   logger,
		app:      app,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Driver:   driver,
		Renderer: renderer,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	app.Get("/ping", s.handlePing)
	app.Post("/api/render", s.handleRender)
	app.Get("/api/transcripts", s.handleListTranscripts)
	app.Get("/api/transcripts/:id", s.handleGetTranscript)
	app.Delete("/api/transcripts/:id", s.handleDeleteTranscript)

	app.Post("/synthesize", s.handleSynthesize)
	app.Get("/download/:filename", s.handleDownload)
	app.Delete("/delete/:filename", s.handleDeleteAudio)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting API server",
		"listen", listener.Addr().String(),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
