package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vmentor/vmentor/pkg/llm"
	"github.com/vmentor/vmentor/pkg/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	Text string `json:"text"`
}

// RenderResponse is the answer of POST /api/render.
type RenderResponse struct {
	HTML string `json:"html"`
}

// TranscriptList is the answer of GET /api/transcripts.
type TranscriptList struct {
	Count       int                   `json:"count"`
	Transcripts []*storage.Transcript `json:"transcripts"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleRender(c *fiber.Ctx) error {
	var req RenderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	return c.JSON(RenderResponse{HTML: s.renderer.Render(req.Text)})
}

func (s *Server) handleListTranscripts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "limit must be between 1 and 500"})
	}

	transcripts, err := s.driver.List(c.Context(), storage.Filter{
		UserID: c.Query("user_id"),
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error("failed to list transcripts", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list transcripts"})
	}
	if transcripts == nil {
		transcripts = []*storage.Transcript{}
	}

	return c.JSON(TranscriptList{Count: len(transcripts), Transcripts: transcripts})
}

func (s *Server) handleGetTranscript(c *fiber.Ctx) error {
	t, err := s.driver.Get(c.Context(), c.Params("id"))
	if err != nil {
		return s.transcriptError(c, err)
	}

	return c.JSON(t)
}

func (s *Server) handleDeleteTranscript(c *fiber.Ctx) error {
	if err := s.driver.Delete(c.Context(), c.Params("id")); err != nil {
		return s.transcriptError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) transcriptError(c *fiber.Ctx, err error) error {
	if storage.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "transcript not found"})
	}

	s.logger.Error("transcript lookup failed", "id", c.Params("id"), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
}
