package api

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/vmentor/vmentor/pkg/llm"
	"github.com/vmentor/vmentor/pkg/tts"
)

// DeleteAudioResponse is the answer of DELETE /delete/:filename.
type DeleteAudioResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleSynthesize(c *fiber.Ctx) error {
	if s.config.TTS == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: "speech synthesis is not configured"})
	}

	var req tts.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	result, err := s.config.TTS.Synthesize(c.UserContext(), req.Text, req.Voice)
	switch {
	case err == nil:
		return c.JSON(result)
	case errors.Is(err, tts.ErrEmptyText):
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	case errors.Is(err, tts.ErrNoEngine):
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: err.Error()})
	case errors.Is(err, tts.ErrSynthesis):
		s.logger.Error("speech synthesis failed", "voice", req.Voice, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "speech synthesis failed"})
	default:
		s.logger.Error("storing synthesized audio failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}
}

// handleDownload streams a stored mp3. The audio is fetched cross-origin by
// media elements, so it carries its own CORS and resource policy headers.
func (s *Server) handleDownload(c *fiber.Ctx) error {
	if s.config.TTS == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: "speech synthesis is not configured"})
	}

	filename := c.Params("filename")
	f, err := s.config.TTS.Store().Open(filename)
	if err != nil {
		return audioError(c, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "*")
	c.Set(fiber.HeaderAccessControlAllowMethods, "GET")
	c.Set("Cross-Origin-Resource-Policy", "cross-origin")
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "audio/mpeg")

	// fasthttp closes f once the body is sent.
	return c.SendStream(f, int(info.Size()))
}

func (s *Server) handleDeleteAudio(c *fiber.Ctx) error {
	if s.config.TTS == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: "speech synthesis is not configured"})
	}

	filename := c.Params("filename")
	if err := s.config.TTS.Store().Delete(filename); err != nil {
		return audioError(c, err)
	}

	return c.JSON(DeleteAudioResponse{Message: filename + " deleted"})
}

func audioError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, tts.ErrInvalidFilename):
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid filename"})
	case errors.Is(err, os.ErrNotExist):
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "File not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}
}
