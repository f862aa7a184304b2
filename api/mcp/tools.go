package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vmentor/vmentor/pkg/storage"
)

const (
	renderToolName    = "render_markdown"
	renderDescription = "Render chat markdown (headings, lists, bold, italic, links, inline code and fenced code blocks) to the HTML shown in the vmentor chat widget. Raw HTML in the input is escaped."

	listTranscriptsToolName    = "list_transcripts"
	listTranscriptsDescription = "List recent question and reply transcripts recorded by the vmentor proxy, newest first. Optionally filter by user ID."

	defaultTranscriptLimit = 20
	maxTranscriptLimit     = 200
)

// RenderInput is the input of the render_markdown tool.
type RenderInput struct {
	Text string `json:"text" jsonschema:"the markdown text to render"`
}

// RenderOutput is the output of the render_markdown tool.
type RenderOutput struct {
	HTML string `json:"html" jsonschema:"the rendered HTML fragment"`
}

// ListTranscriptsInput is the input of the list_transcripts tool.
type ListTranscriptsInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"only return transcripts of this user"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of transcripts to return (default 20, max 200)"`
}

// TranscriptSummary is a transcript as reported to agents.
type TranscriptSummary struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Prompt     string `json:"prompt"`
	Reply      string `json:"reply"`
	Streaming  bool   `json:"streaming"`
	HTTPStatus int    `json:"http_status"`
	CreatedAt  string `json:"created_at"`
	DurationMs int64  `json:"duration_ms"`
}

// ListTranscriptsOutput is the output of the list_transcripts tool.
type ListTranscriptsOutput struct {
	Count       int                 `json:"count"`
	Transcripts []TranscriptSummary `json:"transcripts"`
}

func (s *Server) handleRender(_ context.Context, _ *mcp.CallToolRequest, input RenderInput) (*mcp.CallToolResult, RenderOutput, error) {
	return nil, RenderOutput{HTML: s.renderer.Render(input.Text)}, nil
}

func (s *Server) handleListTranscripts(ctx context.Context, _ *mcp.CallToolRequest, input ListTranscriptsInput) (*mcp.CallToolResult, ListTranscriptsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	if limit > maxTranscriptLimit {
		limit = maxTranscriptLimit
	}

	transcripts, err := s.config.Driver.List(ctx, storage.Filter{
		UserID: input.UserID,
		Limit:  limit,
	})
	if err != nil {
		s.config.Logger.Error("listing transcripts failed", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to list transcripts: %v", err)},
			},
		}, ListTranscriptsOutput{}, nil
	}

	out := ListTranscriptsOutput{
		Count:       len(transcripts),
		Transcripts: make([]TranscriptSummary, 0, len(transcripts)),
	}
	for _, t := range transcripts {
		out.Transcripts = append(out.Transcripts, TranscriptSummary{
			ID:         t.ID,
			UserID:     t.UserID,
			Prompt:     t.Prompt,
			Reply:      t.Reply,
			Streaming:  t.Streaming,
			HTTPStatus: t.HTTPStatus,
			CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
			DurationMs: t.DurationMs,
		})
	}

	return nil, out, nil
}
