// Package proxy relays chat traffic to the upstream chat service and records
// every completed question/reply exchange.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"

	"github.com/vmentor/vmentor/pkg/llm"
	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/pkg/sse"
	"github.com/vmentor/vmentor/pkg/storage"
	"github.com/vmentor/vmentor/proxy/header"
	"github.com/vmentor/vmentor/proxy/worker"
)

const (
	// CompletionsPath is relayed verbatim; replies are recorded.
	CompletionsPath = "/api/chat/completions"

	// RenderPath asks upstream the same question but answers with rendered
	// snapshot frames instead of the raw upstream stream.
	RenderPath = "/api/chat/render"
)

// RenderFrame is the data of one "render" or "done" event on RenderPath.
type RenderFrame struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Proxy is a transparent relay in front of the chat service. It forwards
// requests upstream and enqueues completed turns for async storage via its
// worker pool.
type Proxy struct {
	config        Config
	driver        storage.Driver
	workerPool    *worker.Pool
	logger        *slog.Logger
	httpClient    *http.Client
	server        *fiber.App
	renderer      *markdown.Renderer
	headerHandler *header.Handler
}

// New creates a new Proxy. The driver is injected to handle async
// persistence of chat turns.
func New(config Config, driver storage.Driver, logger *slog.Logger) (*Proxy, error) {
	if config.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required")
	}
	config.UpstreamURL = strings.TrimRight(config.UpstreamURL, "/")

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	renderer := config.Renderer
	if renderer == nil {
		renderer = markdown.New()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StreamRequestBody:     true,
	})
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: config.Publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	p := &Proxy{
		config:        config,
		driver:        driver,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		renderer:      renderer,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			// Answers stream for a long time on large collections
			Timeout: 5 * time.Minute,
		},
	}

	app.Post(CompletionsPath, p.handleCompletions)
	app.Post(RenderPath, p.handleRender)
	app.All("/*", p.handlePassthrough)

	return p, nil
}

// Run starts the proxy server on the given listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting proxy server",
		"listen", p.config.ListenAddr,
		"upstream", p.config.UpstreamURL,
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener starts the proxy server using the provided listener.
func (p *Proxy) RunWithListener(listener net.Listener) error {
	p.logger.Info("starting proxy server",
		"listen", listener.Addr().String(),
		"upstream", p.config.UpstreamURL,
	)

	return p.server.Listener(listener)
}

// Close stops accepting requests, lets in-flight relays finish and drains
// the worker pool.
func (p *Proxy) Close() error {
	err := p.server.Shutdown()
	p.workerPool.Close()
	return err
}

// handleCompletions relays a chat request. Event streams are teed to the
// client chunk by chunk while the reply is accumulated; JSON replies are
// returned as-is.
func (p *Proxy) handleCompletions(c *fiber.Ctx) error {
	startTime := time.Now()
	body := bytes.Clone(c.Body())
	parsedReq := p.parseRequest(body)

	// context.Background() rather than c.Context(): fasthttp recycles the
	// RequestCtx once the handler returns, while the stream goroutine keeps
	// reading the upstream body.
	httpResp, err := p.forward(context.Background(), c, http.MethodPost, c.OriginalURL(), body)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	if httpResp.StatusCode != http.StatusOK || !isEventStream(httpResp) {
		return p.relayBuffered(c, httpResp, parsedReq, startTime)
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	// io.Pipe gives per-chunk backpressure: pw.Write blocks until fasthttp's
	// chunked writer has flushed the previous chunk to the socket.
	pr, pw := io.Pipe()
	go p.teeStream(httpResp, pw, parsedReq, startTime)
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (p *Proxy) relayBuffered(c *fiber.Ctx, httpResp *http.Response, parsedReq *llm.ChatRequest, startTime time.Time) error {
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "failed to read upstream response"})
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	if httpResp.StatusCode == http.StatusOK {
		p.enqueueTurn(CompletionsPath, parsedReq, llm.ExtractReply(respBody), false, httpResp.StatusCode, startTime)
	} else {
		p.logger.Warn("upstream returned error",
			"status", httpResp.StatusCode,
			"body", string(respBody),
		)
	}

	return c.Status(httpResp.StatusCode).Send(respBody)
}

func (p *Proxy) teeStream(httpResp *http.Response, pw *io.PipeWriter, parsedReq *llm.ChatRequest, startTime time.Time) {
	defer httpResp.Body.Close()
	defer pw.Close()

	in := sse.NewIngestor(nil,
		sse.WithCharset(responseCharset(httpResp)),
		sse.WithLogger(p.logger),
	)

	reply, err := sse.Pump(context.Background(), httpResp.Body, in, pw)
	if err != nil {
		p.logger.Error("stream relay abandoned", "error", err)
		pw.CloseWithError(err)
		return
	}

	p.logger.Debug("streaming complete",
		"content_preview", reply,
		"duration", time.Since(startTime),
	)

	p.enqueueTurn(CompletionsPath, parsedReq, reply, true, httpResp.StatusCode, startTime)
}

// handleRender asks upstream and answers with a stream of rendered
// snapshots: one "render" event per update and a final "done" event.
func (p *Proxy) handleRender(c *fiber.Ctx) error {
	startTime := time.Now()
	body := bytes.Clone(c.Body())
	parsedReq := p.parseRequest(body)

	httpResp, err := p.forward(context.Background(), c, http.MethodPost, CompletionsPath, body)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		respBody, _ := io.ReadAll(httpResp.Body)
		p.headerHandler.SetClientResponseHeaders(c, httpResp)
		return c.Status(httpResp.StatusCode).Send(respBody)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	pr, pw := io.Pipe()
	go p.renderStream(httpResp, pw, parsedReq, startTime)
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (p *Proxy) renderStream(httpResp *http.Response, pw *io.PipeWriter, parsedReq *llm.ChatRequest, startTime time.Time) {
	defer httpResp.Body.Close()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fw := &frameWriter{w: pw, onError: cancel}
	streaming := isEventStream(httpResp)

	var (
		reply string
		err   error
	)
	if streaming {
		in := sse.NewIngestor(func(text string) {
			fw.write("render", p.frame(text))
		}, sse.WithCharset(responseCharset(httpResp)), sse.WithLogger(p.logger))

		reply, err = sse.Pump(ctx, httpResp.Body, in, nil)
	} else {
		var data []byte
		data, err = io.ReadAll(httpResp.Body)
		if err == nil {
			reply = llm.ExtractReply(data)
			fw.write("render", p.frame(reply))
		}
	}

	if err == nil {
		err = fw.err
	}
	if err != nil {
		p.logger.Error("render stream abandoned", "error", err)
		pw.CloseWithError(err)
		return
	}

	fw.write("done", p.frame(reply))
	if fw.err != nil {
		p.logger.Error("render stream abandoned", "error", fw.err)
		return
	}

	p.enqueueTurn(RenderPath, parsedReq, reply, streaming, httpResp.StatusCode, startTime)
}

func (p *Proxy) frame(text string) RenderFrame {
	return RenderFrame{Text: text, HTML: p.renderer.Render(text)}
}

// handlePassthrough forwards any other request untouched.
func (p *Proxy) handlePassthrough(c *fiber.Ctx) error {
	httpResp, err := p.forward(c.Context(), c, c.Method(), c.OriginalURL(), c.Body())
	if err != nil {
		p.logger.Error("upstream request failed", "error", err, "path", c.Path())
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "failed to read upstream response"})
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)
	return c.Status(httpResp.StatusCode).Send(respBody)
}

func (p *Proxy) forward(ctx context.Context, c *fiber.Ctx, method, uri string, body []byte) (*http.Response, error) {
	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	upstreamURL := p.config.UpstreamURL + uri
	httpReq, err := http.NewRequestWithContext(ctx, method, upstreamURL, reqBody)
	if err != nil {
		return nil, err
	}

	p.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	p.logger.Debug("forwarding request to upstream",
		"method", method,
		"url", upstreamURL,
	)

	return p.httpClient.Do(httpReq)
}

func (p *Proxy) parseRequest(body []byte) *llm.ChatRequest {
	if len(body) == 0 {
		return nil
	}

	var req llm.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		p.logger.Warn("failed to parse chat request", "error", err)
		return nil
	}

	p.logger.Debug("parsed chat request",
		"user_id", req.UserID,
		"collection_id", req.CollectionID,
		"message_count", len(req.Messages),
		"stream", req.IsStreaming(),
	)

	return &req
}

func (p *Proxy) enqueueTurn(path string, req *llm.ChatRequest, reply string, streaming bool, status int, startTime time.Time) {
	if req == nil {
		return
	}

	p.workerPool.Enqueue(worker.Job{
		Path: path,
		Turn: &llm.Turn{
			Request:    req,
			Reply:      reply,
			Streaming:  streaming,
			HTTPStatus: status,
			StartedAt:  startTime,
			EndedAt:    time.Now(),
		},
	})
}

// frameWriter writes server-sent event frames and remembers the first
// failure; later writes are dropped.
type frameWriter struct {
	w       io.Writer
	err     error
	onError func()
}

func (f *frameWriter) write(event string, v any) {
	if f.err != nil {
		return
	}

	data, err := json.Marshal(v)
	if err == nil {
		_, err = fmt.Fprintf(f.w, "event: %s\ndata: %s\n\n", event, data)
	}
	if err != nil {
		f.err = fmt.Errorf("writing %s frame: %w", event, err)
		if f.onError != nil {
			f.onError()
		}
	}
}

func isEventStream(resp *http.Response) bool {
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return mediaType == "text/event-stream"
}

func responseCharset(resp *http.Response) string {
	_, params, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return params["charset"]
}
