package header

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SetUpstreamRequestHeaders", func() {
	var (
		app *fiber.App
		hh  *Handler
		got http.Header
	)

	BeforeEach(func() {
		app = fiber.New()
		hh = NewHandler()
		got = nil

		app.Post("/api/chat/completions", func(c *fiber.Ctx) error {
			req, _ := http.NewRequest(http.MethodPost, "http://upstream/api/chat/completions", nil)
			hh.SetUpstreamRequestHeaders(c, req)
			got = req.Header
			return c.SendStatus(fiber.StatusOK)
		})
	})

	AfterEach(func() {
		_ = app.Shutdown()
	})

	send := func(headers map[string]string) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/completions", strings.NewReader(`{"messages":[]}`))
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
	}

	It("forwards end-to-end headers to the upstream request", func() {
		send(map[string]string{
			"Authorization": "Bearer token123",
			"Content-Type":  "application/json",
			"Accept":        "text/event-stream",
			"Origin":        "https://vmentor.emg.edu.vn",
		})

		Expect(got.Get("Authorization")).To(Equal("Bearer token123"))
		Expect(got.Get("Content-Type")).To(Equal("application/json"))
		Expect(got.Get("Accept")).To(Equal("text/event-stream"))
		Expect(got.Get("Origin")).To(Equal("https://vmentor.emg.edu.vn"))
	})

	DescribeTable("drops headers owned by a single leg",
		func(name, value string) {
			send(map[string]string{name: value, "Authorization": "Bearer t"})
			Expect(got.Get(name)).To(BeEmpty())
			Expect(got.Get("Authorization")).To(Equal("Bearer t"))
		},
		Entry("Connection", "Connection", "keep-alive"),
		Entry("Keep-Alive", "Keep-Alive", "timeout=5"),
		Entry("Accept-Encoding", "Accept-Encoding", "gzip, deflate, br"),
	)

	It("drops the Host and Content-Length headers", func() {
		send(nil)
		Expect(got.Get("Host")).To(BeEmpty())
		Expect(got.Get("Content-Length")).To(BeEmpty())
	})
})

var _ = Describe("SetClientResponseHeaders", func() {
	var (
		app *fiber.App
		hh  *Handler
	)

	BeforeEach(func() {
		app = fiber.New()
		hh = NewHandler()
	})

	AfterEach(func() {
		_ = app.Shutdown()
	})

	respond := func(upstream http.Header) *http.Response {
		app.Get("/test", func(c *fiber.Ctx) error {
			hh.SetClientResponseHeaders(c, &http.Response{Header: upstream})
			return c.SendString("ok")
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return resp
	}

	It("forwards end-to-end upstream headers to the client", func() {
		resp := respond(http.Header{
			"Content-Type":  {"text/event-stream; charset=utf-8"},
			"Cache-Control": {"no-cache"},
			"X-Request-Id":  {"abc-123"},
		})

		Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream; charset=utf-8"))
		Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
		Expect(resp.Header.Get("X-Request-Id")).To(Equal("abc-123"))
	})

	It("drops hop-by-hop and encoding headers", func() {
		resp := respond(http.Header{
			"Connection":       {"keep-alive"},
			"Keep-Alive":       {"timeout=5"},
			"Content-Encoding": {"gzip"},
		})

		Expect(resp.Header.Get("Keep-Alive")).To(BeEmpty())
		Expect(resp.Header.Get("Content-Encoding")).To(BeEmpty())
	})

	It("does not copy the upstream Content-Length", func() {
		resp := respond(http.Header{"Content-Length": {"99999"}})
		Expect(resp.Header.Get("Content-Length")).To(Equal("2"))
	})

	It("joins multi-value headers with commas", func() {
		resp := respond(http.Header{"Vary": {"Origin", "Accept-Encoding"}})
		Expect(resp.Header.Get("Vary")).To(Equal("Origin, Accept-Encoding"))
	})
})
