// Package header provides header filtering for the vmentor proxy.
//
// This proxy sits between a chat client and the upstream chat service like so:
//
//	Client <--> Proxy <--> Upstream chat service
//
// and headers are handled accordingly as each leg negotiates compression, hops,
// encoding, etc. independently.
package header

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler manages headers between proxy connections.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// skipRequest is the set of request headers (client --> proxy --> upstream)
// that are not forwarded to the upstream service.
var skipRequest = map[string]struct{}{
	// Hop-by-hop.
	"Connection": {},
	"Keep-Alive": {},

	// Rewritten by http.Transport to match the upstream URL.
	"Host": {},

	// http.Transport adds its own "Accept-Encoding: gzip" and transparently
	// decompresses the upstream response.
	"Accept-Encoding": {},

	// The body is re-sent from memory; Transport computes its length.
	"Content-Length": {},
}

// skipResponse is the set of upstream response headers (client <-- proxy <-- upstream)
// that are not copied back to the downstream client.
var skipResponse = map[string]struct{}{
	// Hop-by-hop.
	"Connection": {},
	"Keep-Alive": {},

	// fasthttp manages chunked transfer encoding for the client leg.
	"Transfer-Encoding": {},

	// The proxy always reads a decompressed body; the compress middleware
	// sets its own Content-Encoding.
	"Content-Encoding": {},

	// Recomputed by fiber after decompression and re-compression.
	"Content-Length": {},
}

// SetUpstreamRequestHeaders copies request headers from the Fiber context to
// the outgoing http.Request, filtering headers that the proxy should not forward
// to the upstream service.
func (h *Handler) SetUpstreamRequestHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if _, skip := skipRequest[k]; !skip {
			req.Header.Set(k, string(value))
		}
	})
}

// SetClientResponseHeaders copies response headers from the upstream
// http.Response to the Fiber context, filtering headers that the proxy should
// not forward back down to the client.
func (h *Handler) SetClientResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for k, v := range resp.Header {
		if _, skip := skipResponse[k]; !skip {
			c.Set(k, strings.Join(v, ", "))
		}
	}
}
