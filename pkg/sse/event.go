// Package sse turns the chunked "data: ..." event feed returned by the chat
// completions endpoint into a running, accumulated reply text.
//
// The package is consumer-side only: it decodes raw transport chunks, frames
// them into lines, extracts the text delta carried by each data line and
// hands the accumulated text to a sink after every delta. It intentionally
// does NOT provide SSE writer or server capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

const (
	// DataPrefix marks a line carrying an event payload. The trailing space is
	// required; "data:foo" is not a data line for this feed.
	DataPrefix = "data: "

	// Sentinel is the payload that ends a stream before transport closure.
	Sentinel = "[DONE]"
)

// LineKind classifies a single framed line of the feed.
type LineKind int

const (
	// LineOther is any line that is not a data line. It is ignored.
	LineOther LineKind = iota

	// LineData is a "data: " line with a payload.
	LineData

	// LineSentinel is a "data: [DONE]" line.
	LineSentinel
)

func (k LineKind) String() string {
	switch k {
	case LineData:
		return "data"
	case LineSentinel:
		return "sentinel"
	default:
		return "other"
	}
}

// Envelope is a parsed logical line.
type Envelope struct {
	Kind LineKind

	// Payload is the trimmed line with the data prefix removed. Empty for
	// LineOther and LineSentinel.
	Payload string
}

// ParseLine trims raw and classifies it.
func ParseLine(raw string) Envelope {
	line := strings.TrimSpace(raw)

	payload, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return Envelope{Kind: LineOther}
	}

	if payload == Sentinel {
		return Envelope{Kind: LineSentinel}
	}

	return Envelope{Kind: LineData, Payload: payload}
}
