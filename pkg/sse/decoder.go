package sse

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// textDecoder is a streaming byte-to-text decoder. Bytes of a character split
// across two chunks are held back until the rest of the character arrives.
type textDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// newTextDecoder returns a decoder for a WHATWG encoding label such as
// "utf-8" or "windows-1252". Invalid input decodes to U+FFFD.
func newTextDecoder(label string) (*textDecoder, error) {
	if label == "" {
		label = "utf-8"
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}

	return &textDecoder{
		t:   enc.NewDecoder(),
		dst: make([]byte, 4096),
	}, nil
}

// decode converts chunk to text. With final set, held-back bytes are flushed
// as replacement characters and the decoder is reset.
func (d *textDecoder) decode(chunk []byte, final bool) string {
	src := make([]byte, 0, len(d.pending)+len(chunk))
	src = append(src, d.pending...)
	src = append(src, chunk...)
	d.pending = d.pending[:0]

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, final)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			if final {
				d.t.Reset()
			}
			return out.String()

		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}

		case errors.Is(err, transform.ErrShortSrc):
			if final {
				// Cannot happen with atEOF set, but never spin on it.
				out.WriteRune(utf8.RuneError)
				d.t.Reset()
				return out.String()
			}
			d.pending = append(d.pending, src...)
			return out.String()

		default:
			// The x/text decoders substitute U+FFFD themselves; any other
			// failure skips one byte.
			out.WriteRune(utf8.RuneError)
			if len(src) == 0 {
				return out.String()
			}
			src = src[1:]
		}
	}
}
