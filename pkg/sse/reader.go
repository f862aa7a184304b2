package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const readChunkSize = 32 * 1024

// Pump reads raw chunks from src until EOF, writing each chunk verbatim to
// tee (when non-nil) before feeding it to the ingestor. This lets a caller
// forward the exact upstream byte stream downstream while inspecting the
// accumulated text:
//
// ┌────────────┐
// │ src Reader │
// └────────────┘
// │
// ▼
// ┌────────────┐   ┌───────────────┐
// │    Pump    │──▶│ tee io.Writer │
// └────────────┘   └───────────────┘
// │
// ▼
// ┌────────────┐
// │  Ingestor  │
// └────────────┘
//
// On EOF the session is ended and the final text returned. The context is
// checked between reads; when it is cancelled the session is abandoned and
// ctx.Err() returned along with the partial text, which callers discard.
func Pump(ctx context.Context, src io.Reader, in *Ingestor, tee io.Writer) (string, error) {
	buf := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return in.Text(), err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			if tee != nil {
				if _, err := tee.Write(chunk); err != nil {
					return in.Text(), fmt.Errorf("writing chunk downstream: %w", err)
				}
			}

			if err := in.Feed(chunk); err != nil {
				return in.Text(), err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return in.End()
			}
			return in.Text(), fmt.Errorf("reading stream: %w", readErr)
		}
	}
}
