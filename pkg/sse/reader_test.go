package sse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// chunkedReader returns one chunk per Read call.
type chunkedReader struct {
	chunks []string
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

var _ = Describe("Pump", func() {
	It("tees the raw stream and returns the final text", func() {
		raw := "data: {\"answer\":\"Hel\"}\n\ndata: {\"answer\":\"lo\"}\n\ndata: [DONE]\n\n"
		src := &chunkedReader{chunks: []string{raw[:10], raw[10:31], raw[31:]}}

		var snapshots []string
		in := NewIngestor(func(text string) {
			snapshots = append(snapshots, text)
		})

		var tee bytes.Buffer
		text, err := Pump(context.Background(), src, in, &tee)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Hello"))
		Expect(tee.String()).To(Equal(raw))
		Expect(snapshots).To(Equal([]string{"Hel", "Hello"}))
		Expect(in.Done()).To(BeTrue())
	})

	It("accepts a nil tee", func() {
		in := NewIngestor(nil)
		text, err := Pump(context.Background(), strings.NewReader("data: ok"), in, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("ok"))
	})

	It("ends the session on EOF", func() {
		in := NewIngestor(nil)
		_, err := Pump(context.Background(), strings.NewReader("data: ok\n"), in, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(in.Feed([]byte("data: more\n"))).To(MatchError(ErrSessionEnded))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		in := NewIngestor(nil)
		_, err := Pump(ctx, strings.NewReader("data: never\n"), in, nil)
		Expect(err).To(MatchError(context.Canceled))
		Expect(in.Text()).To(BeEmpty())
	})

	It("wraps read failures", func() {
		boom := errors.New("connection reset")
		in := NewIngestor(nil)

		src := io.MultiReader(strings.NewReader("data: partial\n"), iotest.ErrReader(boom))
		text, err := Pump(context.Background(), src, in, nil)
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(ContainSubstring("reading stream"))
		Expect(text).To(Equal("partial"))
	})

	It("fails when the downstream writer fails", func() {
		in := NewIngestor(nil)
		w := &failingWriter{err: errors.New("client went away")}

		_, err := Pump(context.Background(), strings.NewReader("data: x\n"), in, w)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("writing chunk downstream"))
	})
})

type failingWriter struct {
	err error
}

func (w *failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}
