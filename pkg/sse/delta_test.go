package sse

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseLine", func() {
	It("classifies data lines and strips the prefix", func() {
		env := ParseLine(`data: {"answer":"hello"}`)
		Expect(env.Kind).To(Equal(LineData))
		Expect(env.Payload).To(Equal(`{"answer":"hello"}`))
	})

	It("trims surrounding whitespace before matching", func() {
		env := ParseLine("   data: hi  \r")
		Expect(env.Kind).To(Equal(LineData))
		Expect(env.Payload).To(Equal("hi"))
	})

	It("recognizes the sentinel", func() {
		Expect(ParseLine("data: [DONE]").Kind).To(Equal(LineSentinel))
	})

	It("requires the space after the colon", func() {
		Expect(ParseLine("data:no-space").Kind).To(Equal(LineOther))
	})

	It("ignores other SSE fields and comments", func() {
		Expect(ParseLine("event: message").Kind).To(Equal(LineOther))
		Expect(ParseLine(": keep-alive").Kind).To(Equal(LineOther))
		Expect(ParseLine("").Kind).To(Equal(LineOther))
	})
})

var _ = Describe("ExtractDelta", func() {
	It("reads the answer field", func() {
		delta, err := ExtractDelta(`{"answer":"hello"}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(Equal("hello"))
	})

	It("reads OpenAI style choices[0].delta.content", func() {
		delta, err := ExtractDelta(`{"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":"Hel"}}]}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(Equal("Hel"))
	})

	It("reads the content field", func() {
		delta, err := ExtractDelta(`{"content":"lo"}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(Equal("lo"))
	})

	It("prefers choices over answer over content", func() {
		delta, err := ExtractDelta(`{"content":"c","answer":"a","choices":[{"delta":{"content":"d"}}]}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(Equal("d"))

		delta, err = ExtractDelta(`{"content":"c","answer":"a"}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(Equal("a"))
	})

	It("skips empty fields when probing", func() {
		delta, err := ExtractDelta(`{"choices":[{"delta":{"content":""}}],"answer":"","content":"x"}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(Equal("x"))
	})

	It("returns an empty delta for records without content", func() {
		delta, err := ExtractDelta(`{"choices":[{"delta":{"role":"assistant"}}]}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(BeEmpty())
	})

	It("uses plain text payloads verbatim", func() {
		delta, err := ExtractDelta("plain text")
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(Equal("plain text"))
	})

	It("falls back to plain text when a record fails to parse", func() {
		delta, err := ExtractDelta(`{not json`)
		Expect(err).To(HaveOccurred())

		var parseErr *ParseError
		Expect(errors.As(err, &parseErr)).To(BeTrue())
		Expect(parseErr.Payload).To(Equal(`{not json`))
		Expect(delta).To(Equal(`{not json`))
	})

	It("drops payloads that contain a data prefix fragment", func() {
		delta, err := ExtractDelta(`{"content":"x"} data: {"content":"y"}`)
		Expect(err).To(HaveOccurred())
		Expect(delta).To(BeEmpty())

		delta, err = ExtractDelta("tail data: more")
		Expect(err).NotTo(HaveOccurred())
		Expect(delta).To(BeEmpty())
	})
})
