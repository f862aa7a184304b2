// Package markdown renders the reply text of a chat session to HTML.
//
// The rule set is a small, fixed Markdown subset: fenced code blocks, three
// heading levels, horizontal rules, blockquotes, flat unordered and ordered
// lists and paragraphs, plus bold, italic, inline code and links. Rendering is
// a pure function of the input text, so a streaming caller re-renders the
// whole accumulated text after every delta instead of diffing HTML.
//
// Every piece of input text is HTML-escaped before it is placed in a
// template. This is not a general HTML sanitizer: the only markup in the
// output is the markup produced by the templates below.
package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// Renderer converts text to HTML. The zero value is not usable; use New.
// A Renderer holds no per-call state and is safe for concurrent use.
type Renderer struct {
	copyButton bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCopyButton toggles the copy-to-clipboard button rendered with every
// fenced code block. Enabled by default.
func WithCopyButton(enabled bool) Option {
	return func(r *Renderer) {
		r.copyButton = enabled
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{copyButton: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Render converts text to HTML with the default options.
func Render(text string) string {
	return defaultRenderer.Render(text)
}

// Render converts text to HTML. It never panics; constructs it does not
// recognize are rendered as paragraphs.
func (r *Renderer) Render(text string) string {
	if text == "" {
		return ""
	}
	return r.RenderDocument(Parse(text))
}

// RenderDocument renders an already parsed document.
func (r *Renderer) RenderDocument(doc *Document) string {
	var b strings.Builder
	for _, block := range doc.Blocks {
		writeBlock(&b, block)
	}

	out := applyInline(b.String())

	return placeholderRe.ReplaceAllStringFunc(out, func(m string) string {
		idx, err := strconv.Atoi(placeholderRe.FindStringSubmatch(m)[1])
		if err != nil || idx >= len(doc.Code) {
			return m
		}
		return r.codeBlock(doc.Code[idx])
	})
}

func writeBlock(b *strings.Builder, block Block) {
	switch block.Kind {
	case BlockHeading:
		tag := "h" + strconv.Itoa(block.Level)
		b.WriteString("<" + tag + ">")
		b.WriteString(EscapeHTML(strings.Join(block.Lines, "")))
		b.WriteString("</" + tag + ">")

	case BlockRule:
		b.WriteString("<hr>")

	case BlockQuote:
		b.WriteString("<blockquote>")
		for i, line := range block.Lines {
			if i > 0 {
				b.WriteString("<br>")
			}
			b.WriteString(EscapeHTML(line))
		}
		b.WriteString("</blockquote>")

	case BlockUnorderedList, BlockOrderedList:
		tag := "ul"
		if block.Kind == BlockOrderedList {
			tag = "ol"
		}
		b.WriteString("<" + tag + ">")
		for _, line := range block.Lines {
			b.WriteString("<li>")
			b.WriteString(EscapeHTML(line))
			b.WriteString("</li>")
		}
		b.WriteString("</" + tag + ">")

	default:
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(EscapeHTML(strings.Join(block.Lines, "\n")), "\n", "<br>"))
		b.WriteString("</p>")
	}
}

// applyInline runs the inline rules over block HTML. Bold runs before italic
// so a double asterisk is never consumed as two italic markers.
func applyInline(s string) string {
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")

	s = inlineCodeRe.ReplaceAllStringFunc(s, func(m string) string {
		code := inlineCodeRe.FindStringSubmatch(m)[1]
		return "<code>" + reescape(code) + "</code>"
	})

	return linkRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := linkRe.FindStringSubmatch(m)
		return `<a href="` + reescape(parts[2]) + `" target="_blank">` + reescape(parts[1]) + "</a>"
	})
}

func (r *Renderer) codeBlock(code string) string {
	var b strings.Builder
	b.WriteString(`<div class="code-block">`)
	if r.copyButton {
		b.WriteString(`<button class="copy-btn" onclick="copyToClipboard(this, '`)
		b.WriteString(EscapeHTML(EscapeForJS(code)))
		b.WriteString(`')">Copy</button>`)
	}
	b.WriteString("<pre><code>")
	b.WriteString(EscapeHTML(code))
	b.WriteString("</code></pre></div>")
	return b.String()
}
