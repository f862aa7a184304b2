package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmentor/vmentor/pkg/cliui"
)

var _ = Describe("cliui", func() {
	It("formats short and long durations", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("marks results", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})

	It("runs the step and reports its error", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "synthesizing", func() error {
			return errors.New("engine down")
		})
		Expect(err).To(MatchError("engine down"))
		Expect(cliui.Plain(buf.String())).To(ContainSubstring("✗ synthesizing"))
	})

	It("treats buffers as non-terminals", func() {
		var buf bytes.Buffer
		Expect(cliui.IsTerminal(&buf)).To(BeFalse())
		Expect(cliui.ColorEnabled(&buf)).To(BeFalse())
	})

	It("strips styling when writing to a non-terminal", func() {
		var buf bytes.Buffer
		cliui.Fprint(&buf, cliui.KeyStyle.Render("key"))
		Expect(buf.String()).To(Equal("key"))
	})

	It("renders markdown for the terminal", func() {
		out, err := cliui.RenderMarkdown("# Title\n\nsome **bold** text")
		Expect(err).NotTo(HaveOccurred())
		Expect(cliui.Plain(out)).To(ContainSubstring("Title"))
		Expect(cliui.Plain(out)).To(ContainSubstring("bold"))
	})
})
