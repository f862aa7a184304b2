package rendercmder_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	rendercmder "github.com/vmentor/vmentor/cmd/vmentor/render"
)

func runRender(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := rendercmder.NewRenderCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var _ = Describe("render command", func() {
	It("renders stdin to HTML", func() {
		out, err := runRender("# Bài 1\n\n**Xin chào** <b>", "--copy-code=false")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("<h1>Bài 1</h1><p><strong>Xin chào</strong> &lt;b&gt;</p>\n"))
	})

	It("renders a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "reply.md")
		Expect(os.WriteFile(path, []byte("- a\n- b"), 0o600)).To(Succeed())

		out, err := runRender("", "--copy-code=false", path)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("<ul><li>a</li><li>b</li></ul>\n"))
	})

	It("adds copy buttons when asked", func() {
		out, err := runRender("```\nx\n```", "--copy-code=true")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`class="copy-btn"`))
	})

	It("renders for the terminal", func() {
		out, err := runRender("**bold**", "--terminal")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("bold"))
		Expect(out).NotTo(ContainSubstring("<strong>"))
	})

	It("fails for a missing file", func() {
		_, err := runRender("", "--copy-code=false", "/no/such/reply.md")
		Expect(err).To(HaveOccurred())
	})
})
