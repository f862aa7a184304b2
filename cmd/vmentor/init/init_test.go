package initcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/vmentor/vmentor/cmd/vmentor/init"
	"github.com/vmentor/vmentor/pkg/config"
)

var _ = Describe("init command", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "vmentor-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates the .vmentor directory", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".vmentor"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("is idempotent", func() {
		for range 2 {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{})
			Expect(cmd.Execute()).To(Succeed())
		}
	})

	It("writes a preset config", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "local"})
		Expect(cmd.Execute()).To(Succeed())

		cfger, err := config.NewConfiger(filepath.Join(tmpDir, ".vmentor"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Proxy.Upstream).To(Equal("http://localhost:8000"))
		Expect(cfg.Log.Level).To(Equal("debug"))
	})

	It("rejects unknown presets before touching the disk", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "staging"})
		Expect(cmd.Execute()).NotTo(Succeed())

		_, err := os.Stat(filepath.Join(tmpDir, ".vmentor"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("rejects arguments", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"extra"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})
})
