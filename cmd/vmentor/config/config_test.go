package configcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/vmentor/vmentor/cmd/vmentor/config"
	"github.com/vmentor/vmentor/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "vmentor-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .vmentor dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".vmentor"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	loadConfig := func() *config.Config {
		cfger, err := config.NewConfiger(filepath.Join(tmpDir, ".vmentor"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "proxy.upstream", "http://localhost:8000"})
			Expect(cmd.Execute()).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, ".vmentor", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(loadConfig().Proxy.Upstream).To(Equal("http://localhost:8000"))
		})

		It("rejects unknown keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "invalid_key", "value"})
			Expect(cmd.Execute()).NotTo(Succeed())
		})

		It("requires exactly two arguments", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "proxy.upstream"})
			Expect(cmd.Execute()).NotTo(Succeed())
		})

		It("rejects invalid uint values", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "chat.max_message_length", "lots"})
			Expect(cmd.Execute()).NotTo(Succeed())
		})

		It("rejects unknown event stream providers", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "eventstream.provider", "nats"})
			Expect(cmd.Execute()).NotTo(Succeed())
		})

		It("stores booleans", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "chat.copy_code", "false"})
			Expect(cmd.Execute()).To(Succeed())
			Expect(loadConfig().Chat.CopyCodeEnabled()).To(BeFalse())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			setCmd := configcmder.NewConfigCmd()
			setCmd.SetArgs([]string{"set", "client.email", "hoc.sinh@example.com"})
			Expect(setCmd.Execute()).To(Succeed())

			getCmd := configcmder.NewConfigCmd()
			getCmd.SetArgs([]string{"get", "client.email"})
			Expect(getCmd.Execute()).To(Succeed())
		})

		It("runs without error for unset key", func() {
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetArgs([]string{"get", "storage.postgres_dsn"})
			Expect(getCmd.Execute()).To(Succeed())
		})

		It("rejects unknown keys", func() {
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetArgs([]string{"get", "nope"})
			Expect(getCmd.Execute()).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists all keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list"})
			Expect(cmd.Execute()).To(Succeed())
		})

		It("rejects arguments", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list", "extra"})
			Expect(cmd.Execute()).NotTo(Succeed())
		})
	})
})
