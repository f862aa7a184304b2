package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/vmentor/vmentor/pkg/config"
)

func writeConfig(dir, data string) {
	Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0o600)).To(Succeed())
}

var _ = Describe("Configer", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			writeConfig(tmpDir, `version = 0

[log]
level = "debug"

[storage]
sqlite_path = "/tmp/vmentor.sqlite"
postgres_dsn = "postgres://localhost/vmentor"

[proxy]
upstream = "http://localhost:8000"
listen = ":9090"

[api]
listen = ":9091"
public_url = "https://tts.example.test"

[tts]
engine_url = "http://localhost:5002/synthesize"
output_dir = "/var/lib/vmentor/audio"
default_voice = "vi-VN-HoaiMyNeural"

[chat]
max_message_length = 2000
copy_code = false

[client]
proxy_target = "http://myhost:9090"
api_target = "http://myhost:9091"
email = "learner@example.test"
ai_id = "ai-1"
collection_id = "col-1"
language = "vi-VN"

[eventstream]
provider = "kafka"
brokers = "k1:9092,k2:9092"
topic = "replies"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Log.Level).To(Equal("debug"))
			Expect(cfg.Storage.SQLitePath).To(Equal("/tmp/vmentor.sqlite"))
			Expect(cfg.Storage.PostgresDSN).To(Equal("postgres://localhost/vmentor"))
			Expect(cfg.Proxy.Upstream).To(Equal("http://localhost:8000"))
			Expect(cfg.Proxy.Listen).To(Equal(":9090"))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.API.PublicURL).To(Equal("https://tts.example.test"))
			Expect(cfg.TTS.EngineURL).To(Equal("http://localhost:5002/synthesize"))
			Expect(cfg.TTS.OutputDir).To(Equal("/var/lib/vmentor/audio"))
			Expect(cfg.TTS.DefaultVoice).To(Equal("vi-VN-HoaiMyNeural"))
			Expect(cfg.Chat.MaxMessageLength).To(Equal(uint(2000)))
			Expect(cfg.Chat.CopyCodeEnabled()).To(BeFalse())
			Expect(cfg.Client.ProxyTarget).To(Equal("http://myhost:9090"))
			Expect(cfg.Client.APITarget).To(Equal("http://myhost:9091"))
			Expect(cfg.Client.Email).To(Equal("learner@example.test"))
			Expect(cfg.Client.AIID).To(Equal("ai-1"))
			Expect(cfg.Client.CollectionID).To(Equal("col-1"))
			Expect(cfg.Client.Language).To(Equal("vi-VN"))
			Expect(cfg.EventStream.Provider).To(Equal("kafka"))
			Expect(cfg.EventStream.Brokers).To(Equal("k1:9092,k2:9092"))
			Expect(cfg.EventStream.Topic).To(Equal("replies"))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(tmpDir, `[proxy]
upstream = "http://localhost:8000"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Proxy.Upstream).To(Equal("http://localhost:8000"))
			Expect(cfg.Proxy.Listen).To(Equal(defaults.Proxy.Listen))
			Expect(cfg.API.PublicURL).To(Equal(defaults.API.PublicURL))
			Expect(cfg.TTS.DefaultVoice).To(Equal("vi-VN-NamMinhNeural"))
			Expect(cfg.Chat.MaxMessageLength).To(Equal(uint(4000)))
			Expect(cfg.Chat.CopyCodeEnabled()).To(BeTrue())
			Expect(cfg.Client.Language).To(Equal("en-US"))
			Expect(cfg.EventStream.Provider).To(Equal("nop"))
		})

		It("returns error for malformed TOML", func() {
			writeConfig(tmpDir, "not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for unsupported config version", func() {
			writeConfig(tmpDir, "version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Proxy.Upstream = "http://localhost:8000"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			_, err = os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).NotTo(Succeed())
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key and keeps the others", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("client.email", "learner@example.test")).To(Succeed())
			Expect(c.SetConfigValue("client.language", "vi-VN")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.Email).To(Equal("learner@example.test"))
			Expect(cfg.Client.Language).To(Equal("vi-VN"))
		})

		It("sets uint and bool keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("chat.max_message_length", "120")).To(Succeed())
			Expect(c.SetConfigValue("chat.copy_code", "false")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Chat.MaxMessageLength).To(Equal(uint(120)))
			Expect(cfg.Chat.CopyCodeEnabled()).To(BeFalse())
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				c, err := config.NewConfiger(tmpDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.SetConfigValue(key, value)).To(MatchError(ContainSubstring("invalid value")))
			},
			Entry("uint", "chat.max_message_length", "lots"),
			Entry("bool", "chat.copy_code", "maybe"),
			Entry("log level", "log.level", "loud"),
			Entry("event provider", "eventstream.provider", "carrier-pigeon"),
		)

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SetConfigValue("proxy.provider", "openai")).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns defaults when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("proxy.upstream")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("https://vmentor-service.emg.edu.vn"))

			val, err = c.GetConfigValue("chat.copy_code")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("true"))

			val, err = c.GetConfigValue("storage.sqlite_path")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nonexistent_key")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns every key once in section order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys[0]).To(Equal("log.level"))
		Expect(keys).To(ContainElements("tts.engine_url", "client.collection_id", "eventstream.brokers"))

		seen := map[string]bool{}
		for _, k := range keys {
			Expect(seen[k]).To(BeFalse(), k)
			seen[k] = true
			Expect(config.IsValidConfigKey(k)).To(BeTrue())
		}
	})
})

var _ = Describe("PresetConfig", func() {
	It("builds the local preset", func() {
		cfg, err := config.PresetConfig("LOCAL")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Proxy.Upstream).To(Equal("http://localhost:8000"))
		Expect(cfg.TTS.EngineURL).NotTo(BeEmpty())
	})

	It("builds the production preset", func() {
		cfg, err := config.PresetConfig("production")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Proxy.Upstream).To(Equal(config.NewDefaultConfig().Proxy.Upstream))
		Expect(cfg.Storage.SQLitePath).NotTo(BeEmpty())
	})

	It("rejects unknown presets", func() {
		_, err := config.PresetConfig("staging")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("proxy.upstream")).To(Equal(defaults.Proxy.Upstream))
		Expect(v.GetString("tts.default_voice")).To(Equal(defaults.TTS.DefaultVoice))
		Expect(v.GetUint("chat.max_message_length")).To(Equal(uint(4000)))
		Expect(v.GetBool("chat.copy_code")).To(BeTrue())
	})

	It("reads config file values over defaults", func() {
		writeConfig(tmpDir, `[tts]
engine_url = "http://tts.local/synthesize"
`)

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("tts.engine_url")).To(Equal("http://tts.local/synthesize"))
		Expect(v.GetString("tts.output_dir")).To(Equal("output"))
	})

	It("lets VMENTOR_ environment variables override the file", func() {
		writeConfig(tmpDir, `[client]
language = "en-US"
`)
		GinkgoT().Setenv("VMENTOR_CLIENT_LANGUAGE", "vi-VN")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("client.language")).To(Equal("vi-VN"))
	})
})

var _ = Describe("flag registry", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds cobra flags to viper keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListenStandalone, &listen)
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListenStandalone})
		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to the config file when a flag is not set", func() {
		writeConfig(tmpDir, `[api]
listen = ":5555"
`)
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListenStandalone, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListenStandalone, "nonexistent"})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("takes name, shorthand, default and usage from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.Flags, config.FlagProxyTarget, &target)

		f := cmd.Flags().Lookup("proxy-target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("p"))
		Expect(f.DefValue).To(Equal("http://localhost:8080"))
		Expect(f.Usage).To(Equal(config.Flags[config.FlagProxyTarget].Description))
	})

	It("registers uint flags with their defaults", func() {
		cmd := &cobra.Command{Use: "test"}
		var n uint
		config.AddUintFlag(cmd, config.Flags, config.FlagMaxMessageLen, &n)

		f := cmd.Flags().Lookup("max-message-length")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("4000"))
		Expect(n).To(Equal(uint(4000)))
	})
})
