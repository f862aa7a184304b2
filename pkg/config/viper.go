package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/vmentor/vmentor/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "VMENTOR"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the VMENTOR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (VMENTOR_PROXY_LISTEN, VMENTOR_TTS_ENGINE_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Watch re-reads the config file whenever it changes on disk and calls
// onChange with the new values. Only keys that are safe to change while
// serving (log.level) should be acted on; listeners and stores are fixed at
// startup. Watching is a no-op when no config file was found.
func Watch(v *viper.Viper, logger *slog.Logger, onChange func(*viper.Viper)) {
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("config file changed", "path", e.Name, "op", e.Op.String())
		onChange(v)
	})
	v.WatchConfig()
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("proxy.upstream", d.Proxy.Upstream)
	v.SetDefault("proxy.listen", d.Proxy.Listen)

	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.public_url", d.API.PublicURL)

	v.SetDefault("tts.engine_url", d.TTS.EngineURL)
	v.SetDefault("tts.output_dir", d.TTS.OutputDir)
	v.SetDefault("tts.default_voice", d.TTS.DefaultVoice)

	v.SetDefault("chat.max_message_length", d.Chat.MaxMessageLength)
	v.SetDefault("chat.copy_code", d.Chat.CopyCodeEnabled())

	v.SetDefault("client.proxy_target", d.Client.ProxyTarget)
	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.email", d.Client.Email)
	v.SetDefault("client.ai_id", d.Client.AIID)
	v.SetDefault("client.collection_id", d.Client.CollectionID)
	v.SetDefault("client.language", d.Client.Language)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
