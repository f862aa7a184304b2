package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent vmentor configuration stored as
// config.toml in the .vmentor/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Log         LogConfig         `toml:"log"`
	Storage     StorageConfig     `toml:"storage"`
	Proxy       ProxyConfig       `toml:"proxy"`
	API         APIConfig         `toml:"api"`
	TTS         TTSConfig         `toml:"tts"`
	Chat        ChatConfig        `toml:"chat"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// LogConfig holds logging settings shared by every command.
type LogConfig struct {
	Level string `toml:"level,omitempty"`
}

// StorageConfig selects the transcript store. PostgresDSN wins over
// SQLitePath; with neither set transcripts are kept in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// ProxyConfig holds relay settings.
type ProxyConfig struct {
	Upstream string `toml:"upstream,omitempty"`
	Listen   string `toml:"listen,omitempty"`
}

// APIConfig holds API server settings. PublicURL is the externally visible
// base URL used to build audio download links.
type APIConfig struct {
	Listen    string `toml:"listen,omitempty"`
	PublicURL string `toml:"public_url,omitempty"`
}

// TTSConfig holds speech synthesis settings for the API server.
type TTSConfig struct {
	EngineURL    string `toml:"engine_url,omitempty"`
	OutputDir    string `toml:"output_dir,omitempty"`
	DefaultVoice string `toml:"default_voice,omitempty"`
}

// ChatConfig holds chat session limits and rendering switches.
type ChatConfig struct {
	MaxMessageLength uint `toml:"max_message_length,omitempty"`

	// CopyCode renders a copy button on fenced code blocks. Nil means true.
	CopyCode *bool `toml:"copy_code,omitempty"`
}

// CopyCodeEnabled reports whether code blocks get a copy button.
func (c ChatConfig) CopyCodeEnabled() bool {
	return c.CopyCode == nil || *c.CopyCode
}

// ClientConfig holds settings for CLI commands that talk to the running
// proxy and API servers. Targets are full URLs (scheme + host + port).
type ClientConfig struct {
	ProxyTarget  string `toml:"proxy_target,omitempty"`
	APITarget    string `toml:"api_target,omitempty"`
	Email        string `toml:"email,omitempty"`
	AIID         string `toml:"ai_id,omitempty"`
	CollectionID string `toml:"collection_id,omitempty"`
	Language     string `toml:"language,omitempty"`
}

// EventStreamConfig selects where reply events are published. Brokers is a
// comma separated list.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"log.level": {
		get: func(c *Config) string { return c.Log.Level },
		set: func(c *Config, v string) error {
			switch v {
			case "debug", "info", "warn", "error":
				c.Log.Level = v
				return nil
			}
			return fmt.Errorf("invalid value for log.level: %q (debug, info, warn, error)", v)
		},
	},

	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"proxy.upstream": stringKey(func(c *Config) *string { return &c.Proxy.Upstream }),
	"proxy.listen":   stringKey(func(c *Config) *string { return &c.Proxy.Listen }),

	"api.listen":     stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.public_url": stringKey(func(c *Config) *string { return &c.API.PublicURL }),

	"tts.engine_url":    stringKey(func(c *Config) *string { return &c.TTS.EngineURL }),
	"tts.output_dir":    stringKey(func(c *Config) *string { return &c.TTS.OutputDir }),
	"tts.default_voice": stringKey(func(c *Config) *string { return &c.TTS.DefaultVoice }),

	"chat.max_message_length": {
		get: func(c *Config) string {
			if c.Chat.MaxMessageLength == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Chat.MaxMessageLength), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.max_message_length: %w", err)
			}
			c.Chat.MaxMessageLength = uint(n)
			return nil
		},
	},
	"chat.copy_code": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.CopyCodeEnabled()) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.copy_code: %w", err)
			}
			c.Chat.CopyCode = &b
			return nil
		},
	},

	"client.proxy_target":  stringKey(func(c *Config) *string { return &c.Client.ProxyTarget }),
	"client.api_target":    stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"client.email":         stringKey(func(c *Config) *string { return &c.Client.Email }),
	"client.ai_id":         stringKey(func(c *Config) *string { return &c.Client.AIID }),
	"client.collection_id": stringKey(func(c *Config) *string { return &c.Client.CollectionID }),
	"client.language":      stringKey(func(c *Config) *string { return &c.Client.Language }),

	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			if v != "nop" && v != "kafka" {
				return fmt.Errorf("invalid value for eventstream.provider: %q (nop, kafka)", v)
			}
			c.EventStream.Provider = v
			return nil
		},
	},
	"eventstream.brokers": stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":   stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
}
