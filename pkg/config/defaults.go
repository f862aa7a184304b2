package config

const (
	defaultLogLevel = "info"

	defaultUpstream    = "https://vmentor-service.emg.edu.vn"
	defaultProxyListen = ":8080"
	defaultAPIListen   = ":8081"
	defaultPublicURL   = "http://localhost:8081"

	defaultTTSOutputDir = "output"
	defaultVoice        = "vi-VN-NamMinhNeural"

	defaultMaxMessageLength = 4000

	defaultClientProxyTarget = "http://localhost:8080"
	defaultClientAPITarget   = "http://localhost:8081"
	defaultLanguage          = "en-US"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "vmentor.replies"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Log: LogConfig{
			Level: defaultLogLevel,
		},
		Proxy: ProxyConfig{
			Upstream: defaultUpstream,
			Listen:   defaultProxyListen,
		},
		API: APIConfig{
			Listen:    defaultAPIListen,
			PublicURL: defaultPublicURL,
		},
		TTS: TTSConfig{
			OutputDir:    defaultTTSOutputDir,
			DefaultVoice: defaultVoice,
		},
		Chat: ChatConfig{
			MaxMessageLength: defaultMaxMessageLength,
		},
		Client: ClientConfig{
			ProxyTarget: defaultClientProxyTarget,
			APITarget:   defaultClientAPITarget,
			Language:    defaultLanguage,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
