// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vmentor/vmentor/api"
	apicmder "github.com/vmentor/vmentor/cmd/vmentor/serve/api"
	proxycmder "github.com/vmentor/vmentor/cmd/vmentor/serve/proxy"
	"github.com/vmentor/vmentor/cmd/vmentor/services"
	"github.com/vmentor/vmentor/pkg/config"
	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/proxy"
)

type ServeCommander struct {
	proxyListen string
	apiListen   string
	upstream    string
	sqlitePath  string
	postgresDSN string
	logLevel    string
	logFile     string
	debug       bool
	copyCode    bool

	publicURL    string
	ttsEngine    string
	ttsOutputDir string
	ttsVoice     string

	eventProvider string
	eventBrokers  string
	eventTopic    string

	viper  *viper.Viper
	logger *services.Logger
}

const serveLongDesc string = `Run vmentor services.

Use subcommands to run individual services or all services together:
  vmentor serve          Run both proxy and API server together
  vmentor serve api      Run just the API server
  vmentor serve proxy    Run just the proxy server

Both servers share one transcript store. Changes to log.level in
config.toml are applied without a restart.`

const serveShortDesc string = "Run vmentor services"

var serveFlags = []string{
	config.FlagProxyListen,
	config.FlagAPIListen,
	config.FlagUpstream,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagLogLevel,
	config.FlagPublicURL,
	config.FlagTTSEngine,
	config.FlagTTSOutputDir,
	config.FlagTTSVoice,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)

			cmder.viper = v
			cmder.proxyListen = v.GetString("proxy.listen")
			cmder.apiListen = v.GetString("api.listen")
			cmder.upstream = v.GetString("proxy.upstream")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.logLevel = v.GetString("log.level")
			cmder.copyCode = v.GetBool("chat.copy_code")
			cmder.publicURL = v.GetString("api.public_url")
			cmder.ttsEngine = v.GetString("tts.engine_url")
			cmder.ttsOutputDir = v.GetString("tts.output_dir")
			cmder.ttsVoice = v.GetString("tts.default_voice")
			cmder.eventProvider = v.GetString("eventstream.provider")
			cmder.eventBrokers = v.GetString("eventstream.brokers")
			cmder.eventTopic = v.GetString("eventstream.topic")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProxyListen, &cmder.proxyListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogLevel, &cmder.logLevel)
	config.AddStringFlag(cmd, config.Flags, config.FlagPublicURL, &cmder.publicURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTTSEngine, &cmder.ttsEngine)
	config.AddStringFlag(cmd, config.Flags, config.FlagTTSOutputDir, &cmder.ttsOutputDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagTTSVoice, &cmder.ttsVoice)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &cmder.eventProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &cmder.eventTopic)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	cmd.AddCommand(apicmder.NewAPICmd())
	cmd.AddCommand(proxycmder.NewProxyCmd())

	return cmd
}

func (c *ServeCommander) run() error {
	var err error
	c.logger, err = services.NewLogger(services.Logging{
		Level:   c.logLevel,
		Debug:   c.debug,
		LogFile: c.logFile,
	})
	if err != nil {
		return err
	}
	defer c.logger.Close()

	if !c.debug {
		config.Watch(c.viper, c.logger.Logger, func(v *viper.Viper) {
			c.logger.SetLevel(v.GetString("log.level"))
		})
	}

	// Create shared driver
	driver, err := services.NewStorageDriver(context.Background(), services.Storage{
		PostgresDSN: c.postgresDSN,
		SQLitePath:  c.sqlitePath,
	}, c.logger.Logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := services.NewPublisher(services.EventStream{
		Provider: c.eventProvider,
		Brokers:  c.eventBrokers,
		Topic:    c.eventTopic,
	}, c.logger.Logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	renderer := markdown.New(markdown.WithCopyButton(c.copyCode))

	// Create proxy
	p, err := proxy.New(proxy.Config{
		ListenAddr:  c.proxyListen,
		UpstreamURL: c.upstream,
		Publisher:   publisher,
		Renderer:    renderer,
	}, driver, c.logger.Logger)
	if err != nil {
		return fmt.Errorf("creating proxy: %w", err)
	}
	defer p.Close()

	// Create API server
	speech, err := services.NewTTSService(services.Speech{
		EngineURL:    c.ttsEngine,
		OutputDir:    c.ttsOutputDir,
		PublicURL:    c.publicURL,
		DefaultVoice: c.ttsVoice,
	}, c.logger.Logger)
	if err != nil {
		return err
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: c.apiListen,
		TTS:        speech,
		Renderer:   renderer,
	}, driver, c.logger.Logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	defer apiServer.Shutdown()

	c.logger.Info("starting vmentor",
		"proxy_addr", c.proxyListen,
		"api_addr", c.apiListen,
		"upstream", c.upstream,
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := p.Run(); err != nil {
			errChan <- fmt.Errorf("proxy error: %w", err)
		}
	}()

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}
