// Package proxycmder provides the proxy server command.
package proxycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vmentor/vmentor/cmd/vmentor/services"
	"github.com/vmentor/vmentor/pkg/config"
	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/proxy"
)

type proxyCommander struct {
	listen      string
	upstream    string
	sqlitePath  string
	postgresDSN string
	logLevel    string
	logFile     string
	debug       bool
	copyCode    bool

	eventProvider string
	eventBrokers  string
	eventTopic    string

	viper  *viper.Viper
	logger *services.Logger
}

const proxyLongDesc string = `Run the proxy server.

The proxy relays chat widget requests to the configured upstream chat
service. Streamed replies are passed through byte for byte while the
reply text is reassembled, stored as a transcript and published as a
reply event.

Routes:
  POST /api/chat/completions   Relay a question, streamed or not
  POST /api/chat/render        Relay a question and stream rendered HTML frames
  *                            Forward anything else unchanged`

const proxyShortDesc string = "Run the vmentor proxy server"

var proxyFlags = []string{
	config.FlagProxyListenStandalone,
	config.FlagUpstream,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagLogLevel,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

func NewProxyCmd() *cobra.Command {
	cmder := &proxyCommander{}

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: proxyShortDesc,
		Long:  proxyLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, proxyFlags)

			cmder.viper = v
			cmder.listen = v.GetString("proxy.listen")
			cmder.upstream = v.GetString("proxy.upstream")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.logLevel = v.GetString("log.level")
			cmder.copyCode = v.GetBool("chat.copy_code")
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

	config.AddStringFlag(cmd, config.Flags, config.FlagProxyListenStandalone, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogLevel, &cmder.logLevel)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &cmder.eventProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &cmder.eventTopic)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *proxyCommander) run() error {
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

	p, err := proxy.New(proxy.Config{
		ListenAddr:  c.listen,
		UpstreamURL: c.upstream,
		Publisher:   publisher,
		Renderer:    markdown.New(markdown.WithCopyButton(c.copyCode)),
	}, driver, c.logger.Logger)
	if err != nil {
		return fmt.Errorf("creating proxy: %w", err)
	}
	defer p.Close()

	c.logger.Info("starting proxy server",
		"listen", c.listen,
		"upstream", c.upstream,
	)

	return p.Run()
}
