// Package apicmder provides the vmentor API server cobra command.
package apicmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vmentor/vmentor/api"
	"github.com/vmentor/vmentor/cmd/vmentor/services"
	"github.com/vmentor/vmentor/pkg/config"
	"github.com/vmentor/vmentor/pkg/markdown"
)

type apiCommander struct {
	listen      string
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

	viper  *viper.Viper
	logger *services.Logger
}

const apiLongDesc string = `Run the vmentor API server.

Serves markdown rendering, stored transcripts, speech synthesis for the
chat widget's voice mode and an MCP endpoint at /mcp.`

const apiShortDesc string = "Run the vmentor API server"

var apiFlags = []string{
	config.FlagAPIListenStandalone,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagLogLevel,
	config.FlagPublicURL,
	config.FlagTTSEngine,
	config.FlagTTSOutputDir,
	config.FlagTTSVoice,
}

func NewAPICmd() *cobra.Command {
	cmder := &apiCommander{}

	cmd := &cobra.Command{
		Use:   "api",
		Short: apiShortDesc,
		Long:  apiLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, apiFlags)

			cmder.viper = v
			cmder.listen = v.GetString("api.listen")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.logLevel = v.GetString("log.level")
			cmder.copyCode = v.GetBool("chat.copy_code")
			cmder.publicURL = v.GetString("api.public_url")
			cmder.ttsEngine = v.GetString("tts.engine_url")
			cmder.ttsOutputDir = v.GetString("tts.output_dir")
			cmder.ttsVoice = v.GetString("tts.default_voice")
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

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListenStandalone, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogLevel, &cmder.logLevel)
	config.AddStringFlag(cmd, config.Flags, config.FlagPublicURL, &cmder.publicURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTTSEngine, &cmder.ttsEngine)
	config.AddStringFlag(cmd, config.Flags, config.FlagTTSOutputDir, &cmder.ttsOutputDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagTTSVoice, &cmder.ttsVoice)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *apiCommander) run() error {
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

	speech, err := services.NewTTSService(services.Speech{
		EngineURL:    c.ttsEngine,
		OutputDir:    c.ttsOutputDir,
		PublicURL:    c.publicURL,
		DefaultVoice: c.ttsVoice,
	}, c.logger.Logger)
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.listen,
		TTS:        speech,
		Renderer:   markdown.New(markdown.WithCopyButton(c.copyCode)),
	}, driver, c.logger.Logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return server.Run()
}
