// Package configcmder provides the config command for managing persistent
// vmentor configuration stored in the .vmentor/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmentor/vmentor/pkg/cliui"
	"github.com/vmentor/vmentor/pkg/config"
)

const configLongDesc string = `Manage persistent vmentor configuration.

Configuration is stored as config.toml in the .vmentor/ directory and provides
default values for command flags. CLI flags and VMENTOR_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  log.level,
  storage.sqlite_path, storage.postgres_dsn,
  proxy.upstream, proxy.listen,
  api.listen, api.public_url,
  tts.engine_url, tts.output_dir, tts.default_voice,
  chat.max_message_length, chat.copy_code,
  client.proxy_target, client.api_target, client.email,
  client.ai_id, client.collection_id, client.language,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  vmentor config set <key> <value>    Set a configuration value
  vmentor config get <key>            Get a configuration value
  vmentor config list                 List all configuration values

Examples:
  vmentor config set proxy.upstream https://vmentor-service.emg.edu.vn
  vmentor config set client.email student@example.com
  vmentor config get tts.default_voice
  vmentor config list`

const configShortDesc string = "Manage persistent vmentor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Printf("\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
