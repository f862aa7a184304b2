package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmentor/vmentor/pkg/cliui"
	"github.com/vmentor/vmentor/pkg/config"
	"github.com/vmentor/vmentor/pkg/dotdir"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .vmentor/ directory, creating ~/.vmentor/ when no
directory exists yet.

Examples:
  vmentor config set proxy.upstream http://localhost:8000
  vmentor config set eventstream.provider kafka
  vmentor config set chat.copy_code false`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(args[0], args[1], configDir)
		},
		ValidArgsFunction: validKeys,
	}

	return cmd
}

func runSet(key, value, configDir string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	dir, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	printTarget(cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Printf("  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
