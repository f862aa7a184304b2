// Package vmentorcmder is the root of the vmentor command tree.
package vmentorcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/vmentor/vmentor/cmd/vmentor/chat"
	configcmder "github.com/vmentor/vmentor/cmd/vmentor/config"
	initcmder "github.com/vmentor/vmentor/cmd/vmentor/init"
	rendercmder "github.com/vmentor/vmentor/cmd/vmentor/render"
	servecmder "github.com/vmentor/vmentor/cmd/vmentor/serve"
	versioncmder "github.com/vmentor/vmentor/cmd/vmentor/version"
)

const vmentorLongDesc string = `vmentor relays chat widget conversations to a chat service, renders
replies to HTML and speaks them in voice mode.

Run services using:
  vmentor serve api      Run the API server
  vmentor serve proxy    Run the proxy server
  vmentor serve          Run both servers together

Talk to a running proxy:
  vmentor chat           Interactive chat session
  vmentor render         Render markdown to widget HTML`

const vmentorShortDesc string = "vmentor - chat relay and renderer"

func NewVmentorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "vmentor",
		Short:        vmentorShortDesc,
		Long:         vmentorLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .vmentor/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(rendercmder.NewRenderCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
