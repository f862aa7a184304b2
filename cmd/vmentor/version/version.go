// Package versioncmder
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmentor/vmentor/pkg/cliui"
	"github.com/vmentor/vmentor/pkg/utils"
)

type VersionCommander struct {
	short bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.short, "short", false, "Print only the version")

	return cmd
}

func (c *VersionCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if c.short {
		fmt.Fprintln(out, utils.Version)
		return nil
	}

	cliui.Fprint(out, fmt.Sprintf("%s %s\n%s %s\n%s %s\n",
		cliui.KeyStyle.Render("Version:"), cliui.ValueStyle.Render(utils.Version),
		cliui.KeyStyle.Render("Sha:"), cliui.HashStyle.Render(utils.Sha),
		cliui.KeyStyle.Render("Built at:"), cliui.DimStyle.Render(utils.Buildtime),
	))
	return nil
}
