// Package rendercmder provides the render command, which turns chat
// markdown into the HTML shown by the widget.
package rendercmder

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmentor/vmentor/pkg/cliui"
	"github.com/vmentor/vmentor/pkg/config"
	"github.com/vmentor/vmentor/pkg/markdown"
)

const renderLongDesc string = `Render chat markdown to widget HTML.

Reads markdown from the given file, or from stdin when no file is given,
and writes the HTML fragment the chat widget would display. Raw HTML in
the input is escaped.

With --terminal the markdown is rendered for the terminal instead.

Examples:
  vmentor render reply.md
  echo '**Xin chào**' | vmentor render
  vmentor render --copy-code=false reply.md`

const renderShortDesc string = "Render chat markdown to HTML"

type renderCommander struct {
	copyCode bool
	terminal bool
}

func NewRenderCmd() *cobra.Command {
	cmder := &renderCommander{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: renderShortDesc,
		Long:  renderLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("copy-code") {
				return nil
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.copyCode = cfg.Chat.CopyCodeEnabled()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening markdown: %w", err)
				}
				defer f.Close()
				in = f
			}

			return cmder.run(in, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.copyCode, "copy-code", true, "Add a copy button to fenced code blocks")
	cmd.Flags().BoolVarP(&cmder.terminal, "terminal", "t", false, "Render for the terminal instead of HTML")

	return cmd
}

func (c *renderCommander) run(in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading markdown: %w", err)
	}

	if c.terminal {
		rendered, err := cliui.RenderMarkdown(string(data))
		if err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
		cliui.Fprint(out, rendered)
		return nil
	}

	renderer := markdown.New(markdown.WithCopyButton(c.copyCode))
	_, err = fmt.Fprintln(out, renderer.Render(string(data)))
	return err
}
