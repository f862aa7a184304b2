// Package chatcmder provides the chat command for an interactive vmentor
// conversation through the proxy.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vmentor/vmentor/pkg/chat"
	"github.com/vmentor/vmentor/pkg/cliui"
	"github.com/vmentor/vmentor/pkg/config"
	"github.com/vmentor/vmentor/pkg/dotdir"
	"github.com/vmentor/vmentor/pkg/logger"
	"github.com/vmentor/vmentor/pkg/markdown"
	"github.com/vmentor/vmentor/pkg/tts"
	"github.com/vmentor/vmentor/pkg/utils"
)

var (
	userPrompt      = cliui.UserStyle.Render("you> ")
	assistantPrompt = cliui.BotStyle.Render("mentor> ")
)

type chatCommander struct {
	proxyTarget  string
	apiTarget    string
	email        string
	userID       string
	aiID         string
	collectionID string
	language     string
	maxLength    uint
	copyCode     bool

	voice  bool
	player string
	html   bool
	pretty bool
	debug  bool

	configDir string
	logger    *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session through the vmentor proxy.

Questions are sent to the proxy, which relays them to the chat service and
records the exchange. Streamed replies are printed as they arrive.

The user id is resolved from --email on first use and cached in
.vmentor/session.json; pass --user-id to skip the lookup.

In voice mode replies are requested unstreamed, synthesized by the API
server and played with --player, e.g. "ffplay -nodisp -autoexit -loglevel quiet".

Commands inside the session:
  /voice    Toggle voice mode
  /exit     Quit (Ctrl+D works too)

Examples:
  vmentor chat --email hoc.sinh@example.com --collection-id c-101
  vmentor chat --voice --player "mpv --no-video" --language vi-VN`

const chatShortDesc string = "Interactive chat through the vmentor proxy"

var chatFlags = []string{
	config.FlagProxyTarget,
	config.FlagAPITarget,
	config.FlagEmail,
	config.FlagAIID,
	config.FlagCollectionID,
	config.FlagLanguage,
	config.FlagMaxMessageLen,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, chatFlags)
			cmder.load(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return cmder.run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProxyTarget, &cmder.proxyTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmail, &cmder.email)
	config.AddStringFlag(cmd, config.Flags, config.FlagAIID, &cmder.aiID)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollectionID, &cmder.collectionID)
	config.AddStringFlag(cmd, config.Flags, config.FlagLanguage, &cmder.language)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxMessageLen, &cmder.maxLength)
	cmd.Flags().StringVar(&cmder.userID, "user-id", "", "User id (skips the email lookup)")
	cmd.Flags().BoolVar(&cmder.voice, "voice", false, "Start in voice mode")
	cmd.Flags().StringVar(&cmder.player, "player", "", "Audio player command for voice mode")
	cmd.Flags().BoolVar(&cmder.html, "html", false, "Print the rendered HTML of each reply")
	cmd.Flags().BoolVar(&cmder.pretty, "pretty", false, "Render each finished reply for the terminal")

	return cmd
}

func (c *chatCommander) load(v *viper.Viper) {
	c.proxyTarget = v.GetString("client.proxy_target")
	c.apiTarget = v.GetString("client.api_target")
	c.email = v.GetString("client.email")
	c.aiID = v.GetString("client.ai_id")
	c.collectionID = v.GetString("client.collection_id")
	c.language = v.GetString("client.language")
	c.maxLength = v.GetUint("chat.max_message_length")
	c.copyCode = v.GetBool("chat.copy_code")
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	c.logger = logger.New(
		logger.WithWriter(os.Stderr),
		logger.WithPretty(true),
		logger.WithDebug(c.debug),
	)

	ddm := dotdir.NewManager()
	userID := c.userID
	if userID == "" {
		userID = c.cachedUserID(ddm)
	}

	var speaker chat.Speaker
	if c.voice || c.player != "" {
		var player tts.Player
		if c.player != "" {
			player = tts.CommandPlayer{Command: c.player}
		}
		speaker = tts.NewSpeaker(tts.NewClient(c.apiTarget), player, c.logger)
	}

	session := chat.NewSession(chat.SessionConfig{
		Client:           chat.NewClient(c.proxyTarget),
		UserID:           userID,
		Email:            c.email,
		AIID:             c.aiID,
		CollectionID:     c.collectionID,
		Language:         c.language,
		VoiceMode:        c.voice,
		Speaker:          speaker,
		Renderer:         markdown.New(markdown.WithCopyButton(c.copyCode)),
		MaxMessageLength: int(c.maxLength),
		Logger:           c.logger,
	})

	fmt.Fprintln(out)
	greeting, err := session.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	if userID == "" {
		c.saveUserID(ddm, session.UserID())
	}

	cliui.Fprint(out, fmt.Sprintf("  %s %s\n",
		cliui.KeyStyle.Render("User:"),
		cliui.NameStyle.Render(utils.Truncate(session.UserID(), 24)),
	))
	if greeting != "" {
		cliui.Fprint(out, fmt.Sprintf("\n%s%s\n", assistantPrompt, greeting))
	}
	cliui.Fprint(out, fmt.Sprintf("\n  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /voice toggles voice mode, /exit or Ctrl+D quits.")))

	return c.loop(ctx, session, in, out)
}

func (c *chatCommander) loop(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		cliui.Fprint(out, userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(out)
			return nil
		case "/voice":
			session.SetVoiceMode(!session.VoiceMode())
			state := "off"
			if session.VoiceMode() {
				state = "on"
			}
			cliui.Fprint(out, fmt.Sprintf("  %s voice mode %s\n\n", cliui.SuccessMark, state))
			continue
		}

		if err := c.exchange(ctx, session, input, out); err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out)
				return nil
			}
			cliui.Fprint(out, fmt.Sprintf("  %s %v\n\n", cliui.FailMark, err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}

// exchange sends one question and prints the reply. Streamed text is
// printed as it grows unless --pretty asks for the finished reply only.
func (c *chatCommander) exchange(ctx context.Context, session *chat.Session, input string, out io.Writer) error {
	start := time.Now()
	cliui.Fprint(out, assistantPrompt)

	printed := 0
	onUpdate := func(u chat.Update) {
		if c.pretty || len(u.Text) < printed {
			return
		}
		fmt.Fprint(out, u.Text[printed:])
		printed = len(u.Text)
	}

	reply, err := session.Send(ctx, input, onUpdate)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrMessageTooLong) {
			fmt.Fprintln(out)
		}
		return err
	}

	if c.pretty {
		rendered, err := cliui.RenderMarkdown(reply.Text)
		if err != nil {
			return err
		}
		cliui.Fprint(out, "\n"+rendered)
	}
	fmt.Fprintln(out)

	if c.html {
		cliui.Fprint(out, cliui.DimStyle.Render(reply.HTML)+"\n")
	}

	c.logger.Debug("reply received",
		"streamed", reply.Streamed,
		"failed", reply.Failed,
		"chars", len([]rune(reply.Text)),
		"took", cliui.FormatDuration(time.Since(start)),
	)

	fmt.Fprintln(out)
	return nil
}

func (c *chatCommander) cachedUserID(ddm *dotdir.Manager) string {
	state, err := ddm.LoadSessionState(c.configDir)
	if err != nil {
		c.logger.Debug("ignoring session state", "error", err)
		return ""
	}
	if state == nil || state.Email == "" || state.Email != c.email {
		return ""
	}
	return state.UserID
}

func (c *chatCommander) saveUserID(ddm *dotdir.Manager, userID string) {
	if c.email == "" || userID == "" {
		return
	}

	err := ddm.SaveSessionState(&dotdir.SessionState{
		Email:      c.email,
		UserID:     userID,
		ResolvedAt: time.Now().UTC(),
	}, c.configDir)
	if err != nil {
		c.logger.Warn("could not cache user id", "error", err)
	}
}
