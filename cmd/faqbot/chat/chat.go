// Package chatcmder provides the chat command for an interactive session
// with the FAQ chatbot.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/faqbot/cmd/faqbot/setup"
	"github.com/papercomputeco/faqbot/pkg/cliui"
	"github.com/papercomputeco/faqbot/pkg/client"
	"github.com/papercomputeco/faqbot/pkg/dotdir"
	"github.com/papercomputeco/faqbot/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("faqbot> ")
)

type chatCommander struct {
	flags setup.Flags
	fresh bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	env      *setup.Env
	streamer *setup.Streamer
	dotdir   *dotdir.Manager
	session  *dotdir.SessionState
}

const chatLongDesc string = `Start an interactive chat session with the FAQ chatbot.

The session ID is kept in .faqbot/session.json so the backend remembers the
conversation across runs. Answers stream in as they are generated.

Commands inside the session:
  /new     Start a new conversation
  /exit    Quit (Ctrl+D also works)

Examples:
  faqbot chat
  faqbot chat --product 2 --language en
  faqbot chat --new`

const chatShortDesc string = "Interactive chat session"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup.Load(cmd, setup.ClientKeys, setup.ChatKeys)
			if err != nil {
				return err
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			cmder.env = env
			cmder.dotdir = dotdir.NewManager()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return cmder.run(ctx)
		},
	}

	setup.AddClientFlags(cmd, &cmder.flags)
	setup.AddChatFlags(cmd, &cmder.flags)
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Start a new conversation instead of resuming")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	cl, err := c.env.NewClient()
	if err != nil {
		return err
	}

	store, err := c.env.OpenHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	c.streamer = &setup.Streamer{
		Env:     c.env,
		Client:  cl,
		History: store,
		Out:     c.out,
		ErrOut:  c.errOut,
		Prefix:  assistantPrompt,
	}

	if err := c.resume(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /new starts over, /exit or Ctrl+D quits."))

	scanner := bufio.NewScanner(c.in)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			if err := c.startNew(); err != nil {
				return err
			}
			continue
		}

		if err := c.ask(ctx, input); err != nil {
			fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, err)
		}
		fmt.Fprintln(c.out)

		if ctx.Err() != nil {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// resume loads the saved session, or starts a new one when there is none,
// --new was given, or the saved one targets another product or language.
func (c *chatCommander) resume() error {
	cfg := c.env.Config.Chat

	if !c.fresh {
		state, err := c.dotdir.LoadSession(c.env.ConfigDir)
		if err != nil {
			c.env.Logger.Warn("ignoring unreadable session state", "error", err)
		}
		if state != nil && state.ProductID == cfg.ProductID && state.Language == cfg.Language {
			c.session = state
			fmt.Fprintf(c.out, "\n  %s Resuming session %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(utils.Truncate(state.SessionID, 8)),
				cliui.DimStyle.Render("(started "+state.StartedAt.Local().Format("Jan 2 15:04")+")"),
			)
			c.printScope()
			return nil
		}
	}

	return c.startNew()
}

func (c *chatCommander) startNew() error {
	cfg := c.env.Config.Chat

	c.session = dotdir.NewSessionState(cfg.ProductID, cfg.Language)
	if err := c.dotdir.SaveSession(c.session, c.env.ConfigDir); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(c.out, "\n  %s New conversation %s\n",
		cliui.DimStyle.Render("●"),
		cliui.NameStyle.Render(utils.Truncate(c.session.SessionID, 8)),
	)
	c.printScope()
	return nil
}

func (c *chatCommander) printScope() {
	product := c.session.ProductID
	if product == "" {
		product = "all"
	}
	fmt.Fprintf(c.out, "  %s %s  %s %s\n\n",
		cliui.KeyStyle.Render("Product:"), cliui.ValueStyle.Render(product),
		cliui.KeyStyle.Render("Language:"), cliui.ValueStyle.Render(c.session.Language),
	)
}

func (c *chatCommander) ask(ctx context.Context, question string) error {
	answer, err := c.streamer.Stream(ctx, client.AskRequest{
		Question:  question,
		ProductID: c.session.ProductID,
		SessionID: c.session.SessionID,
		Language:  c.session.Language,
	})
	if err != nil {
		return err
	}

	c.env.Logger.Debug("answer complete",
		"session_id", c.session.SessionID,
		"tokens", answer.Tokens,
		"failed", answer.Failed(),
	)
	return nil
}
