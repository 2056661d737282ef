// Package askcmder provides the ask command, which asks one question and
// streams the answer to stdout.
package askcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/faqbot/cmd/faqbot/setup"
	"github.com/papercomputeco/faqbot/pkg/client"
	"github.com/papercomputeco/faqbot/pkg/dotdir"
)

type askCommander struct {
	flags    setup.Flags
	noStream bool
	session  string
}

const askLongDesc string = `Ask the FAQ chatbot a single question.

The answer is printed as it streams in, followed by its sources. With
--render and a terminal on stdout, the finished answer is rendered as
markdown instead.

Each invocation starts a new backend session unless --session is given.

Examples:
  faqbot ask "What does my home policy cover?"
  faqbot ask --product 3 --language de "Ist Hagel versichert?"
  faqbot ask --no-stream "How do I file a claim?"`

const askShortDesc string = "Ask a single question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup.Load(cmd, setup.ClientKeys, setup.ChatKeys)
			if err != nil {
				return err
			}
			return cmder.run(cmd, env, strings.Join(args, " "))
		},
	}

	setup.AddClientFlags(cmd, &cmder.flags)
	setup.AddChatFlags(cmd, &cmder.flags)
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the complete answer instead of streaming")
	cmd.Flags().StringVarP(&cmder.session, "session", "s", "", "Backend session ID to continue")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, env *setup.Env, question string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cl, err := env.NewClient()
	if err != nil {
		return err
	}

	store, err := env.OpenHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	req := client.AskRequest{
		Question:  question,
		ProductID: env.Config.Chat.ProductID,
		SessionID: c.session,
		Language:  env.Config.Chat.Language,
	}
	if req.SessionID == "" {
		req.SessionID = dotdir.NewSessionState(req.ProductID, req.Language).SessionID
	}

	streamer := &setup.Streamer{
		Env:     env,
		Client:  cl,
		History: store,
		Out:     cmd.OutOrStdout(),
		ErrOut:  cmd.ErrOrStderr(),
	}

	if c.noStream {
		return c.ask(ctx, streamer, cl, req)
	}

	answer, err := streamer.Stream(ctx, req)
	if err != nil {
		return err
	}
	if answer.Failed() {
		return fmt.Errorf("answer failed: %s", answer.Err)
	}
	return nil
}

func (c *askCommander) ask(ctx context.Context, streamer *setup.Streamer, cl *client.Client, req client.AskRequest) error {
	resp, err := cl.Ask(ctx, req)
	if err != nil {
		return err
	}

	streamer.PrintBlocking(ctx, req, resp)
	return nil
}
