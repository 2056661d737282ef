// Package historycmder provides the history command for reviewing answers
// recorded locally.
package historycmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/faqbot/cmd/faqbot/setup"
	"github.com/papercomputeco/faqbot/pkg/cliui"
	"github.com/papercomputeco/faqbot/pkg/config"
	"github.com/papercomputeco/faqbot/pkg/dotdir"
	"github.com/papercomputeco/faqbot/pkg/history"
	"github.com/papercomputeco/faqbot/pkg/utils"
)

type historyCommander struct {
	historyPath string
	session     string
	current     bool
	sessions    bool
	limit       int
	full        bool
}

const historyLongDesc string = `Review questions and answers recorded on this machine.

Exchanges are stored in history.sqlite inside .faqbot/ unless
history.sqlite_path is set. Recording can be turned off with
  faqbot config set history.enabled false

Examples:
  faqbot history
  faqbot history --current
  faqbot history --session 3f0c... --limit 5 --full
  faqbot history --sessions`

const historyShortDesc string = "Review past answers"

// previewLen bounds answers unless --full is given.
const previewLen = 120

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.current && cmder.session != "" {
				return errors.New("--current and --session are mutually exclusive")
			}

			env, err := setup.Load(cmd, []string{config.FlagHistoryPath})
			if err != nil {
				return err
			}
			return cmder.run(cmd, env)
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagHistoryPath, &cmder.historyPath)
	cmd.Flags().StringVarP(&cmder.session, "session", "s", "", "Only show this session")
	cmd.Flags().BoolVar(&cmder.current, "current", false, "Only show the current chat session")
	cmd.Flags().BoolVar(&cmder.sessions, "sessions", false, "List session IDs instead of exchanges")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Show at most this many exchanges (0 for all)")
	cmd.Flags().BoolVar(&cmder.full, "full", false, "Show complete answers")

	return cmd
}

func (c *historyCommander) run(cmd *cobra.Command, env *setup.Env) error {
	sessionID := c.session
	if c.current {
		state, err := dotdir.NewManager().LoadSession(env.ConfigDir)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		if state == nil {
			return errors.New("no current chat session; start one with \"faqbot chat\"")
		}
		sessionID = state.SessionID
	}

	out := cmd.OutOrStdout()

	store, err := env.ExistingHistory()
	if err != nil {
		return err
	}
	if store == nil {
		if c.sessions {
			return printSessions(out, nil)
		}
		return c.printExchanges(out, nil)
	}
	defer store.Close()

	if c.sessions {
		ids, err := store.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		return printSessions(out, ids)
	}

	exchanges, err := store.List(cmd.Context(), sessionID, c.limit)
	if err != nil {
		return err
	}

	return c.printExchanges(out, exchanges)
}

func printSessions(out io.Writer, ids []string) error {
	if len(ids) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No history yet."))
		return nil
	}

	fmt.Fprintln(out)
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", cliui.NameStyle.Render(id))
	}
	fmt.Fprintln(out)
	return nil
}

func (c *historyCommander) printExchanges(out io.Writer, exchanges []*history.Exchange) error {
	if len(exchanges) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No history yet."))
		return nil
	}

	fmt.Fprintln(out)
	for _, ex := range exchanges {
		fmt.Fprintf(out, "  %s %s %s\n",
			cliui.Mark(exchangeErr(ex)),
			cliui.DimStyle.Render(ex.CreatedAt.Local().Format("2006-01-02 15:04")),
			cliui.DimStyle.Render("["+utils.Truncate(ex.SessionID, 8)+"]"),
		)
		fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("Q:"), cliui.NameStyle.Render(ex.Question))

		answer := ex.Answer
		if !c.full {
			answer = utils.Truncate(answer, previewLen)
		}
		if answer != "" {
			fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("A:"), cliui.ValueStyle.Render(answer))
		}
		if ex.Failed {
			fmt.Fprintf(out, "    %s\n", cliui.ErrorStyle.Render(ex.Error))
		}
		if c.full && len(ex.Sources) > 0 {
			fmt.Fprintf(out, "    %s\n", cliui.FormatSources(ex.Sources))
		}
		fmt.Fprintln(out)
	}

	return nil
}

func exchangeErr(ex *history.Exchange) error {
	if !ex.Failed {
		return nil
	}
	return errors.New(ex.Error)
}
