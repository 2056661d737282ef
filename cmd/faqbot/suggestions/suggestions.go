// Package suggestionscmder provides the suggestions command.
package suggestionscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/faqbot/cmd/faqbot/setup"
	"github.com/papercomputeco/faqbot/pkg/cliui"
)

type suggestionsCommander struct {
	flags setup.Flags
}

const suggestionsLongDesc string = `Show questions the chatbot already has answers for.

Suggestions come from the backend's answer cache, so asking one of them is
usually instant.

Examples:
  faqbot suggestions`

const suggestionsShortDesc string = "Show suggested questions"

func NewSuggestionsCmd() *cobra.Command {
	cmder := &suggestionsCommander{}

	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: suggestionsShortDesc,
		Long:  suggestionsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup.Load(cmd, setup.ClientKeys)
			if err != nil {
				return err
			}
			return cmder.run(cmd, env)
		},
	}

	setup.AddClientFlags(cmd, &cmder.flags)

	return cmd
}

func (c *suggestionsCommander) run(cmd *cobra.Command, env *setup.Env) error {
	cl, err := env.NewClient()
	if err != nil {
		return err
	}

	var questions []string
	err = cliui.Step(cmd.ErrOrStderr(), "Fetching suggestions", func() error {
		var err error
		questions, err = cl.Suggestions(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(questions) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No suggestions yet."))
		return nil
	}

	fmt.Fprintln(out)
	for i, q := range questions {
		fmt.Fprintf(out, "  %s %s\n", cliui.DimStyle.Render(fmt.Sprintf("%2d.", i+1)), q)
	}
	fmt.Fprintln(out)

	return nil
}
