// Package faqbotcmder
package faqbotcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/faqbot/cmd/faqbot/ask"
	chatcmder "github.com/papercomputeco/faqbot/cmd/faqbot/chat"
	configcmder "github.com/papercomputeco/faqbot/cmd/faqbot/config"
	historycmder "github.com/papercomputeco/faqbot/cmd/faqbot/history"
	productscmder "github.com/papercomputeco/faqbot/cmd/faqbot/products"
	suggestionscmder "github.com/papercomputeco/faqbot/cmd/faqbot/suggestions"
	versioncmder "github.com/papercomputeco/faqbot/cmd/version"
)

const faqbotLongDesc string = `faqbot asks the insurance FAQ chatbot from the terminal.

Answers stream in token by token as the backend generates them:
  faqbot ask "Is water damage covered?"   Ask a single question
  faqbot chat                             Start an interactive session
  faqbot suggestions                      Show popular questions
  faqbot products                         List products to scope questions to
  faqbot history                          Review past answers

Settings live in config.toml inside .faqbot/ (see "faqbot config").`

const faqbotShortDesc string = "faqbot - Insurance FAQ chatbot client"

func NewFaqbotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "faqbot",
		Short:         faqbotShortDesc,
		Long:          faqbotLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .faqbot/ config directory")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(suggestionscmder.NewSuggestionsCmd())
	cmd.AddCommand(productscmder.NewProductsCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
