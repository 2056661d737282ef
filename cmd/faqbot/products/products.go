// Package productscmder provides the products command.
package productscmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/faqbot/cmd/faqbot/setup"
	"github.com/papercomputeco/faqbot/pkg/cliui"
	"github.com/papercomputeco/faqbot/pkg/utils"
)

type productsCommander struct {
	flags setup.Flags
}

const productsLongDesc string = `List the insurance products questions can be scoped to.

Pass a product ID to "faqbot ask" or "faqbot chat" with --product, or save
it as the default:
  faqbot config set chat.product_id <id>

Examples:
  faqbot products`

const productsShortDesc string = "List insurance products"

// maxDescription bounds the description column.
const maxDescription = 60

func NewProductsCmd() *cobra.Command {
	cmder := &productsCommander{}

	cmd := &cobra.Command{
		Use:   "products",
		Short: productsShortDesc,
		Long:  productsLongDesc,
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

func (c *productsCommander) run(cmd *cobra.Command, env *setup.Env) error {
	cl, err := env.NewClient()
	if err != nil {
		return err
	}

	products, err := cl.Products(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(products) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No products found."))
		return nil
	}

	// Find the longest ID for alignment.
	width := 0
	for _, p := range products {
		width = max(width, len(strconv.Itoa(p.ID)))
	}

	current := env.Config.Chat.ProductID

	fmt.Fprintln(out)
	for _, p := range products {
		id := strconv.Itoa(p.ID)
		marker := " "
		if id == current {
			marker = cliui.SuccessMark
		}

		fmt.Fprintf(out, "  %s %s  %s", marker, cliui.KeyStyle.Render(fmt.Sprintf("%*s", width, id)), cliui.NameStyle.Render(p.Name))
		if p.Description != "" {
			fmt.Fprintf(out, "  %s", cliui.DimStyle.Render(utils.Truncate(p.Description, maxDescription)))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)

	return nil
}
