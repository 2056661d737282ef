// Package configcmder provides the config command for managing persistent
// faqbot configuration stored in the .faqbot/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/faqbot/pkg/config"
)

const configLongDesc string = `Manage persistent faqbot configuration.

Configuration is stored as config.toml in the .faqbot/ directory and provides
default values for command flags. CLI flags and FAQBOT_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.api_target, client.token, client.timeout,
  chat.product_id, chat.language, chat.render,
  stream.max_line_size, stream.max_consecutive_failures,
  history.enabled, history.sqlite_path

Use subcommands to get, set, or list configuration values:
  faqbot config set <key> <value>    Set a configuration value
  faqbot config get <key>            Get a configuration value
  faqbot config list                 List all configuration values

Examples:
  faqbot config set client.api_target https://faq.example.com
  faqbot config set chat.product_id 3
  faqbot config get chat.language
  faqbot config list`

const configShortDesc string = "Manage persistent faqbot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
