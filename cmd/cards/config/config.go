// Package configcmder provides the config command for managing persistent
// cards configuration stored in the .cards/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cards/pkg/config"
)

const configLongDesc string = `Manage persistent cards configuration.

Configuration is stored as config.toml in the .cards/ directory and provides
default values for command flags. CLI flags and CARDS_* environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, api.disable_mcp,
  client.api_target, client.token,
  vector_store.provider, vector_store.target, vector_store.collection, vector_store.api_key,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions, embedding.api_key,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  auth.jwt_secret

Use subcommands to create, get, set, or list configuration values:
  cards config init [--preset name]   Create ./.cards/config.toml
  cards config set <key> <value>      Set a configuration value
  cards config get <key>              Get a configuration value
  cards config list                   List all configuration values

Examples:
  cards config init --preset qdrant
  cards config set vector_store.provider pgvector
  cards config get embedding.model
  cards config list`

const configShortDesc string = "Manage persistent cards configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeysError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// masked hides all but the last four characters of a secret.
func masked(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
