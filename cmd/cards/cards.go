// Package cardscmder
package cardscmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/cards/cmd/cards/config"
	createcmder "github.com/papercomputeco/cards/cmd/cards/create"
	getcmder "github.com/papercomputeco/cards/cmd/cards/get"
	searchcmder "github.com/papercomputeco/cards/cmd/cards/search"
	servecmder "github.com/papercomputeco/cards/cmd/cards/serve"
	tokencmder "github.com/papercomputeco/cards/cmd/cards/token"
	votecmder "github.com/papercomputeco/cards/cmd/cards/vote"
	versioncmder "github.com/papercomputeco/cards/cmd/version"
)

const cardsLongDesc string = `Cards stores debate evidence cards and finds them again by meaning.

Run the service:
  cards serve                  Run the card API (and MCP endpoint)

Talk to a running service:
  cards create <content>       Store a new card
  cards search <query>         Search cards semantically
  cards get <id>               Show one card
  cards vote <id> [--down]     Vote a card up or down

Manage local state:
  cards config                 Read and write .cards/config.toml
  cards token <owner>          Issue a bearer token for an owner`

const cardsShortDesc string = "Cards - semantic debate evidence"

func NewCardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cards",
		Short:        cardsShortDesc,
		Long:         cardsLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .cards/ directory holding config.toml")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(createcmder.NewCreateCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(getcmder.NewGetCmd())
	cmd.AddCommand(votecmder.NewVoteCmd())
	cmd.AddCommand(tokencmder.NewTokenCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
