// Package getcmder provides the get command for fetching a card by id.
package getcmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	searchcmder "github.com/papercomputeco/cards/cmd/cards/search"
	"github.com/papercomputeco/cards/pkg/card"
	"github.com/papercomputeco/cards/pkg/client"
	"github.com/papercomputeco/cards/pkg/config"
)

const getShortDesc string = "Fetch a debate card by id"

func NewGetCmd() *cobra.Command {
	var (
		asJSON bool
		cfg    *config.Config
	)

	cmd := &cobra.Command{
		Use:   "get <card-id>",
		Short: getShortDesc,
		Long:  "Fetch a single debate card by id via the cards API.",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPITarget})
			cfg = config.Resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := client.New(cfg.Client.APITarget, cfg.Client.Token)
			if err != nil {
				return err
			}

			got, err := cl.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(got)
			}

			fmt.Fprintln(w)
			searchcmder.PrintCard(w, 1, card.ScoredCard{Card: got.Card})
			return nil
		},
	}

	var target string
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &target)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the card as JSON")

	return cmd
}
