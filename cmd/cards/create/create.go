// Package createcmder provides the create command for submitting cards.
package createcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cards/pkg/cliui"
	"github.com/papercomputeco/cards/pkg/client"
	"github.com/papercomputeco/cards/pkg/config"
)

const createLongDesc string = `Submit a new debate card via the cards API.

The card content is embedded by the server and stored for similarity search.
Set client.token (or CARDS_CLIENT_TOKEN) to record yourself as the owner.

Examples:
  cards create "Carbon taxes cut emissions at low cost" --topic climate --side pro
  cards create "Tariffs raise consumer prices" --topic trade --side con --link https://example.com/study`

const createShortDesc string = "Submit a debate card"

func NewCreateCmd() *cobra.Command {
	var (
		topic string
		side  string
		link  string
		cfg   *config.Config
	)

	cmd := &cobra.Command{
		Use:   "create <content>",
		Short: createShortDesc,
		Long:  createLongDesc,
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

			var linkPtr *string
			if cmd.Flags().Changed("link") {
				linkPtr = &link
			}

			id, err := cl.Create(cmd.Context(), args[0], topic, side, linkPtr)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Created %s\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(id),
			)
			return nil
		},
	}

	var target string
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &target)
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Debate topic")
	cmd.Flags().StringVarP(&side, "side", "s", "", "Side the card argues (e.g. pro, con)")
	cmd.Flags().StringVar(&link, "link", "", "Source link")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("side")

	return cmd
}
