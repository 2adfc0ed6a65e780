// Package votecmder provides the vote command.
package votecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cards/pkg/cliui"
	"github.com/papercomputeco/cards/pkg/client"
	"github.com/papercomputeco/cards/pkg/config"
)

const voteLongDesc string = `Vote on a debate card via the cards API.

Adds one upvote to the card, or one downvote with --down.

Examples:
  cards vote 7f1d9c4e-2b7a-4f0e-9a51-0c3c2f1e8d11
  cards vote 7f1d9c4e-2b7a-4f0e-9a51-0c3c2f1e8d11 --down`

const voteShortDesc string = "Vote on a debate card"

func NewVoteCmd() *cobra.Command {
	var (
		down bool
		cfg  *config.Config
	)

	cmd := &cobra.Command{
		Use:   "vote <card-id>",
		Short: voteShortDesc,
		Long:  voteLongDesc,
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

			if err := cl.Vote(cmd.Context(), args[0], !down); err != nil {
				return err
			}

			direction := "up"
			if down {
				direction = "down"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s Voted %s on %s\n",
				cliui.SuccessMark,
				cliui.ValueStyle.Render(direction),
				cliui.KeyStyle.Render(args[0]),
			)
			return nil
		},
	}

	var target string
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &target)
	cmd.Flags().BoolVar(&down, "down", false, "Downvote instead of upvote")

	return cmd
}
