// Package tokencmder provides the token command for issuing bearer tokens.
package tokencmder

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cards/pkg/auth"
	"github.com/papercomputeco/cards/pkg/config"
)

const tokenLongDesc string = `Issue a bearer token for a card owner.

The token is signed with auth.jwt_secret, so it is accepted by any cards API
server sharing that secret. Use it as client.token or CARDS_CLIENT_TOKEN.

Examples:
  cards token alice
  cards token alice --ttl 24h`

func NewTokenCmd() *cobra.Command {
	var (
		ttl time.Duration
		cfg *config.Config
	)

	cmd := &cobra.Command{
		Use:   "token <owner-id>",
		Short: "Issue a bearer token for a card owner",
		Long:  tokenLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = config.Resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set")
			}

			token, err := auth.NewValidator(cfg.Auth.JWTSecret).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (0 never expires)")

	return cmd
}
