package main

import (
	"fmt"

	"github.com/Chesten223/SoRight3/internal/service/auth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newTokenCmd issues access tokens. Accounts live outside this service, so
// this is how a local user obtains a bearer token.
func newTokenCmd(opts *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID := uuid.New()
			if user != "" {
				parsed, err := uuid.Parse(user)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				userID = parsed
			}

			cfg, _, err := bootstrap(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenService(cfg.Auth)
			if err != nil {
				return err
			}
			token, err := tokens.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user_id: %s\ntoken: %s\n", userID, token)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id to embed (a new id when empty)")
	return cmd
}
