package command

import (
	"context"
	"fmt"

	"advising_queue/internal/auth"
	"advising_queue/internal/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// TokenCommand issues admin tokens for staff until an identity provider issues them.
type TokenCommand struct {
	Logger *log.Logger
}

func (cmd TokenCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "token <admin-email>",
		Short: "issue an admin bearer token",
		Args:  cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			token, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).GenerateAdminToken(args[0])
			if err != nil {
				cmd.Logger.WithContext(ctx).Fatal(err)
				return
			}
			fmt.Fprintln(c.OutOrStdout(), token)
		},
	}
}
