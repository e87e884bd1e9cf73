package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/auth"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

var (
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a development bearer token signed with JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := domain.Role(tokenRole)
		if role != domain.RoleAdmin && role != domain.RoleReader {
			return fmt.Errorf("unknown role %q", tokenRole)
		}

		token, err := auth.NewAdapter(cfg.JWTSecret).GenerateToken(auth.NewClaims(args[0], role, time.Now(), tokenTTL))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleReader), "reader or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
