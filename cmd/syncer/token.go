package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lotofacil_sync/internal/api"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
	tokenAdmin   bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token",
	Long: `Token mints an admin token for POST /api/v1/sync. With --admin=false
it mints a user token scoped to the subject's saved bets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		generate := api.GenerateToken
		if !tokenAdmin {
			generate = api.GenerateUserToken
		}

		token, err := generate(tokenSubject, cfg.Server.JWTSecret, tokenTTL)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", true, "mint an admin token")
}
