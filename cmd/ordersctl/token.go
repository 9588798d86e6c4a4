package main

import (
	"encoding/json"
	"time"

	"github.com/Bessima/orderflow/internal/handlers"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/spf13/cobra"
)

var (
	tokenUsername string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := handlers.NewAuthHandler(&handlers.JWTConfig{
			SecretKey:      loadConfig().JWTSecret,
			AccessTokenTTL: tokenTTL,
		})
		token, err := auth.GenerateToken(&models.User{ID: userID, Username: tokenUsername})
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(token)
	},
}

func init() {
	requireUser(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenUsername, "name", "operator", "user name stored in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
