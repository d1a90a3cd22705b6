package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/store"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API bearer tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create <user-id>",
	Short: "Mint a bearer token for a user",
	Long:  "Creates an API token in the local database. Give it to the extension or set auth.token on a remote CLI.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenCreate,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a bearer token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenRevoke,
}

func init() {
	tokenCmd.AddCommand(tokenCreateCmd, tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}

func withTokens(fn func(ctx context.Context, tokens *store.TokenStore) error) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	return fn(context.Background(), db.Tokens())
}

func runTokenCreate(cmd *cobra.Command, args []string) error {
	return withTokens(func(ctx context.Context, tokens *store.TokenStore) error {
		token, err := tokens.Create(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	})
}

func runTokenRevoke(cmd *cobra.Command, args []string) error {
	return withTokens(func(ctx context.Context, tokens *store.TokenStore) error {
		if err := tokens.Revoke(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("token revoked")
		return nil
	})
}
