package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/board"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive application board",
	Long:  "Full-screen board of your applications. Keys 1-4 change status, d deletes, o opens the posting.",
	Args:  cobra.NoArgs,
	RunE:  runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	// The board owns the terminal; only warnings reach stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	b, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	svc := board.NewService(b.apps, newLifecycle(cfg, b, logger), b.identity.UserID)
	apps, err := board.RunLoader("applications", svc.List)
	if err != nil {
		return err
	}
	return board.Run(apps, svc)
}
