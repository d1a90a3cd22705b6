package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/model"
	"github.com/amishk599/jobber/internal/notifier"
)

var notifyStatus string

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample saved-application event through the configured notifier. With --status, sends a status change to that status instead.",
	RunE:  runNotifyTest,
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyStatus, "status", "", "send a status change to this status (interview, offer, rejected)")
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)

	if notifyStatus == "" {
		err = notifier.SendTestMessage(n)
	} else {
		to, perr := model.ParseStatus(notifyStatus)
		if perr != nil {
			return perr
		}
		now := time.Now()
		err = n.Notify([]model.Event{{
			Kind: model.EventStatusChanged,
			Application: model.Application{
				ID:       "test-002",
				Company:  "Jobber Test",
				Position: "Status Change Preview",
				Status:   to,
				Date:     now,
			},
			From:    model.StatusApplied,
			Message: lifecycle.Message(to),
		}})
	}
	if err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
