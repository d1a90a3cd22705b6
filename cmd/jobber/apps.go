package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/board"
	"github.com/amishk599/jobber/internal/model"
	"github.com/amishk599/jobber/internal/save"
)

var (
	listStatus string
	listLimit  int

	editCompany  string
	editPosition string
	editLocation string
	editLink     string
	editNotes    string
	editDate     string
)

var appsCmd = &cobra.Command{
	Use:     "apps",
	Aliases: []string{"applications"},
	Short:   "Manage tracked applications",
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAppsList,
}

var appsStatusCmd = &cobra.Command{
	Use:   "status <id> [applied|interview|offer|rejected]",
	Short: "Change an application's status",
	Long:  "Moves an application to a new status. Without a status argument an interactive picker is shown.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAppsStatus,
}

var appsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an application's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppsEdit,
}

var appsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an application",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppsDelete,
}

func init() {
	appsListCmd.Flags().StringVar(&listStatus, "status", "", "only show applications with this status")
	appsListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of applications to show")

	appsEditCmd.Flags().StringVar(&editCompany, "company", "", "company name")
	appsEditCmd.Flags().StringVar(&editPosition, "position", "", "position title")
	appsEditCmd.Flags().StringVar(&editLocation, "location", "", "location")
	appsEditCmd.Flags().StringVar(&editLink, "link", "", "posting URL")
	appsEditCmd.Flags().StringVar(&editNotes, "notes", "", "free-form notes")
	appsEditCmd.Flags().StringVar(&editDate, "date", "", "application date (YYYY-MM-DD)")

	appsCmd.AddCommand(appsListCmd, appsStatusCmd, appsEditCmd, appsDeleteCmd)
	rootCmd.AddCommand(appsCmd)
}

// withBackend loads config, opens the configured backend and runs fn against it.
func withBackend(fn func(ctx context.Context, b *backend) error) error {
	logger := setupLogger(debug)

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

	return fn(context.Background(), b)
}

func runAppsList(cmd *cobra.Command, args []string) error {
	filter := model.ApplicationFilter{Limit: listLimit}
	if listStatus != "" {
		st, err := model.ParseStatus(listStatus)
		if err != nil {
			return err
		}
		filter.Status = st
	}

	return withBackend(func(ctx context.Context, b *backend) error {
		apps, err := b.apps.Query(ctx, b.identity.UserID, filter)
		if err != nil {
			return err
		}
		printApplications(apps)
		return nil
	})
}

func printApplications(apps []model.Application) {
	fmt.Printf("%-36s %-10s %-11s %-25s %s\n", "ID", "Date", "Status", "Company", "Position")
	fmt.Println(strings.Repeat("─", 110))
	for _, a := range apps {
		fmt.Printf("%-36s %-10s %-11s %-25s %s\n",
			a.ID, a.Date.Local().Format("2006-01-02"), a.Status, truncate(a.Company, 25), a.Position)
	}
	fmt.Printf("\nTotal: %d applications\n", len(apps))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func runAppsStatus(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

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

	ctx := context.Background()
	id := args[0]

	var to model.Status
	if len(args) == 2 {
		to, err = model.ParseStatus(args[1])
		if err != nil {
			return err
		}
	} else {
		app, err := b.apps.Get(ctx, b.identity.UserID, id)
		if err != nil {
			return err
		}
		picked, ok, err := board.RunStatusPicker(app)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		to = picked
	}

	app, err := newLifecycle(cfg, b, logger).Transition(ctx, b.identity.UserID, id, to)
	if err != nil {
		return err
	}
	fmt.Printf("%s at %s is now %s\n", app.Position, app.Company, app.Status)
	return nil
}

func runAppsEdit(cmd *cobra.Command, args []string) error {
	var patch model.ApplicationPatch
	flags := cmd.Flags()
	if flags.Changed("company") {
		patch.Company = &editCompany
	}
	if flags.Changed("position") {
		patch.Position = &editPosition
	}
	if flags.Changed("location") {
		patch.Location = &editLocation
	}
	if flags.Changed("link") {
		patch.Link = &editLink
	}
	if flags.Changed("notes") {
		patch.Notes = &editNotes
	}
	if flags.Changed("date") {
		d, err := time.ParseInLocation("2006-01-02", editDate, time.Local)
		if err != nil {
			return &model.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
		}
		patch.Date = &d
	}
	if patch == (model.ApplicationPatch{}) {
		return fmt.Errorf("nothing to change: pass at least one field flag")
	}

	return withBackend(func(ctx context.Context, b *backend) error {
		current, err := b.apps.Get(ctx, b.identity.UserID, args[0])
		if err != nil {
			return err
		}
		if err := save.ValidateApplication(current.Apply(patch)); err != nil {
			return err
		}
		app, err := b.apps.Update(ctx, b.identity.UserID, args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("updated %s: %s at %s\n", app.ID, app.Position, app.Company)
		return nil
	})
}

func runAppsDelete(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b *backend) error {
		if err := b.apps.Delete(ctx, b.identity.UserID, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	})
}
