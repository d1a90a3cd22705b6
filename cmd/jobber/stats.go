package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/model"
	"github.com/amishk599/jobber/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show application dashboard numbers",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	return withBackend(func(ctx context.Context, b *backend) error {
		apps, err := b.apps.Query(ctx, b.identity.UserID, model.ApplicationFilter{})
		if err != nil {
			return err
		}
		d := stats.Compute(apps, time.Now())

		fmt.Printf("%-22s %d\n", "Total applications", d.Total)
		fmt.Printf("%-22s %d\n", "This month", d.ThisMonth)
		fmt.Printf("%-22s %d\n", "In progress", d.InProgress)
		fmt.Printf("%-22s %d\n", "Interviews", d.Interviews)
		fmt.Printf("%-22s %d%%\n", "Success rate", d.SuccessRate)

		fmt.Println("\nLast 6 months")
		fmt.Println(strings.Repeat("─", 30))
		for _, m := range d.Monthly {
			fmt.Printf("%s %d  %3d %s\n", m.Name, m.Year, m.Count, strings.Repeat("█", m.Count))
		}

		if len(d.Recent) > 0 {
			fmt.Println("\nRecent")
			fmt.Println(strings.Repeat("─", 30))
			for _, a := range d.Recent {
				fmt.Printf("%s  %-10s %s at %s\n", a.Date.Local().Format("2006-01-02"), a.Status, a.Position, a.Company)
			}
		}
		return nil
	})
}
