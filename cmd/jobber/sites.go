package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/adapter"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List supported job boards",
	Long:  "Prints each supported job board and the URL fragment that marks its job pages.",
	Args:  cobra.NoArgs,
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	fmt.Printf("%-15s %s\n", "Site", "Job page URL contains")
	fmt.Println(strings.Repeat("─", 47))

	sites := adapter.Sites()
	for _, s := range sites {
		fmt.Printf("%-15s %s\n", s.Source, s.Pattern)
	}

	fmt.Printf("\nTotal: %d sites\n", len(sites))
	return nil
}
