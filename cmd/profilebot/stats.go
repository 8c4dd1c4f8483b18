package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print an aggregate profile snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		a, _, err := buildApp()
		if err != nil {
			fatal(err)
		}

		stats, err := a.Repository().GetStats()
		if err != nil {
			fatal(err)
		}

		fmt.Printf("Profiles:           %d\n", stats.Total)
		fmt.Printf("  agents:           %d\n", stats.Agents)
		fmt.Printf("  scrapers:         %d\n", stats.Scrapers)
		fmt.Printf("  resources:        %d\n", stats.Resources)
		fmt.Printf("With pending tasks: %d\n", stats.WithPendingTasks)
		fmt.Printf("Needing update:     %d\n", stats.NeedingUpdate)
	},
}
