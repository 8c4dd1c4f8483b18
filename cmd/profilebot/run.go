package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single dispatch pass",
	Long: `Run one dispatch pass over every profile with queued tasks, then
exit. A shutdown signal stops the pass after the task currently in
flight completes.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, log, err := buildApp()
		if err != nil {
			fatal(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, err := a.RunPass(ctx)
		if err != nil {
			log.Error("dispatch pass failed", err)
			os.Exit(1)
		}

		fmt.Printf("Pass %s: %d profiles, %d tasks completed, %d failed in %s\n",
			summary.PassID, summary.Profiles, summary.TasksCompleted, summary.TasksFailed,
			summary.Duration.Round(0))
	},
}
