package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/profilebot/profilebot/internal/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled dispatch passes (main command)",
	Long: `Start Profilebot in long-running mode: dispatch passes fire on the
configured cron schedule inside the work shift, and the Prometheus
endpoint serves /metrics. SIGINT/SIGTERM trigger a graceful shutdown
that lets the running pass finish.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, log, err := buildApp()
		if err != nil {
			fatal(err)
		}

		log.Info("starting profilebot",
			logger.Field{Key: "version", Value: Version},
			logger.Field{Key: "git_commit", Value: GitCommit},
			logger.Field{Key: "config", Value: configPath},
		)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := a.Run(ctx); err != nil {
			log.Error("serve failed", err)
			fatal(err)
		}
		log.Info("profilebot stopped")
	},
}
