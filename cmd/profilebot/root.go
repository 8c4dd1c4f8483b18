package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/profilebot/profilebot/internal/app"
	"github.com/profilebot/profilebot/internal/config"
	"github.com/profilebot/profilebot/internal/logger"
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "profilebot",
	Short: "Profilebot - social profile automation pipeline",
	Long: `Profilebot manages a set of social profiles, each carrying a durable
task queue, and dispatches the queued automation, scraping, and media
work against external services.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.toml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug|info|warn|error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(taskCmd)
}

// loadConfig loads and validates the configuration shared by most commands.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvOptional("./.env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		return nil, fmt.Errorf("configuration validation failed with %d errors", len(errs))
	}
	return cfg, nil
}

// buildApp loads config, builds the logger, and initializes the application.
func buildApp() (*app.App, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.ResolvedLogOutput(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger.SetDefault(log)

	a := app.New(cfg, log)
	if err := a.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialize application: %w", err)
	}
	return a, log, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
