package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from a TOML file, applies defaults and expands
// environment variable references in string values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Default returns a configuration with every default applied, without reading
// a file. Used when no config file is present.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Data.Root == "" {
		errors = append(errors, fmt.Errorf("data.root is required"))
	} else if err := validatePath(c.Data.Root, "data.root"); err != nil {
		errors = append(errors, err)
	}

	if c.Data.ProfilesFile == "" {
		errors = append(errors, fmt.Errorf("data.profiles_file is required"))
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Limits.MinDelaySeconds < 0 {
		errors = append(errors, fmt.Errorf("limits.min_delay_seconds cannot be negative"))
	}
	if c.Limits.MaxDelaySeconds < c.Limits.MinDelaySeconds {
		errors = append(errors, fmt.Errorf("limits.max_delay_seconds must be >= limits.min_delay_seconds"))
	}
	if c.Limits.WorkShiftHours < 0 || c.Limits.WorkShiftHours > 24 {
		errors = append(errors, fmt.Errorf("limits.work_shift_hours must be between 0 and 24"))
	}

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.Token == "" {
			errors = append(errors, fmt.Errorf("notify.telegram.token is required when telegram is enabled"))
		} else if err := validateTelegramToken(c.Notify.Telegram.Token); err != nil {
			errors = append(errors, err)
		}
		if c.Notify.Telegram.ChatID == 0 {
			errors = append(errors, fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled"))
		}
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, fmt.Errorf("metrics.listen is required when metrics is enabled"))
	}

	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		errors = append(errors, fmt.Errorf("scheduler.spec is required when scheduler is enabled"))
	}

	return errors
}

// ResolvedLogOutput returns the logger's output destination. A bare file
// name is placed under data.logs_dir; stdout, stderr, and path-qualified
// values pass through unchanged.
func (c *Config) ResolvedLogOutput() string {
	out := c.Logging.Output
	if out == "stdout" || out == "stderr" {
		return out
	}
	if filepath.IsAbs(out) || strings.ContainsRune(out, os.PathSeparator) {
		return out
	}
	return filepath.Join(c.Data.LogsDir, out)
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("notify.telegram.token has invalid format (expected <bot_id>:<token>)")
	}
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return fmt.Errorf("notify.telegram.token has invalid bot ID (expected digits only)")
		}
	}
	return nil
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

// applyDefaults fills in default values for every field left unset.
func applyDefaults(c *Config) {
	if c.Data.Root == "" {
		c.Data.Root = "./data"
	}
	if c.Data.ProfilesFile == "" {
		c.Data.ProfilesFile = filepath.Join(c.Data.Root, "allProfilesData.json")
	}
	if c.Data.LogsDir == "" {
		c.Data.LogsDir = filepath.Join(c.Data.Root, "logs")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Limits.MaxDailyFollows == 0 {
		c.Limits.MaxDailyFollows = 50
	}
	if c.Limits.MaxDailyLikes == 0 {
		c.Limits.MaxDailyLikes = 200
	}
	if c.Limits.MinDelaySeconds == 0 {
		c.Limits.MinDelaySeconds = 1
	}
	if c.Limits.MaxDelaySeconds == 0 {
		c.Limits.MaxDelaySeconds = 3
	}
	if c.Limits.MinDaysToCheckResource == 0 {
		c.Limits.MinDaysToCheckResource = 7
	}
	if c.Limits.WorkShiftHours == 0 {
		c.Limits.WorkShiftHours = 16
	}
	if c.Limits.ProfileMaxAgeHours == 0 {
		c.Limits.ProfileMaxAgeHours = 24
	}

	if c.Scraping.TimeoutSeconds == 0 {
		c.Scraping.TimeoutSeconds = 30
	}
	if c.Scraping.RetryAttempts == 0 {
		c.Scraping.RetryAttempts = 3
	}
	if c.Scraping.UserAgent == "" {
		c.Scraping.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = "*/30 * * * *"
	}
}

// expandEnvVars expands ${VAR} references in string configuration values.
func expandEnvVars(c *Config) {
	expand := func(s string) string {
		return os.Expand(s, func(key string) string {
			return os.Getenv(key)
		})
	}

	c.Data.Root = expand(c.Data.Root)
	c.Data.ProfilesFile = expand(c.Data.ProfilesFile)
	c.Data.LogsDir = expand(c.Data.LogsDir)
	c.Logging.Output = expand(c.Logging.Output)
	c.Browser.ChromeExecutablePath = expand(c.Browser.ChromeExecutablePath)
	c.Scraping.BaseURL = expand(c.Scraping.BaseURL)
	c.Notify.Telegram.Token = expand(c.Notify.Telegram.Token)
	c.Metrics.Listen = expand(c.Metrics.Listen)
}
