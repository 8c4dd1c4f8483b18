package config

// Config is the root configuration structure loaded from the TOML file.
type Config struct {
	Data      DataConfig      `toml:"data"`
	Logging   LoggingConfig   `toml:"logging"`
	Limits    LimitsConfig    `toml:"limits"`
	Browser   BrowserConfig   `toml:"browser"`
	Scraping  ScrapingConfig  `toml:"scraping"`
	Notify    NotifyConfig    `toml:"notify"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// DataConfig describes where profile data lives on disk.
type DataConfig struct {
	Root         string `toml:"root"`          // Base directory for all persisted data
	ProfilesFile string `toml:"profiles_file"` // Path to the shared profiles index file
	LogsDir      string `toml:"logs_dir"`      // Directory for log files
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
	Output string `toml:"output"` // stdout, stderr, or a file path
}

// LimitsConfig holds platform safety limits and pacing settings.
type LimitsConfig struct {
	MaxDailyFollows        int     `toml:"max_daily_follows"`
	MaxDailyLikes          int     `toml:"max_daily_likes"`
	MinDelaySeconds        float64 `toml:"min_delay_seconds"` // Minimum pause between profiles
	MaxDelaySeconds        float64 `toml:"max_delay_seconds"` // Maximum pause between profiles
	MinDaysToCheckResource int     `toml:"min_days_to_check_resource"`
	WorkShiftHours         int     `toml:"work_shift_hours"`      // Hours per day the bot is allowed to work
	ProfileMaxAgeHours     int     `toml:"profile_max_age_hours"` // Metadata staleness threshold
}

// BrowserConfig configures the external browser automation driver.
type BrowserConfig struct {
	ChromeExecutablePath string `toml:"chrome_executable_path"`
	Headless             bool   `toml:"headless"`
}

// ScrapingConfig configures the public-page scraper.
type ScrapingConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
	UserAgent      string `toml:"user_agent"`
}

// NotifyConfig groups notification sinks.
type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

// TelegramConfig configures the Telegram task-observation sink.
type TelegramConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
	ChatID  int64  `toml:"chat_id"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"` // host:port for the /metrics endpoint
}

// SchedulerConfig configures periodic dispatch passes in serve mode.
type SchedulerConfig struct {
	Enabled bool   `toml:"enabled"`
	Spec    string `toml:"spec"` // cron spec, e.g. "*/30 * * * *"
}
