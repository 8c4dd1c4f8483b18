package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[data]
root = "./data"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Data.Root)
	assert.Equal(t, filepath.Join("./data", "allProfilesData.json"), cfg.Data.ProfilesFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 50, cfg.Limits.MaxDailyFollows)
	assert.Equal(t, 200, cfg.Limits.MaxDailyLikes)
	assert.Equal(t, 16, cfg.Limits.WorkShiftHours)
	assert.Equal(t, 24, cfg.Limits.ProfileMaxAgeHours)
	assert.Equal(t, 3, cfg.Scraping.RetryAttempts)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, `[data`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PROFILEBOT_DATA", "/var/lib/profilebot")

	path := writeConfig(t, `
[data]
root = "${PROFILEBOT_DATA}"
profiles_file = "${PROFILEBOT_DATA}/allProfilesData.json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/profilebot", cfg.Data.Root)
	assert.Equal(t, "/var/lib/profilebot/allProfilesData.json", cfg.Data.ProfilesFile)
}

func TestResolvedLogOutput(t *testing.T) {
	cfg := Default()
	cfg.Data.LogsDir = "/var/log/profilebot"

	cfg.Logging.Output = "stdout"
	assert.Equal(t, "stdout", cfg.ResolvedLogOutput())

	cfg.Logging.Output = "stderr"
	assert.Equal(t, "stderr", cfg.ResolvedLogOutput())

	// A bare file name lands in data.logs_dir.
	cfg.Logging.Output = "profilebot.log"
	assert.Equal(t, filepath.Join("/var/log/profilebot", "profilebot.log"), cfg.ResolvedLogOutput())

	// Path-qualified values pass through.
	cfg.Logging.Output = "/tmp/other.log"
	assert.Equal(t, "/tmp/other.log", cfg.ResolvedLogOutput())

	cfg.Logging.Output = "logs/other.log"
	assert.Equal(t, "logs/other.log", cfg.ResolvedLogOutput())
}

func TestValidate_Valid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	cfg.Logging.Format = "xml"
	cfg.Limits.WorkShiftHours = 40

	errs := cfg.Validate()
	assert.Len(t, errs, 3)
}

func TestValidate_TelegramEnabled(t *testing.T) {
	cfg := Default()
	cfg.Notify.Telegram.Enabled = true

	errs := cfg.Validate()
	require.NotEmpty(t, errs)

	cfg.Notify.Telegram.Token = "123456:ABC-DEF1234ghIkl"
	cfg.Notify.Telegram.ChatID = 42
	assert.Empty(t, cfg.Validate())
}

func TestValidate_TelegramTokenFormat(t *testing.T) {
	cfg := Default()
	cfg.Notify.Telegram.Enabled = true
	cfg.Notify.Telegram.Token = "not-a-token"
	cfg.Notify.Telegram.ChatID = 42

	errs := cfg.Validate()
	assert.Len(t, errs, 1)
}

func TestLoadEnvOptional(t *testing.T) {
	// Missing file is not an error.
	require.NoError(t, LoadEnvOptional(filepath.Join(t.TempDir(), ".env")))

	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nPROFILEBOT_TEST_KEY=hello\n\nBADLINE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	require.NoError(t, LoadEnvOptional(path))
	assert.Equal(t, "hello", os.Getenv("PROFILEBOT_TEST_KEY"))
	t.Cleanup(func() { os.Unsetenv("PROFILEBOT_TEST_KEY") })
}
