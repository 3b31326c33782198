package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modmail_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG_FILE", "")
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "?", cfg.Bot.Prefix)
	assert.Equal(t, "production", cfg.Bot.Mode)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	t.Setenv("RELAY_FROM_ENV", "5555")
	path := writeConfig(t, `
bot:
  token: yaml-token
  prefix: "!"
  relay_channel_id: ${RELAY_FROM_ENV}
redis:
  addr: redis:6379
extensions:
  disabled: [notify]
auth:
  accounts:
    - username: alice
      password_hash: hash
      role: MODERATOR
`)
	t.Setenv(EnvPrefix+"BOT_TOKEN", "env-token")
	t.Setenv(EnvPrefix+"REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, "!", cfg.Bot.Prefix)
	assert.Equal(t, "5555", cfg.Bot.RelayChannelID)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"notify"}, cfg.Extensions.Disabled)
	require.Len(t, cfg.Auth.Accounts, 1)
	assert.Equal(t, "alice", cfg.Auth.Accounts[0].Username)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvAdminAccountAndList(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvPrefix+"CONFIG_FILE", "")
	t.Setenv(EnvPrefix+"ADMIN_USERNAME", "root")
	t.Setenv(EnvPrefix+"ADMIN_PASSWORD_HASH", "$2a$hash")
	t.Setenv(EnvPrefix+"EXTENSIONS_DISABLED", "notify, blocklist ,")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Len(t, cfg.Auth.Accounts, 1)
	assert.Equal(t, "ADMIN", cfg.Auth.Accounts[0].Role)
	assert.Equal(t, []string{"notify", "blocklist"}, cfg.Extensions.Disabled)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvPrefix+"CONFIG_FILE", "")
	t.Setenv(EnvPrefix+"REDIS_DB", "zero")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "bot: [unterminated")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
	assert.Contains(t, err.Error(), "RELAY_CHANNEL_ID")

	cfg.Bot.Token = "t"
	cfg.Bot.RelayChannelID = "1"
	require.NoError(t, cfg.Validate())

	cfg.Auth.Accounts = []AccountConfig{{Username: "bob"}}
	require.Error(t, cfg.Validate())
}

func TestWebhookTimeoutFallback(t *testing.T) {
	assert.Equal(t, 5*time.Second, NotificationConfig{}.WebhookTimeout())
	assert.Equal(t, 2*time.Second, NotificationConfig{WebhookTimeoutSeconds: 2}.WebhookTimeout())
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
