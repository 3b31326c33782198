package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MODMAIL_"

// DefaultConfigFile is read when MODMAIL_CONFIG_FILE is not set and the file exists.
const DefaultConfigFile = "modmail_config.yaml"

// Config aggregates runtime configuration for the bot and its web app.
type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	App          AppConfig          `yaml:"app"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Redis        RedisConfig        `yaml:"redis"`
	Logger       LoggerConfig       `yaml:"logger"`
	Auth         AuthConfig         `yaml:"auth"`
	Notification NotificationConfig `yaml:"notification"`
	Extensions   ExtensionsConfig   `yaml:"extensions"`
	Emoji        EmojiConfig        `yaml:"emoji"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// BotConfig controls the Discord side.
type BotConfig struct {
	Token          string `yaml:"token"`
	Prefix         string `yaml:"prefix"`
	GuildID        string `yaml:"guild_id"`
	RelayChannelID string `yaml:"relay_channel_id"`
	// Mode is a comma separated list of production, develop, plugin_dev.
	Mode string `yaml:"mode"`
}

// AppConfig controls the companion web app.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	MigrationsDir  string `yaml:"migrations_dir"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig defines dashboard authentication parameters.
type AuthConfig struct {
	JWTSecret             string          `yaml:"jwt_secret"`
	AccessTokenTTLMinutes int             `yaml:"access_token_ttl_minutes"`
	BcryptCost            int             `yaml:"bcrypt_cost"`
	Accounts              []AccountConfig `yaml:"accounts"`
}

// AccountConfig is a dashboard login. PasswordHash is a bcrypt hash.
type AccountConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// NotificationConfig holds the optional webhook that mirrors ticket events.
type NotificationConfig struct {
	WebhookURL            string `yaml:"webhook_url"`
	WebhookTimeoutSeconds int    `yaml:"webhook_timeout_seconds"`
}

// ExtensionsConfig controls which extensions are loaded at startup.
type ExtensionsConfig struct {
	Disabled []string `yaml:"disabled"`
}

// EmojiConfig holds the reactions used for command feedback.
type EmojiConfig struct {
	Success string `yaml:"success"`
	Failure string `yaml:"failure"`
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Bot: BotConfig{
			Prefix: "?",
			Mode:   "production",
		},
		App: AppConfig{
			Name:                  "modmail",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "8080",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			MigrationsDir:  "migrations",
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			JWTSecret:             "dev-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            12,
		},
		Notification: NotificationConfig{
			WebhookTimeoutSeconds: 5,
		},
		Emoji: EmojiConfig{
			Success: "✅",
			Failure: "❌",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path falls back to
// MODMAIL_CONFIG_FILE, then to DefaultConfigFile if it exists.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigFile
	}
	if err := loadYAML(path, &cfg, explicit); err != nil {
		return nil, err
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAML(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return fmt.Errorf("invalid %sREDIS_DB: %w", EnvPrefix, err)
	}

	cfg.Bot.Token = getEnv("BOT_TOKEN", cfg.Bot.Token)
	cfg.Bot.Prefix = getEnv("BOT_PREFIX", cfg.Bot.Prefix)
	cfg.Bot.GuildID = getEnv("BOT_GUILD_ID", cfg.Bot.GuildID)
	cfg.Bot.RelayChannelID = getEnv("BOT_RELAY_CHANNEL_ID", cfg.Bot.RelayChannelID)
	cfg.Bot.Mode = getEnv("BOT_MODE", cfg.Bot.Mode)

	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnv("APP_PORT", cfg.App.Port)
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.RequestTimeoutSeconds = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds)

	cfg.Postgres.DSN = getEnv("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxConns = int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns)))
	cfg.Postgres.MinConns = int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns)))
	cfg.Postgres.RunMigrations = getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations)
	cfg.Postgres.MigrationsDir = getEnv("POSTGRES_MIGRATIONS_DIR", cfg.Postgres.MigrationsDir)
	cfg.Postgres.ConnMaxIdleSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec)))
	cfg.Postgres.ConnMaxLifeSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec)))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = redisDB

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)

	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTLMinutes = getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", cfg.Auth.AccessTokenTTLMinutes)
	cfg.Auth.BcryptCost = getEnvAsInt("AUTH_BCRYPT_COST", cfg.Auth.BcryptCost)
	if user := getEnv("ADMIN_USERNAME", ""); user != "" {
		cfg.Auth.Accounts = append(cfg.Auth.Accounts, AccountConfig{
			Username:     user,
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			Role:         "ADMIN",
		})
	}

	cfg.Notification.WebhookURL = getEnv("NOTIFY_WEBHOOK_URL", cfg.Notification.WebhookURL)
	cfg.Notification.WebhookTimeoutSeconds = getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", cfg.Notification.WebhookTimeoutSeconds)

	if disabled := getEnv("EXTENSIONS_DISABLED", ""); disabled != "" {
		cfg.Extensions.Disabled = splitList(disabled)
	}

	cfg.Emoji.Success = getEnv("EMOJI_SUCCESS", cfg.Emoji.Success)
	cfg.Emoji.Failure = getEnv("EMOJI_FAILURE", cfg.Emoji.Failure)

	cfg.Metrics.Enabled = getEnvAsBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	return nil
}

// Validate reports settings the bot cannot start without.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Bot.Token) == "" {
		problems = append(problems, EnvPrefix+"BOT_TOKEN is required")
	}
	if strings.TrimSpace(c.Bot.RelayChannelID) == "" {
		problems = append(problems, EnvPrefix+"BOT_RELAY_CHANNEL_ID is required")
	}
	if strings.TrimSpace(c.Bot.Prefix) == "" {
		problems = append(problems, "bot prefix cannot be empty")
	}
	for _, acc := range c.Auth.Accounts {
		if acc.Username == "" || acc.PasswordHash == "" {
			problems = append(problems, "dashboard accounts need a username and password_hash")
			break
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// WebhookTimeout returns the per-request webhook timeout.
func (n NotificationConfig) WebhookTimeout() time.Duration {
	if n.WebhookTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.WebhookTimeoutSeconds) * time.Second
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
