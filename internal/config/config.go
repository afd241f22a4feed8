package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// CLASSIFIER_TELEGRAM_TOKEN for telegram.token.
const EnvPrefix = "CLASSIFIER"

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"

	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Store    StoreConfig    `mapstructure:"store"`
	Session  SessionConfig  `mapstructure:"session"`
	Flows    FlowsConfig    `mapstructure:"flows"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AdminUser         string        `mapstructure:"admin_user"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
}

type TelegramConfig struct {
	Token      string `mapstructure:"token"`
	GroupID    int64  `mapstructure:"group_id"`
	Mode       string `mapstructure:"mode"`
	WebhookURL string `mapstructure:"webhook_url"`
	Workers    int    `mapstructure:"workers"`
	Timeout    int    `mapstructure:"timeout"`
	Debug      bool   `mapstructure:"debug"`
}

type StoreConfig struct {
	Backend           string        `mapstructure:"backend"`
	SQLitePath        string        `mapstructure:"sqlite_path"`
	SheetsCredentials string        `mapstructure:"sheets_credentials"`
	SpreadsheetID     string        `mapstructure:"spreadsheet_id"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type FlowsConfig struct {
	Path           string `mapstructure:"path"`
	VocabularyPath string `mapstructure:"vocabulary_path"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	GelfAddr string `mapstructure:"gelf_addr"`
	Service  string `mapstructure:"service"`
}

// Load reads defaults, then the config file, then CLASSIFIER_* environment
// variables. An empty path looks for classifier.yaml in the working
// directory and tolerates its absence.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("auth.jwt_secret", "classifier-dev-secret-change-me")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.group_id", 0)
	v.SetDefault("telegram.mode", ModePolling)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.workers", 4)
	v.SetDefault("telegram.timeout", 60)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.sqlite_path", "classifier.db")
	v.SetDefault("store.sheets_credentials", "credentials.json")
	v.SetDefault("store.spreadsheet_id", "")
	v.SetDefault("store.breaker_failures", 5)
	v.SetDefault("store.breaker_cooldown", 30*time.Second)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("flows.path", "")
	v.SetDefault("flows.vocabulary_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.gelf_addr", "")
	v.SetDefault("log.service", "classifier")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("classifier")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values every command depends on.
func (c *Config) Validate() error {
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return errors.New("config: telegram.webhook_url is required in webhook mode")
		}
	default:
		return fmt.Errorf("config: unknown telegram.mode %q", c.Telegram.Mode)
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("config: store.sqlite_path is required")
		}
	case BackendSheets:
		if c.Store.SpreadsheetID == "" {
			return errors.New("config: store.spreadsheet_id is required for the sheets backend")
		}
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Telegram.Workers < 1 {
		return errors.New("config: telegram.workers must be at least 1")
	}
	return nil
}

// ValidateBot checks the settings needed to talk to Telegram.
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return errors.New("config: telegram.token is required")
	}
	if c.Telegram.GroupID == 0 {
		return errors.New("config: telegram.group_id is required")
	}
	return nil
}
