// Package config defines the top-level configuration for the paper trading
// bot, the built-in strategy catalog, and validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PAPERBOT_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Run        RunConfig        `toml:"run"`
	Classifier ClassifierConfig `toml:"classifier"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	WsHost    string `toml:"ws_host"`
	PageSize  int    `toml:"page_size"`
	MaxPages  int    `toml:"max_pages"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for run snapshots.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RunConfig selects which strategies a run evaluates and how runs are guarded.
type RunConfig struct {
	// Group names a built-in strategy group; Strategies lists individual
	// strategy names. When both are set the union is used.
	Group      string   `toml:"group"`
	Strategies []string `toml:"strategies"`
	Bankroll   float64  `toml:"bankroll"`
	LockTTL    duration `toml:"lock_ttl"`
}

// ClassifierConfig chooses how market questions are classified.
type ClassifierConfig struct {
	// Backend is "keyword" or "llm". The llm backend falls back to keyword
	// matching when the remote call fails.
	Backend     string   `toml:"backend"`
	Endpoint    string   `toml:"endpoint"`
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key"`
	BatchSize   int      `toml:"batch_size"`
	Timeout     duration `toml:"timeout"`
	CacheTTL    duration `toml:"cache_ttl"`
	CacheEnable bool     `toml:"cache_enable"`
}

// ScheduleConfig drives schedule mode.
type ScheduleConfig struct {
	// Cron is a standard 5-field cron expression.
	Cron string `toml:"cron"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			WsHost:    "wss://ws-subscriptions-clob.polymarket.com",
			PageSize:  100,
			MaxPages:  50,
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "paperbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "paperbot-runs",
			ForcePathStyle: true,
		},
		Run: RunConfig{
			Group:    "standard",
			Bankroll: 1000,
			LockTTL:  duration{10 * time.Minute},
		},
		Classifier: ClassifierConfig{
			Backend:     "keyword",
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			BatchSize:   20,
			Timeout:     duration{60 * time.Second},
			CacheTTL:    duration{7 * 24 * time.Hour},
			CacheEnable: true,
		},
		Schedule: ScheduleConfig{
			Cron: "0 */6 * * *",
		},
		Notify: NotifyConfig{
			Events: []string{"run_summary", "settlement", "run_error"},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"paper":    true,
	"scan":     true,
	"monitor":  true,
	"schedule": true,
	"report":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validClassifierBackends enumerates the accepted classifier backends.
var validClassifierBackends = map[string]bool{
	"keyword": true,
	"llm":     true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: paper, scan, monitor, schedule, report)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.PageSize < 1 {
		errs = append(errs, "polymarket: page_size must be >= 1")
	}
	if c.Polymarket.MaxPages < 1 {
		errs = append(errs, "polymarket: max_pages must be >= 1")
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	if c.Run.Group == "" && len(c.Run.Strategies) == 0 {
		errs = append(errs, "run: either group or strategies must be set")
	}
	if c.Run.Bankroll <= 0 {
		errs = append(errs, "run: bankroll must be > 0")
	}
	if c.Run.LockTTL.Duration <= 0 {
		errs = append(errs, "run: lock_ttl must be > 0")
	}

	if !validClassifierBackends[strings.ToLower(c.Classifier.Backend)] {
		errs = append(errs, fmt.Sprintf("classifier: unknown backend %q (valid: keyword, llm)", c.Classifier.Backend))
	}
	if strings.ToLower(c.Classifier.Backend) == "llm" {
		if c.Classifier.Endpoint == "" {
			errs = append(errs, "classifier: endpoint must not be empty for llm backend")
		}
		if c.Classifier.APIKey == "" {
			errs = append(errs, "classifier: api_key is required for llm backend")
		}
		if c.Classifier.BatchSize < 1 {
			errs = append(errs, "classifier: batch_size must be >= 1")
		}
	}

	if strings.ToLower(c.Mode) == "schedule" && c.Schedule.Cron == "" {
		errs = append(errs, "schedule: cron must not be empty for schedule mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
