package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PAPERBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PAPERBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "PAPERBOT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "PAPERBOT_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.PageSize, "PAPERBOT_POLYMARKET_PAGE_SIZE")
	setInt(&cfg.Polymarket.MaxPages, "PAPERBOT_POLYMARKET_MAX_PAGES")

	// ── Database ──
	setStr(&cfg.Database.DSN, "PAPERBOT_DATABASE_DSN")
	setStr(&cfg.Database.Host, "PAPERBOT_DATABASE_HOST")
	setInt(&cfg.Database.Port, "PAPERBOT_DATABASE_PORT")
	setStr(&cfg.Database.Database, "PAPERBOT_DATABASE_NAME")
	setStr(&cfg.Database.User, "PAPERBOT_DATABASE_USER")
	setStr(&cfg.Database.Password, "PAPERBOT_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "PAPERBOT_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "PAPERBOT_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "PAPERBOT_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "PAPERBOT_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PAPERBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PAPERBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PAPERBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PAPERBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PAPERBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PAPERBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "PAPERBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PAPERBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PAPERBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "PAPERBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PAPERBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PAPERBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PAPERBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PAPERBOT_S3_FORCE_PATH_STYLE")

	// ── Run ──
	setStr(&cfg.Run.Group, "PAPERBOT_RUN_GROUP")
	setStringSlice(&cfg.Run.Strategies, "PAPERBOT_RUN_STRATEGIES")
	setFloat64(&cfg.Run.Bankroll, "PAPERBOT_RUN_BANKROLL")
	setDuration(&cfg.Run.LockTTL, "PAPERBOT_RUN_LOCK_TTL")

	// ── Classifier ──
	setStr(&cfg.Classifier.Backend, "PAPERBOT_CLASSIFIER_BACKEND")
	setStr(&cfg.Classifier.Endpoint, "PAPERBOT_CLASSIFIER_ENDPOINT")
	setStr(&cfg.Classifier.Model, "PAPERBOT_CLASSIFIER_MODEL")
	setStr(&cfg.Classifier.APIKey, "PAPERBOT_CLASSIFIER_API_KEY")
	setInt(&cfg.Classifier.BatchSize, "PAPERBOT_CLASSIFIER_BATCH_SIZE")
	setDuration(&cfg.Classifier.Timeout, "PAPERBOT_CLASSIFIER_TIMEOUT")
	setDuration(&cfg.Classifier.CacheTTL, "PAPERBOT_CLASSIFIER_CACHE_TTL")
	setBool(&cfg.Classifier.CacheEnable, "PAPERBOT_CLASSIFIER_CACHE_ENABLE")

	// ── Schedule ──
	setStr(&cfg.Schedule.Cron, "PAPERBOT_SCHEDULE_CRON")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PAPERBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PAPERBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PAPERBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PAPERBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PAPERBOT_MODE")
	setStr(&cfg.LogLevel, "PAPERBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
