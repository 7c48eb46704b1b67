package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/geostrat/paperbot/internal/blob/s3"
	"github.com/geostrat/paperbot/internal/cache/redis"
	"github.com/geostrat/paperbot/internal/classify"
	"github.com/geostrat/paperbot/internal/config"
	"github.com/geostrat/paperbot/internal/domain"
	"github.com/geostrat/paperbot/internal/notify"
	"github.com/geostrat/paperbot/internal/platform/polymarket"
	"github.com/geostrat/paperbot/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function. Fields not needed by the configured mode stay
// nil.
type Dependencies struct {
	Strategies []domain.Strategy

	Source     domain.MarketSource
	Classifier domain.Classifier

	PortfolioStore domain.PortfolioStore
	PositionStore  domain.PositionStore

	Locks     domain.LockManager
	Archiver  domain.SnapshotArchiver
	Snapshots *s3blob.Reader

	Notifier *notify.Notifier
}

// needsPostgres returns true for modes that read or write portfolio state.
func needsPostgres(mode string) bool {
	switch mode {
	case "paper", "schedule", "monitor", "report":
		return true
	default:
		return false
	}
}

// needsRedis returns true for modes that take the run lock. Scan and report
// stay dependency-light so they can run anywhere.
func needsRedis(mode string) bool {
	switch mode {
	case "paper", "schedule":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()
	mode := strings.ToLower(cfg.Mode)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Strategy catalog ---
	catalog := config.NewCatalog()
	if err := catalog.Validate(); err != nil {
		return nil, nil, fmt.Errorf("wire: catalog: %w", err)
	}
	strategies, err := catalog.Resolve(cfg.Run.Group, cfg.Run.Strategies)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: resolve strategies: %w", err)
	}
	deps.Strategies = strategies

	// --- Polymarket market source ---
	deps.Source = polymarket.NewGammaClient(
		cfg.Polymarket.GammaHost,
		cfg.Polymarket.PageSize,
		cfg.Polymarket.MaxPages,
		logger,
	)

	// --- PostgreSQL (only for modes that need persistence) ---
	if needsPostgres(mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.PortfolioStore = postgres.NewPortfolioStore(pool)
		deps.PositionStore = postgres.NewPositionStore(pool)
	}

	// --- Redis (run lock and classification cache) ---
	var redisClient *redis.Client
	if needsRedis(mode) {
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Locks = redis.NewLockManager(redisClient)
	}

	// --- Classifier ---
	deps.Classifier = buildClassifier(cfg, redisClient, logger)

	// --- S3 run snapshot archive ---
	if cfg.S3.Enabled && (needsRedis(mode) || mode == "report") {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewRunArchiver(s3blob.NewWriter(s3Client))
		deps.Snapshots = s3blob.NewReader(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// buildClassifier assembles the configured classifier backend, wrapped in the
// Redis cache when one is available.
func buildClassifier(cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) domain.Classifier {
	var inner domain.Classifier
	switch strings.ToLower(cfg.Classifier.Backend) {
	case "llm":
		inner = classify.NewLLMClassifier(
			cfg.Classifier.Endpoint,
			cfg.Classifier.Model,
			cfg.Classifier.APIKey,
			cfg.Classifier.BatchSize,
			cfg.Classifier.Timeout.Duration,
			logger,
		)
	default:
		inner = classify.NewKeywordClassifier()
	}

	if cfg.Classifier.CacheEnable && redisClient != nil {
		cache := redis.NewClassificationCache(redisClient, cfg.Classifier.CacheTTL.Duration)
		return classify.NewCachedClassifier(inner, cache, logger)
	}
	return inner
}
