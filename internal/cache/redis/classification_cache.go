package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geostrat/paperbot/internal/domain"
)

const defaultClassificationTTL = 7 * 24 * time.Hour

// ClassificationCache implements domain.ClassificationCache using Redis
// strings with JSON-serialized verdicts. Questions are keyed by hash so
// arbitrary market text stays out of the key space.
//
// Key schema:
//
//	classify:{sha256(question)} - JSON Classification
type ClassificationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClassificationCache creates a ClassificationCache backed by the given
// Client. A non-positive ttl falls back to seven days; verdicts only
// change when the classifier prompt does.
func NewClassificationCache(c *Client, ttl time.Duration) *ClassificationCache {
	if ttl <= 0 {
		ttl = defaultClassificationTTL
	}
	return &ClassificationCache{rdb: c.Underlying(), ttl: ttl}
}

func classificationKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "classify:" + hex.EncodeToString(sum[:])
}

// Get retrieves a cached verdict for the question.
// It returns domain.ErrNotFound when no verdict is cached.
func (cc *ClassificationCache) Get(ctx context.Context, question string) (domain.Classification, error) {
	data, err := cc.rdb.Get(ctx, classificationKey(question)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Classification{}, domain.ErrNotFound
		}
		return domain.Classification{}, fmt.Errorf("redis: get classification: %w", err)
	}

	var cls domain.Classification
	if err := json.Unmarshal(data, &cls); err != nil {
		return domain.Classification{}, fmt.Errorf("redis: unmarshal classification: %w", err)
	}
	return cls, nil
}

// Set stores a verdict for the question with the configured TTL.
func (cc *ClassificationCache) Set(ctx context.Context, question string, cls domain.Classification) error {
	data, err := json.Marshal(cls)
	if err != nil {
		return fmt.Errorf("redis: marshal classification: %w", err)
	}

	if err := cc.rdb.Set(ctx, classificationKey(question), data, cc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set classification: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ClassificationCache = (*ClassificationCache)(nil)
