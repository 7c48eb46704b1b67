package classify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geostrat/paperbot/internal/domain"
)

// CachedClassifier wraps any classifier with a verdict cache. Cache
// errors degrade to the inner classifier; they never fail a run.
type CachedClassifier struct {
	inner  domain.Classifier
	cache  domain.ClassificationCache
	logger *slog.Logger
}

// NewCachedClassifier wraps inner with the given cache.
func NewCachedClassifier(inner domain.Classifier, cache domain.ClassificationCache, logger *slog.Logger) *CachedClassifier {
	return &CachedClassifier{
		inner:  inner,
		cache:  cache,
		logger: logger.With(slog.String("component", "classify_cache")),
	}
}

// Classify consults the cache first and stores fresh verdicts.
func (c *CachedClassifier) Classify(ctx context.Context, question string) (domain.Classification, error) {
	if cls, err := c.cache.Get(ctx, question); err == nil {
		return cls, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("cache get failed", slog.String("error", err.Error()))
	}

	cls, err := c.inner.Classify(ctx, question)
	if err != nil {
		return domain.Classification{}, err
	}
	if err := c.cache.Set(ctx, question, cls); err != nil {
		c.logger.Warn("cache set failed", slog.String("error", err.Error()))
	}
	return cls, nil
}

// ClassifyBatch serves hits from the cache and forwards only the
// misses to the inner classifier, preserving input order.
func (c *CachedClassifier) ClassifyBatch(ctx context.Context, questions []string) ([]domain.Classification, error) {
	out := make([]domain.Classification, len(questions))
	missIdx := make([]int, 0, len(questions))
	missQs := make([]string, 0, len(questions))

	for i, q := range questions {
		cls, err := c.cache.Get(ctx, q)
		if err == nil {
			out[i] = cls
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("cache get failed", slog.String("error", err.Error()))
		}
		missIdx = append(missIdx, i)
		missQs = append(missQs, q)
	}

	if len(missQs) == 0 {
		return out, nil
	}

	fresh, err := c.inner.ClassifyBatch(ctx, missQs)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = fresh[j]
		if err := c.cache.Set(ctx, missQs[j], fresh[j]); err != nil {
			c.logger.Warn("cache set failed", slog.String("error", err.Error()))
		}
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.Classifier = (*CachedClassifier)(nil)
