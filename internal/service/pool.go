package service

import (
	"context"
	"fmt"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
	"github.com/geostrat/paperbot/internal/engine"
)

// BuildPool fetches all open markets, classifies the questions in one
// batch, and enriches each market into a candidate. The pool is built
// once per run and shared read-only by all strategies; the returned map
// counts rejected markets by reason.
func BuildPool(ctx context.Context, source domain.MarketSource, classifier domain.Classifier, now time.Time) ([]domain.Candidate, map[string]int, error) {
	markets, err := source.ListOpenMarkets(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("service: list markets: %w", err)
	}

	questions := make([]string, len(markets))
	for i, m := range markets {
		questions[i] = m.Question
	}
	verdicts, err := classifier.ClassifyBatch(ctx, questions)
	if err != nil {
		return nil, nil, fmt.Errorf("service: classify markets: %w", err)
	}

	var pool []domain.Candidate
	rejects := make(map[string]int)
	for i, m := range markets {
		cand, reason := engine.Enrich(m, now, verdicts[i])
		if reason != engine.RejectNone {
			rejects[string(reason)]++
			continue
		}
		pool = append(pool, cand)
	}
	return pool, rejects, nil
}
