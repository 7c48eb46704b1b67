package domain

import "context"

// Classification is the verdict of a text classifier for one market
// question.
type Classification struct {
	Geopolitical bool
	Cluster      string
}

// Classifier maps a market question to a classification. Batch
// implementations may call remote services; callers treat the result
// as authoritative for the run.
type Classifier interface {
	Classify(ctx context.Context, question string) (Classification, error)
	ClassifyBatch(ctx context.Context, questions []string) ([]Classification, error)
}
