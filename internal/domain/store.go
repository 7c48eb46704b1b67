package domain

import (
	"context"
	"time"
)

// MarketSource produces raw market records for enrichment and resolves
// individual markets no longer present in the live feed.
type MarketSource interface {
	ListOpenMarkets(ctx context.Context) ([]Market, error)
	GetMarket(ctx context.Context, id string) (Market, error)
	GetResolution(ctx context.Context, id string) (MarketResolution, error)
}

// PortfolioStore persists one Portfolio per strategy. Load returns a
// freshly initialized portfolio when none exists yet.
type PortfolioStore interface {
	Load(ctx context.Context, strategy string, initialBankroll float64) (Portfolio, error)
	Save(ctx context.Context, pf Portfolio) error
}

// PositionStore gives row-level access to positions across strategies,
// used by the mark-price feed and reporting.
type PositionStore interface {
	GetOpen(ctx context.Context) ([]Position, error)
	UpdateMark(ctx context.Context, id string, price float64) error
}

// ClassificationCache caches classifier verdicts keyed by question
// hash. Get returns ErrNotFound on a miss.
type ClassificationCache interface {
	Get(ctx context.Context, question string) (Classification, error)
	Set(ctx context.Context, question string, c Classification) error
}

// LockManager provides distributed run locks so overlapping scheduled
// runs cannot double-trade.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// SnapshotArchiver writes run artifacts (candidate pool, selections)
// to blob storage. Failures are best-effort and never abort a run.
type SnapshotArchiver interface {
	ArchiveRun(ctx context.Context, runID string, payload any) error
}
