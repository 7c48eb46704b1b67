// Package service orchestrates runs: pool construction, per-strategy
// evaluation, settlement, persistence, and reporting.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/geostrat/paperbot/internal/domain"
	"github.com/geostrat/paperbot/internal/engine"
	"github.com/geostrat/paperbot/internal/notify"
)

// maxConcurrentStrategies bounds how many strategies evaluate at once.
// The pool is shared read-only, so the limit only protects the stores.
const maxConcurrentStrategies = 4

// Notifier is the notification surface the services need. *notify.Notifier
// satisfies it.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// OpenedTrade is one position opened during a run, kept for the snapshot.
type OpenedTrade struct {
	MarketID string  `json:"market_id"`
	Question string  `json:"question"`
	Side     string  `json:"side"`
	Entry    float64 `json:"entry"`
	Size     float64 `json:"size"`
}

// StrategyResult is the per-strategy outcome of one run.
type StrategyResult struct {
	Strategy  string        `json:"strategy"`
	Opened    []OpenedTrade `json:"opened"`
	Settled   int           `json:"settled"`
	OpenCount int           `json:"open_count"`
	Bankroll  float64       `json:"bankroll"`
	TotalPnL  float64       `json:"total_pnl"`
	Err       string        `json:"error,omitempty"`
}

// PoolEntry is one enriched candidate as archived in the run snapshot.
type PoolEntry struct {
	MarketID    string  `json:"market_id"`
	Question    string  `json:"question"`
	YesPrice    float64 `json:"yes_price"`
	Volume      float64 `json:"volume"`
	Cluster     string  `json:"cluster"`
	DaysToClose float64 `json:"days_to_close"`
	EventKey    string  `json:"event_key"`
}

// RunSnapshot is the archived record of one run.
type RunSnapshot struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	PoolSize   int              `json:"pool_size"`
	Rejects    map[string]int   `json:"rejects"`
	Pool       []PoolEntry      `json:"pool"`
	Strategies []StrategyResult `json:"strategies"`
}

// PaperService runs the paper trading cycle: fetch and classify open
// markets once, then let every configured strategy settle, filter, rank,
// and select against the shared candidate pool.
type PaperService struct {
	source     domain.MarketSource
	portfolios domain.PortfolioStore
	classifier domain.Classifier
	locks      domain.LockManager
	archiver   domain.SnapshotArchiver // optional
	notifier   Notifier                // optional
	strategies []domain.Strategy

	fallbackBankroll float64
	lockTTL          time.Duration
	logger           *slog.Logger
	now              func() time.Time
}

// NewPaperService creates a PaperService. archiver and notifier may be nil.
func NewPaperService(
	source domain.MarketSource,
	portfolios domain.PortfolioStore,
	classifier domain.Classifier,
	locks domain.LockManager,
	archiver domain.SnapshotArchiver,
	notifier Notifier,
	strategies []domain.Strategy,
	fallbackBankroll float64,
	lockTTL time.Duration,
	logger *slog.Logger,
) *PaperService {
	return &PaperService{
		source:           source,
		portfolios:       portfolios,
		classifier:       classifier,
		locks:            locks,
		archiver:         archiver,
		notifier:         notifier,
		strategies:       strategies,
		fallbackBankroll: fallbackBankroll,
		lockTTL:          lockTTL,
		logger:           logger.With(slog.String("component", "paper_service")),
		now:              time.Now,
	}
}

// Run executes one full paper trading cycle under the run lock.
func (s *PaperService) Run(ctx context.Context) error {
	unlock, err := s.locks.Acquire(ctx, "paper_run", s.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.Warn("another run holds the lock, skipping")
		}
		return fmt.Errorf("paper_service: acquire lock: %w", err)
	}
	defer unlock()

	runID := uuid.New().String()
	startedAt := s.now().UTC()
	logger := s.logger.With(slog.String("run_id", runID))

	pool, rejects, err := BuildPool(ctx, s.source, s.classifier, startedAt)
	if err != nil {
		s.notifyRunError(ctx, runID, err)
		return err
	}
	logger.Info("candidate pool built",
		slog.Int("candidates", len(pool)),
		slog.Any("rejects", rejects))

	oracle := newResolutionOracle(s.source)

	results := make([]StrategyResult, len(s.strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentStrategies)

	for i, strat := range s.strategies {
		i, strat := i, strat
		g.Go(func() error {
			res, err := s.runStrategy(gctx, strat, pool, oracle, logger)
			if err != nil {
				// One broken strategy must not starve the rest.
				logger.Error("strategy run failed",
					slog.String("strategy", strat.Name),
					slog.String("error", err.Error()))
				res.Strategy = strat.Name
				res.Err = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]PoolEntry, 0, len(pool))
	for _, c := range pool {
		entries = append(entries, PoolEntry{
			MarketID:    c.MarketID,
			Question:    c.Question,
			YesPrice:    c.YesPrice,
			Volume:      c.Volume,
			Cluster:     c.Cluster,
			DaysToClose: c.DaysToClose,
			EventKey:    c.EventKey,
		})
	}
	snapshot := RunSnapshot{
		RunID:      runID,
		StartedAt:  startedAt,
		PoolSize:   len(pool),
		Rejects:    rejects,
		Pool:       entries,
		Strategies: results,
	}
	s.archive(ctx, runID, snapshot)
	s.notifySummary(ctx, runID, results)

	var errs []error
	for _, r := range results {
		if r.Err != "" {
			errs = append(errs, fmt.Errorf("%s: %s", r.Strategy, r.Err))
		}
	}
	if len(errs) > 0 {
		err := fmt.Errorf("paper_service: %d strategies failed: %w", len(errs), errors.Join(errs...))
		s.notifyRunError(ctx, runID, err)
		return err
	}
	return nil
}

// runStrategy settles the strategy's open positions, then selects and
// opens new trades against the shared pool, and persists the portfolio.
func (s *PaperService) runStrategy(
	ctx context.Context,
	strat domain.Strategy,
	pool []domain.Candidate,
	oracle *resolutionOracle,
	logger *slog.Logger,
) (StrategyResult, error) {
	initial := strat.Bankroll
	if initial <= 0 {
		initial = s.fallbackBankroll
	}

	pf, err := s.portfolios.Load(ctx, strat.Name, initial)
	if err != nil {
		return StrategyResult{}, fmt.Errorf("load portfolio: %w", err)
	}
	ledger := engine.NewLedger(pf)
	now := s.now().UTC()

	// Settlement first so freed bankroll is available to the selector.
	var settled int
	for _, p := range pf.OpenPositions() {
		res, err := oracle.Resolve(ctx, p.MarketID)
		if err != nil {
			// Resolution lookups are retried next run; a dead market must
			// not block the strategy.
			logger.Warn("resolution lookup failed",
				slog.String("strategy", strat.Name),
				slog.String("market", p.MarketID),
				slog.String("error", err.Error()))
			continue
		}
		if ledger.Settle(p.ID, res, now) {
			settled++
			s.notifySettled(ctx, ledger, p.ID)
		}
	}

	state := engine.StateFromPortfolio(ledger.Portfolio())
	filtered := engine.Filter(pool, strat)
	ranked := engine.Rank(filtered, strat.Priority, logger)
	accepted, _ := engine.Select(ranked, strat, state)

	opened := make([]OpenedTrade, 0, len(accepted))
	for _, acc := range accepted {
		pos := ledger.OpenPosition(acc, strat, now)
		opened = append(opened, OpenedTrade{
			MarketID: pos.MarketID,
			Question: pos.Question,
			Side:     string(pos.Side),
			Entry:    pos.EntryPrice,
			Size:     pos.Size,
		})
	}

	final := ledger.Portfolio()
	if err := s.portfolios.Save(ctx, final); err != nil {
		return StrategyResult{}, fmt.Errorf("save portfolio: %w", err)
	}

	logger.Info("strategy run complete",
		slog.String("strategy", strat.Name),
		slog.Int("eligible", len(filtered)),
		slog.Int("opened", len(opened)),
		slog.Int("settled", settled),
		slog.Float64("bankroll", final.BankrollCurrent()))

	return StrategyResult{
		Strategy:  strat.Name,
		Opened:    opened,
		Settled:   settled,
		OpenCount: len(final.OpenPositions()),
		Bankroll:  final.BankrollCurrent(),
		TotalPnL:  final.TotalPnL,
	}, nil
}

func (s *PaperService) archive(ctx context.Context, runID string, snapshot RunSnapshot) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveRun(ctx, runID, snapshot); err != nil {
		s.logger.Warn("archive run failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
	}
}

func (s *PaperService) notifySummary(ctx context.Context, runID string, results []StrategyResult) {
	if s.notifier == nil {
		return
	}
	lines := make([]notify.StrategyLine, 0, len(results))
	for _, r := range results {
		if r.Err != "" {
			continue
		}
		lines = append(lines, notify.StrategyLine{
			Strategy: r.Strategy,
			Opened:   len(r.Opened),
			Settled:  r.Settled,
			Open:     r.OpenCount,
			Bankroll: r.Bankroll,
			TotalPnL: r.TotalPnL,
		})
	}
	title, msg := notify.RunSummaryMessage(runID, lines)
	if err := s.notifier.Notify(ctx, notify.EventRunSummary, title, msg); err != nil {
		s.logger.Warn("notify summary failed", slog.String("error", err.Error()))
	}
}

func (s *PaperService) notifySettled(ctx context.Context, ledger *engine.Ledger, positionID string) {
	if s.notifier == nil {
		return
	}
	for _, p := range ledger.Portfolio().Positions {
		if p.ID != positionID {
			continue
		}
		title, msg := notify.SettlementMessage(p)
		if err := s.notifier.Notify(ctx, notify.EventSettlement, title, msg); err != nil {
			s.logger.Warn("notify settlement failed", slog.String("error", err.Error()))
		}
		return
	}
}

func (s *PaperService) notifyRunError(ctx context.Context, runID string, err error) {
	if s.notifier == nil {
		return
	}
	if nerr := s.notifier.Notify(ctx, notify.EventRunError, "Run "+runID+" failed", err.Error()); nerr != nil {
		s.logger.Warn("notify error failed", slog.String("error", nerr.Error()))
	}
}

// resolutionOracle memoizes resolution lookups so markets held by several
// strategies are fetched once per run.
type resolutionOracle struct {
	source domain.MarketSource

	mu    sync.Mutex
	cache map[string]domain.MarketResolution
}

func newResolutionOracle(source domain.MarketSource) *resolutionOracle {
	return &resolutionOracle{
		source: source,
		cache:  make(map[string]domain.MarketResolution),
	}
}

func (o *resolutionOracle) Resolve(ctx context.Context, marketID string) (domain.MarketResolution, error) {
	o.mu.Lock()
	res, ok := o.cache[marketID]
	o.mu.Unlock()
	if ok {
		return res, nil
	}

	res, err := o.source.GetResolution(ctx, marketID)
	if err != nil {
		return domain.MarketResolution{}, err
	}

	o.mu.Lock()
	o.cache[marketID] = res
	o.mu.Unlock()
	return res, nil
}
