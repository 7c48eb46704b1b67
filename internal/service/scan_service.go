package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
	"github.com/geostrat/paperbot/internal/engine"
)

// ScanPick is one candidate a strategy would take, with its rank and size.
type ScanPick struct {
	Rank     int     `json:"rank"`
	MarketID string  `json:"market_id"`
	Question string  `json:"question"`
	YesPrice float64 `json:"yes_price"`
	Volume   float64 `json:"volume"`
	Cluster  string  `json:"cluster"`
	Days     float64 `json:"days_to_close"`
	Size     float64 `json:"size"`
}

// ScanResult is a dry-run selection for one strategy from a fresh bankroll.
type ScanResult struct {
	Strategy string     `json:"strategy"`
	Eligible int        `json:"eligible"`
	Picks    []ScanPick `json:"picks"`
}

// ScanReport is the output of one scan across all configured strategies.
type ScanReport struct {
	ScannedAt time.Time      `json:"scanned_at"`
	PoolSize  int            `json:"pool_size"`
	Rejects   map[string]int `json:"rejects"`
	Results   []ScanResult   `json:"results"`
}

// ScanService evaluates all strategies against the live market pool
// without loading or writing any state: every strategy selects from a
// fresh bankroll, which shows what a cold start would buy today.
type ScanService struct {
	source     domain.MarketSource
	classifier domain.Classifier
	strategies []domain.Strategy

	fallbackBankroll float64
	logger           *slog.Logger
	now              func() time.Time
}

// NewScanService creates a ScanService.
func NewScanService(
	source domain.MarketSource,
	classifier domain.Classifier,
	strategies []domain.Strategy,
	fallbackBankroll float64,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		source:           source,
		classifier:       classifier,
		strategies:       strategies,
		fallbackBankroll: fallbackBankroll,
		logger:           logger.With(slog.String("component", "scan_service")),
		now:              time.Now,
	}
}

// Scan builds the candidate pool and runs a dry selection per strategy.
func (s *ScanService) Scan(ctx context.Context) (ScanReport, error) {
	now := s.now().UTC()
	pool, rejects, err := BuildPool(ctx, s.source, s.classifier, now)
	if err != nil {
		return ScanReport{}, err
	}

	report := ScanReport{
		ScannedAt: now,
		PoolSize:  len(pool),
		Rejects:   rejects,
		Results:   make([]ScanResult, 0, len(s.strategies)),
	}

	for _, strat := range s.strategies {
		bankroll := strat.Bankroll
		if bankroll <= 0 {
			bankroll = s.fallbackBankroll
		}
		state := engine.StateFromPortfolio(domain.Portfolio{
			Strategy:        strat.Name,
			InitialBankroll: bankroll,
		})

		filtered := engine.Filter(pool, strat)
		ranked := engine.Rank(filtered, strat.Priority, s.logger)
		accepted, _ := engine.Select(ranked, strat, state)

		picks := make([]ScanPick, 0, len(accepted))
		for i, acc := range accepted {
			c := acc.Candidate
			picks = append(picks, ScanPick{
				Rank:     i + 1,
				MarketID: c.MarketID,
				Question: c.Question,
				YesPrice: c.YesPrice,
				Volume:   c.Volume,
				Cluster:  c.Cluster,
				Days:     c.DaysToClose,
				Size:     acc.Size,
			})
		}

		s.logger.Info("scan complete",
			slog.String("strategy", strat.Name),
			slog.Int("eligible", len(filtered)),
			slog.Int("picks", len(picks)))

		report.Results = append(report.Results, ScanResult{
			Strategy: strat.Name,
			Eligible: len(filtered),
			Picks:    picks,
		})
	}
	return report, nil
}
