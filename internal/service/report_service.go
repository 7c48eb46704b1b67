package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
)

// PositionReport is one open position in a portfolio report.
type PositionReport struct {
	Question   string     `json:"question"`
	Side       string     `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	MarkPrice  float64    `json:"mark_price"`
	Size       float64    `json:"size"`
	Unrealized float64    `json:"unrealized"`
	EndAt      *time.Time `json:"end_at,omitempty"`
}

// PortfolioReport summarizes one strategy's ledger.
type PortfolioReport struct {
	Strategy        string           `json:"strategy"`
	InitialBankroll float64          `json:"initial_bankroll"`
	Bankroll        float64          `json:"bankroll"`
	TotalPnL        float64          `json:"total_pnl"`
	Wins            int              `json:"wins"`
	Losses          int              `json:"losses"`
	WinRate         float64          `json:"win_rate"`
	Exposure        float64          `json:"exposure"`
	Open            []PositionReport `json:"open"`
}

// Report is the cross-strategy performance summary.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Portfolios  []PortfolioReport `json:"portfolios"`
}

// ReportService reads persisted portfolios and renders a performance
// summary. It never writes.
type ReportService struct {
	portfolios domain.PortfolioStore
	strategies []domain.Strategy

	fallbackBankroll float64
	logger           *slog.Logger
	now              func() time.Time
}

// NewReportService creates a ReportService.
func NewReportService(
	portfolios domain.PortfolioStore,
	strategies []domain.Strategy,
	fallbackBankroll float64,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		portfolios:       portfolios,
		strategies:       strategies,
		fallbackBankroll: fallbackBankroll,
		logger:           logger.With(slog.String("component", "report_service")),
		now:              time.Now,
	}
}

// Build loads every configured strategy's portfolio and summarizes it.
func (s *ReportService) Build(ctx context.Context) (Report, error) {
	report := Report{
		GeneratedAt: s.now().UTC(),
		Portfolios:  make([]PortfolioReport, 0, len(s.strategies)),
	}

	for _, strat := range s.strategies {
		initial := strat.Bankroll
		if initial <= 0 {
			initial = s.fallbackBankroll
		}
		pf, err := s.portfolios.Load(ctx, strat.Name, initial)
		if err != nil {
			return Report{}, fmt.Errorf("report_service: load %s: %w", strat.Name, err)
		}
		report.Portfolios = append(report.Portfolios, summarize(pf))
	}
	return report, nil
}

func summarize(pf domain.Portfolio) PortfolioReport {
	pr := PortfolioReport{
		Strategy:        pf.Strategy,
		InitialBankroll: pf.InitialBankroll,
		Bankroll:        pf.BankrollCurrent(),
		TotalPnL:        pf.TotalPnL,
		Wins:            pf.Wins,
		Losses:          pf.Losses,
	}
	if settled := pf.Wins + pf.Losses; settled > 0 {
		pr.WinRate = float64(pf.Wins) / float64(settled)
	}

	for _, p := range pf.OpenPositions() {
		pr.Exposure += p.Size

		// Unrealized assumes exit at the current mark after entry costs.
		shares := p.Size * (1 - p.EntryCostRate) / p.EntryPrice
		unrealized := shares*p.MarkPrice - p.Size

		pr.Open = append(pr.Open, PositionReport{
			Question:   p.Question,
			Side:       string(p.Side),
			EntryPrice: p.EntryPrice,
			MarkPrice:  p.MarkPrice,
			Size:       p.Size,
			Unrealized: unrealized,
			EndAt:      p.EndAt,
		})
	}
	return pr
}
