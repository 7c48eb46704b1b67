package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

func TestScanServiceDryRun(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{
		mk("a", 0.90, 10000),
		mk("b", 0.70, 20000),
		mk("c", 0.05, 30000), // below the zone
	}}

	s := NewScanService(src, geoClassifier{}, []domain.Strategy{testStrategy("alpha")}, 1000, slog.Default())
	s.now = func() time.Time { return testNow }

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.PoolSize)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	require.Equal(t, "alpha", res.Strategy)
	require.Equal(t, 2, res.Eligible)

	require.Len(t, res.Picks, 2)
	require.Equal(t, 1, res.Picks[0].Rank)
	require.Equal(t, "a", res.Picks[0].MarketID)
	require.InDelta(t, 25, res.Picks[0].Size, 1e-9)
}

func TestReportServiceSummarizes(t *testing.T) {
	pfs := newMemPortfolios()
	end := testNow.Add(20 * 24 * time.Hour)
	pfs.data["alpha"] = domain.Portfolio{
		Strategy:        "alpha",
		InitialBankroll: 100,
		Wins:            3,
		Losses:          1,
		TotalPnL:        12.5,
		Positions: []domain.Position{
			{
				ID: "open1", Strategy: "alpha", Question: "Open one?",
				Side: domain.BetSideNo, Status: domain.PositionStatusOpen,
				EntryPrice: 0.8, MarkPrice: 0.9, Size: 25, EntryCostRate: 0.005,
				EndAt: &end,
			},
			{
				ID: "done1", Strategy: "alpha", Status: domain.PositionStatusWon,
				Size: 25, PnL: 6,
			},
		},
	}

	s := NewReportService(pfs, []domain.Strategy{testStrategy("alpha")}, 1000, slog.Default())
	s.now = func() time.Time { return testNow }

	report, err := s.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Portfolios, 1)

	pr := report.Portfolios[0]
	require.InDelta(t, 112.5, pr.Bankroll, 1e-9)
	require.InDelta(t, 0.75, pr.WinRate, 1e-9)
	require.InDelta(t, 25, pr.Exposure, 1e-9)

	require.Len(t, pr.Open, 1)
	// shares = 25*0.995/0.8 = 31.09375; at mark 0.9 that is 27.984375,
	// so unrealized = 2.984375.
	require.InDelta(t, 2.984375, pr.Open[0].Unrealized, 1e-9)
}
