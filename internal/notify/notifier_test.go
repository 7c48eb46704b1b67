package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

type fakeSender struct {
	name   string
	fail   bool
	titles []string
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.fail {
		return errors.New("boom")
	}
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifierFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventRunSummary}, slog.Default())

	require.NoError(t, n.Notify(context.Background(), EventSettlement, "skip me", "body"))
	require.Empty(t, s.titles)

	require.NoError(t, n.Notify(context.Background(), EventRunSummary, "summary", "body"))
	require.Equal(t, []string{"summary"}, s.titles)
}

func TestNotifierEmptyFilterAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, slog.Default())

	require.NoError(t, n.Notify(context.Background(), EventRunError, "anything", "body"))
	require.Len(t, s.titles, 1)
}

func TestNotifierCollectsSenderFailures(t *testing.T) {
	bad := &fakeSender{name: "bad", fail: true}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.Default())

	err := n.Notify(context.Background(), EventRunSummary, "t", "m")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad")

	// The failing sender did not block delivery to the healthy one.
	require.Equal(t, []string{"t"}, good.titles)
}

func TestRunSummaryMessage(t *testing.T) {
	title, msg := RunSummaryMessage("run-7", []StrategyLine{
		{Strategy: "balanced", Opened: 2, Settled: 1, Open: 5, Bankroll: 1012.5, TotalPnL: 12.5},
		{Strategy: "t1_baseline_flat", Opened: 0, Settled: 0, Open: 3, Bankroll: 980, TotalPnL: -20},
	})
	require.Equal(t, "Paper run run-7", title)
	require.Contains(t, msg, "balanced: opened 2, settled 1, 5 open, bankroll $1012.50 (pnl +12.50)")
	require.Contains(t, msg, "t1_baseline_flat: opened 0")
	require.Contains(t, msg, "(pnl -20.00)")
}

func TestSettlementMessage(t *testing.T) {
	title, msg := SettlementMessage(domain.Position{
		Strategy:   "balanced",
		Question:   "Will Russia capture Pokrovsk by March 31?",
		Side:       domain.BetSideNo,
		EntryPrice: 0.82,
		Size:       25,
		Status:     domain.PositionStatusWon,
		PnL:        5.32,
	})
	require.True(t, strings.HasPrefix(title, "Position won"))
	require.Contains(t, msg, "$25.00 @ 0.820")
	require.Contains(t, msg, "+5.32")
	require.Contains(t, msg, "Pokrovsk")
}
