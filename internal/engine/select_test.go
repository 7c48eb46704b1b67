package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

func emptyState(cash float64) SelectorState {
	return SelectorState{
		Cash:            cash,
		ClusterExposure: make(map[string]float64),
		EventCounts:     make(map[string]int),
		Held:            make(map[string]bool),
	}
}

func TestSelectSkipsHeldMarkets(t *testing.T) {
	s := baseStrategy()
	st := emptyState(s.Bankroll)
	st.Held["a"] = true

	accepted, _ := Select([]domain.Candidate{cand("a", 0.5, 1000, 10), cand("b", 0.5, 1000, 10)}, s, st)
	require.Len(t, accepted, 1)
	require.Equal(t, "b", accepted[0].Candidate.MarketID)
}

func TestSelectEventCap(t *testing.T) {
	s := baseStrategy()
	s.EventCap = 2

	pool := make([]domain.Candidate, 4)
	for i := range pool {
		c := cand(fmt.Sprintf("m%d", i), 0.5, 1000, 10)
		c.EventKey = "shared-event"
		pool[i] = c
	}
	accepted, st := Select(pool, s, emptyState(s.Bankroll))
	require.Len(t, accepted, 2)
	require.Equal(t, 2, st.EventCounts["shared-event"])
}

func TestSelectCashExhaustionStopsScan(t *testing.T) {
	s := baseStrategy()
	s.BetSize = 60
	s.Bankroll = 100
	s.MaxTotalExposurePct = 1.0
	s.MaxClusterExposPct = 1.0

	// After one accept cash is 40 < 60; the scan must stop even though
	// later candidates would individually fit exposure limits.
	pool := []domain.Candidate{
		cand("a", 0.5, 1000, 10),
		cand("b", 0.5, 1000, 10),
		cand("c", 0.5, 1000, 10),
	}
	accepted, st := Select(pool, s, emptyState(s.Bankroll))
	require.Len(t, accepted, 1)
	require.Equal(t, 40.0, st.Cash)
}

func TestSelectTotalExposureLimit(t *testing.T) {
	s := baseStrategy()
	s.MaxClusterExposPct = 1.0

	pool := make([]domain.Candidate, 50)
	for i := range pool {
		c := cand(fmt.Sprintf("m%d", i), 0.5, 1000, 10)
		c.Cluster = fmt.Sprintf("c%d", i)
		pool[i] = c
	}
	accepted, st := Select(pool, s, emptyState(s.Bankroll))

	limit := s.Bankroll * s.MaxTotalExposurePct
	require.LessOrEqual(t, st.TotalExposure, limit)
	require.Len(t, accepted, 36) // 36*25 = 900 = limit
}

func TestSelectClusterExposureLimit(t *testing.T) {
	s := baseStrategy()
	s.MaxTotalExposurePct = 1.0
	s.MaxClusterExposPct = 0.10 // 100 per cluster at bankroll 1000

	pool := make([]domain.Candidate, 10)
	for i := range pool {
		c := cand(fmt.Sprintf("m%d", i), 0.5, 1000, 10)
		c.Cluster = "mideast"
		pool[i] = c
	}
	accepted, st := Select(pool, s, emptyState(s.Bankroll))
	require.Len(t, accepted, 4) // 4*25 = 100
	require.InDelta(t, 100.0, st.ClusterExposure["mideast"], 1e-9)
}

func TestSelectStartsFromPortfolioState(t *testing.T) {
	pf := domain.Portfolio{
		Strategy:        "test",
		InitialBankroll: 1000,
		Positions: []domain.Position{
			{MarketID: "held", Size: 100, Cluster: "europe", EventKey: "ev", Status: domain.PositionStatusOpen},
			{MarketID: "done", Size: 50, Cluster: "europe", EventKey: "ev", Status: domain.PositionStatusWon},
		},
	}
	st := StateFromPortfolio(pf)

	require.Equal(t, 900.0, st.Cash)
	require.Equal(t, 100.0, st.TotalExposure)
	require.Equal(t, 100.0, st.ClusterExposure["europe"])
	require.Equal(t, 1, st.EventCounts["ev"])
	require.True(t, st.Held["held"])
	require.False(t, st.Held["done"])
}

// Full pipeline scenario: five candidates with distinct event keys,
// one priced outside the strategy's zone. Expect the other four
// accepted in descending price order.
func TestScenarioSingleZonePriceHigh(t *testing.T) {
	s := baseStrategy()
	s.Zones = domain.ZoneSpec{Single: &domain.PriceRange{Min: 0.40, Max: 0.90}}

	prices := []float64{0.90, 0.70, 0.50, 0.41, 0.39}
	pool := make([]domain.Candidate, len(prices))
	for i, p := range prices {
		pool[i] = cand(fmt.Sprintf("m%d", i), p, 10000, 10)
	}

	// Cluster cap off so the test isolates zone and ordering behavior.
	s.MaxClusterExposPct = 1.0

	ranked := Rank(Filter(pool, s), domain.PriorityPriceHigh, nil)
	accepted, _ := Select(ranked, s, emptyState(s.Bankroll))

	require.Len(t, accepted, 4)
	got := make([]float64, len(accepted))
	for i, a := range accepted {
		got[i] = a.Candidate.YesPrice
	}
	require.Equal(t, []float64{0.90, 0.70, 0.50, 0.41}, got)
}

// Same scenario but two candidates share an event key with event cap 1:
// only the higher ranked of the pair survives.
func TestScenarioEventCapBreaksTie(t *testing.T) {
	s := baseStrategy()
	s.Zones = domain.ZoneSpec{Single: &domain.PriceRange{Min: 0.40, Max: 0.90}}
	s.EventCap = 1
	s.MaxClusterExposPct = 1.0

	pool := []domain.Candidate{
		cand("m0", 0.90, 10000, 10),
		cand("m1", 0.70, 10000, 10),
		cand("m2", 0.50, 10000, 10),
	}
	pool[0].EventKey = "dup"
	pool[1].EventKey = "dup"

	ranked := Rank(Filter(pool, s), domain.PriorityPriceHigh, nil)
	accepted, _ := Select(ranked, s, emptyState(s.Bankroll))

	require.Equal(t, []string{"m0", "m2"}, acceptedIDs(accepted))
}

// Exposure cap, not cash, ends this scan: bankroll 500 at 90% caps
// exposure at 450, so 9 of 20 fifty-dollar trades fit while cash alone
// would have allowed a tenth.
func TestScenarioExposureCapBeforeCash(t *testing.T) {
	s := baseStrategy()
	s.Bankroll = 500
	s.BetSize = 50
	s.MaxClusterExposPct = 1.0

	pool := make([]domain.Candidate, 20)
	for i := range pool {
		pool[i] = cand(fmt.Sprintf("m%d", i), 0.5, 10000, 10)
	}

	accepted, st := Select(pool, s, emptyState(s.Bankroll))
	require.Len(t, accepted, 9)
	require.InDelta(t, 450.0, st.TotalExposure, 1e-9)
	require.GreaterOrEqual(t, st.Cash, 50.0) // cash was not the stopper
}

func acceptedIDs(accs []Accepted) []string {
	out := make([]string, len(accs))
	for i, a := range accs {
		out[i] = a.Candidate.MarketID
	}
	return out
}
