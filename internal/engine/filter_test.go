package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

func cand(id string, price, volume, days float64) domain.Candidate {
	return domain.Candidate{
		MarketID:    id,
		YesPrice:    price,
		Volume:      volume,
		DaysToClose: days,
		EventKey:    "ev-" + id,
		Cluster:     "other",
	}
}

func baseStrategy() domain.Strategy {
	return domain.Strategy{
		Name:                "test",
		Side:                domain.BetSideNo,
		Zones:               domain.ZoneSpec{Single: &domain.PriceRange{Min: 0.2, Max: 0.8}},
		Sizing:              domain.SizingFixed,
		BetSize:             25,
		Priority:            domain.PriorityPriceHigh,
		DeadlineMinDays:     3,
		EventCap:            3,
		MaxTotalExposurePct: 0.90,
		MaxClusterExposPct:  0.30,
		EntryCostRate:       0.005,
		Bankroll:            1000,
	}
}

func TestFilterPassesFullyEligibleCandidate(t *testing.T) {
	c := cand("a", 0.5, 10000, 10)
	out := Filter([]domain.Candidate{c}, baseStrategy())
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].MarketID)
}

func TestFilterEachPredicateInIsolation(t *testing.T) {
	s := baseStrategy()
	s.MinVolume = 1000
	s.MaxVolume = 100000
	s.DeadlineMaxDays = 60
	s.ExcludeSeries = true

	tests := []struct {
		name string
		c    domain.Candidate
	}{
		{"below min volume", cand("a", 0.5, 500, 10)},
		{"above max volume", cand("b", 0.5, 200000, 10)},
		{"before deadline min", cand("c", 0.5, 10000, 2)},
		{"past deadline max", cand("d", 0.5, 10000, 90)},
		{"price below zone", cand("e", 0.1, 10000, 10)},
		{"price above zone", cand("f", 0.9, 10000, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Empty(t, Filter([]domain.Candidate{tt.c}, s))
		})
	}

	t.Run("series excluded", func(t *testing.T) {
		c := cand("g", 0.5, 10000, 10)
		c.StructureTag = domain.StructureSeries
		require.Empty(t, Filter([]domain.Candidate{c}, s))
	})
}

func TestFilterDeadZoneExcludesRegardlessOfPrice(t *testing.T) {
	s := baseStrategy()
	s.Zones = domain.ZoneSpec{Buckets: []domain.VolumeBucket{
		{VolMin: 0, VolMax: 1000, Range: domain.PriceRange{Min: 0, Max: 1}},
	}}

	c := cand("a", 0.5, 5000, 10)
	require.Empty(t, Filter([]domain.Candidate{c}, s))
}

func TestFilterZoneBoundsInclusive(t *testing.T) {
	s := baseStrategy()
	lo := cand("lo", 0.2, 10000, 10)
	hi := cand("hi", 0.8, 10000, 10)
	out := Filter([]domain.Candidate{lo, hi}, s)
	require.Len(t, out, 2)
}

func TestFilterOutputIsStableSubset(t *testing.T) {
	pool := []domain.Candidate{
		cand("a", 0.5, 10000, 10),
		cand("b", 0.9, 10000, 10), // out of zone
		cand("c", 0.3, 10000, 10),
		cand("d", 0.6, 10000, 1), // too close to deadline
		cand("e", 0.7, 10000, 10),
	}
	out := Filter(pool, baseStrategy())
	require.Equal(t, []string{"a", "c", "e"}, ids(out))
}

func ids(cands []domain.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.MarketID
	}
	return out
}
