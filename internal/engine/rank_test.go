package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

func TestRankPriceHighAndVolumeLowAreInverses(t *testing.T) {
	// Prices pairwise distinct and inversely correlated with volume.
	pool := []domain.Candidate{
		cand("a", 0.9, 1000, 10),
		cand("b", 0.5, 5000, 10),
		cand("c", 0.7, 3000, 10),
		cand("d", 0.3, 9000, 10),
	}

	byPrice := Rank(pool, domain.PriorityPriceHigh, nil)
	byVolume := Rank(pool, domain.PriorityVolumeLow, nil)
	require.Equal(t, []string{"a", "c", "b", "d"}, ids(byPrice))
	require.Equal(t, ids(byPrice), ids(byVolume))
}

func TestRankRotation(t *testing.T) {
	// Low volume, few days and high YES price all push the score down.
	fast := cand("fast", 0.9, 1000, 5)
	slow := cand("slow", 0.3, 400000, 200)

	require.Less(t, RotationScore(fast), RotationScore(slow))

	out := Rank([]domain.Candidate{slow, fast}, domain.PriorityRotation, nil)
	require.Equal(t, []string{"fast", "slow"}, ids(out))
}

func TestRotationScoreNonNegativeAndCapped(t *testing.T) {
	for _, c := range []domain.Candidate{
		cand("a", 0.01, 0, 0),
		cand("b", 0.99, 1e9, 1e6),
	} {
		score := RotationScore(c)
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, 300.0)
	}
}

func TestRankUnknownPolicyKeepsOrder(t *testing.T) {
	pool := []domain.Candidate{
		cand("z", 0.2, 9000, 10),
		cand("a", 0.9, 1000, 10),
	}
	out := Rank(pool, domain.PriorityPolicy("bogus"), slog.Default())
	require.Equal(t, []string{"z", "a"}, ids(out))
}

func TestRankStableOnTies(t *testing.T) {
	pool := []domain.Candidate{
		cand("first", 0.5, 1000, 10),
		cand("second", 0.5, 2000, 10),
		cand("third", 0.5, 3000, 10),
	}
	out := Rank(pool, domain.PriorityPriceHigh, nil)
	require.Equal(t, []string{"first", "second", "third"}, ids(out))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	pool := []domain.Candidate{
		cand("a", 0.2, 1, 1),
		cand("b", 0.9, 1, 1),
	}
	_ = Rank(pool, domain.PriorityPriceHigh, nil)
	require.Equal(t, []string{"a", "b"}, ids(pool))
}
