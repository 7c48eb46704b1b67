package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

func TestCatalogValidates(t *testing.T) {
	require.NoError(t, NewCatalog().Validate())
}

func TestCatalogGet(t *testing.T) {
	cat := NewCatalog()

	s, err := cat.Get("t1_baseline_flat")
	require.NoError(t, err)
	require.Equal(t, domain.BetSideNo, s.Side)
	require.Equal(t, 25.0, s.BetSize)
	require.Equal(t, 1000.0, s.Bankroll)
	require.Equal(t, 0.005, s.EntryCostRate)
	require.Equal(t, 3, s.EventCap)
	require.NotNil(t, s.Zones.Single)
	require.Equal(t, domain.PriceRange{Min: 0.40, Max: 0.80}, *s.Zones.Single)

	_, err = cat.Get("nonexistent")
	require.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestCatalogBaseStrategiesKeepLegacyCosts(t *testing.T) {
	cat := NewCatalog()
	s, err := cat.Get("balanced")
	require.NoError(t, err)
	require.Equal(t, 0.03, s.EntryCostRate)
	require.Equal(t, 0.60, s.MaxTotalExposurePct)
	require.Equal(t, 5000.0, s.Bankroll)
}

func TestCatalogGroups(t *testing.T) {
	cat := NewCatalog()

	std, err := cat.Group("standard")
	require.NoError(t, err)
	require.Equal(t, []string{"conservative", "balanced", "aggressive", "volume_sweet"}, std)

	tier3, err := cat.Group("tier3")
	require.NoError(t, err)
	require.Len(t, tier3, 4)

	all, err := cat.Group("all")
	require.NoError(t, err)
	require.Len(t, all, 23)

	quick, err := cat.Group("quick")
	require.NoError(t, err)
	require.Equal(t, []string{"balanced", "t1_baseline_flat"}, quick)

	_, err = cat.Group("nope")
	require.ErrorIs(t, err, domain.ErrUnknownGroup)
}

func TestCatalogResolveUnionDedup(t *testing.T) {
	cat := NewCatalog()

	// "balanced" appears in both the group and the explicit list.
	got, err := cat.Resolve("quick", []string{"balanced", "t2_micro_vol"})
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	require.Equal(t, []string{"balanced", "t1_baseline_flat", "t2_micro_vol"}, names)
}

func TestCatalogResolveUnknownName(t *testing.T) {
	cat := NewCatalog()
	_, err := cat.Resolve("", []string{"balanced", "typo"})
	require.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestCatalogDeadZoneStrategies(t *testing.T) {
	cat := NewCatalog()
	s, err := cat.Get("t3_mb_4bucket_skip")
	require.NoError(t, err)

	// The 100k-250k volume band has no bucket.
	require.Len(t, s.Zones.Buckets, 3)
	require.Equal(t, 100000.0, s.Zones.Buckets[1].VolMax)
	require.Equal(t, 250000.0, s.Zones.Buckets[2].VolMin)
}

func TestCatalogValidateRejectsOverlap(t *testing.T) {
	cat := NewCatalog()
	cat.strategies["broken"] = strat(domain.Strategy{
		Name: "broken",
		Zones: buckets(
			bucket(0, 100000, 0.3, 0.6),
			bucket(50000, 200000, 0.4, 0.7),
		),
		Bankroll: 1000,
	})
	require.Error(t, cat.Validate())
}
