package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func validMarket() domain.Market {
	start := testNow.Add(-10 * 24 * time.Hour)
	end := testNow.Add(10 * 24 * time.Hour)
	return domain.Market{
		ID:       "mkt-1",
		Question: "Will there be a ceasefire in Ukraine by July?",
		Slug:     "ukraine-ceasefire-july",
		YesPrice: 0.35,
		PriceOK:  true,
		Volume:   12000,
		TokenIDs: [2]string{"tok-yes", "tok-no"},
		StartAt:  &start,
		EndAt:    &end,
	}
}

func geoCls() domain.Classification {
	return domain.Classification{Geopolitical: true, Cluster: "ukraine"}
}

func TestEnrichValidMarket(t *testing.T) {
	c, reason := Enrich(validMarket(), testNow, geoCls())
	require.Equal(t, RejectNone, reason)
	require.Equal(t, "mkt-1", c.MarketID)
	require.Equal(t, 0.35, c.YesPrice)
	require.Equal(t, 12000.0, c.Volume)
	require.Equal(t, "ukraine", c.Cluster)
	require.InDelta(t, 10.0, c.DaysToClose, 1e-9)
	require.Equal(t, "tok-yes", c.YesTokenID)
	require.Equal(t, "tok-no", c.NoTokenID)
	require.Equal(t, "ukraine-ceasefire-july", c.EventKey)
	require.Empty(t, c.StructureTag)
	require.NotNil(t, c.Raw)
}

func TestEnrichRejectionOrder(t *testing.T) {
	t.Run("not geopolitical wins over everything", func(t *testing.T) {
		m := validMarket()
		m.StartAt = nil
		m.PriceOK = false
		_, reason := Enrich(m, testNow, domain.Classification{Geopolitical: false})
		require.Equal(t, RejectNotGeopolitical, reason)
	})

	t.Run("missing timestamps before timing buffer", func(t *testing.T) {
		m := validMarket()
		m.EndAt = nil
		_, reason := Enrich(m, testNow, geoCls())
		require.Equal(t, RejectBadTimestamps, reason)
	})

	t.Run("too fresh", func(t *testing.T) {
		m := validMarket()
		start := testNow.Add(-12 * time.Hour)
		m.StartAt = &start
		_, reason := Enrich(m, testNow, geoCls())
		require.Equal(t, RejectTimingBuffer, reason)
	})

	t.Run("too close to resolution", func(t *testing.T) {
		m := validMarket()
		end := testNow.Add(24 * time.Hour)
		m.EndAt = &end
		_, reason := Enrich(m, testNow, geoCls())
		require.Equal(t, RejectTimingBuffer, reason)
	})

	t.Run("degenerate prices", func(t *testing.T) {
		for _, price := range []float64{0, 1} {
			m := validMarket()
			m.YesPrice = price
			_, reason := Enrich(m, testNow, geoCls())
			require.Equal(t, RejectBadPrice, reason)
		}
	})

	t.Run("unparseable price", func(t *testing.T) {
		m := validMarket()
		m.PriceOK = false
		_, reason := Enrich(m, testNow, geoCls())
		require.Equal(t, RejectBadPrice, reason)
	})
}

func TestEnrichSeriesAndEventKey(t *testing.T) {
	t.Run("group title sets series tag and event key", func(t *testing.T) {
		m := validMarket()
		m.GroupTitle = "Ukraine ceasefire timeline"
		c, reason := Enrich(m, testNow, geoCls())
		require.Equal(t, RejectNone, reason)
		require.Equal(t, domain.StructureSeries, c.StructureTag)
		require.Equal(t, "Ukraine ceasefire timeline", c.EventKey)
	})

	t.Run("falls back to slug then empty", func(t *testing.T) {
		m := validMarket()
		m.GroupTitle = ""
		m.Slug = ""
		c, reason := Enrich(m, testNow, geoCls())
		require.Equal(t, RejectNone, reason)
		require.Empty(t, c.EventKey)
	})
}

func TestEnrichMissingVolumeDefaultsToZero(t *testing.T) {
	m := validMarket()
	m.Volume = 0
	c, reason := Enrich(m, testNow, geoCls())
	require.Equal(t, RejectNone, reason)
	require.Zero(t, c.Volume)
}

func TestEnrichIdempotent(t *testing.T) {
	m := validMarket()
	a, r1 := Enrich(m, testNow, geoCls())
	b, r2 := Enrich(m, testNow, geoCls())
	require.Equal(t, r1, r2)
	a.Raw, b.Raw = nil, nil
	require.Equal(t, a, b)
}
