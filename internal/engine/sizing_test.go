package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

func TestResolveSizeFixedIgnoresVolume(t *testing.T) {
	s := domain.Strategy{Sizing: domain.SizingFixed, BetSize: 25}

	for _, vol := range []float64{0, 4999, 50000, 1e8} {
		require.Equal(t, 25.0, ResolveSize(s, vol))
	}
}

func TestResolveSizeAdaptiveTiers(t *testing.T) {
	s := domain.Strategy{Sizing: domain.SizingAdaptive}

	require.Equal(t, 5.0, ResolveSize(s, 0))
	require.Equal(t, 5.0, ResolveSize(s, 4999))
	require.Equal(t, 10.0, ResolveSize(s, 5000))
	require.Equal(t, 10.0, ResolveSize(s, 49999))
	require.Equal(t, 25.0, ResolveSize(s, 50000))
	require.Equal(t, 25.0, ResolveSize(s, 1e9))
}

func TestResolveSizeAdaptiveMonotonic(t *testing.T) {
	s := domain.Strategy{Sizing: domain.SizingAdaptive}

	prev := 0.0
	for vol := 0.0; vol <= 100_000; vol += 1_000 {
		size := ResolveSize(s, vol)
		require.GreaterOrEqual(t, size, prev, "volume %f", vol)
		prev = size
	}
}
