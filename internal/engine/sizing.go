package engine

import "github.com/geostrat/paperbot/internal/domain"

// Adaptive sizing schedule, shared by every adaptive strategy.
const (
	adaptiveLowVolume = 5_000
	adaptiveMidVolume = 50_000

	adaptiveSmallSize  = 5.0
	adaptiveMediumSize = 10.0
	adaptiveLargeSize  = 25.0
)

// ResolveSize returns the bet size for a strategy at the given volume.
// Fixed sizing ignores volume; adaptive sizing steps up through the
// shared three-tier schedule.
func ResolveSize(s domain.Strategy, volume float64) float64 {
	if s.Sizing != domain.SizingAdaptive {
		return s.BetSize
	}
	switch {
	case volume < adaptiveLowVolume:
		return adaptiveSmallSize
	case volume < adaptiveMidVolume:
		return adaptiveMediumSize
	default:
		return adaptiveLargeSize
	}
}
