package engine

import (
	"log/slog"
	"sort"

	"github.com/geostrat/paperbot/internal/domain"
)

// Caps keep any single rotation dimension from dominating when its raw
// magnitude is extreme.
const (
	rotationVolumeDivisor = 5_000.0
	rotationCap           = 100.0
)

// RotationScore blends volume, time-to-resolution and price into one
// ascending metric. Lower is better: it favors thin markets resolving
// soon at a high YES price.
func RotationScore(c domain.Candidate) float64 {
	vol := c.Volume / rotationVolumeDivisor
	if vol > rotationCap {
		vol = rotationCap
	}
	days := c.DaysToClose
	if days > rotationCap {
		days = rotationCap
	}
	return vol + days + (1-c.YesPrice)*100
}

// Rank orders candidates by the given policy using a stable sort, so
// ties keep their relative input order. Unknown policies leave the
// order untouched and log a warning rather than failing the run.
func Rank(cands []domain.Candidate, policy domain.PriorityPolicy, logger *slog.Logger) []domain.Candidate {
	out := make([]domain.Candidate, len(cands))
	copy(out, cands)

	switch policy {
	case domain.PriorityPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].YesPrice > out[j].YesPrice })
	case domain.PriorityVolumeLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Volume < out[j].Volume })
	case domain.PriorityRotation:
		sort.SliceStable(out, func(i, j int) bool { return RotationScore(out[i]) < RotationScore(out[j]) })
	default:
		if logger != nil {
			logger.Warn("unknown priority policy, keeping input order",
				slog.String("policy", string(policy)))
		}
	}
	return out
}
