package engine

import "github.com/geostrat/paperbot/internal/domain"

// Filter returns the candidates eligible for one strategy: volume
// within bounds, deadline within bounds, series exclusion honored, and
// price inside the zone resolved for the candidate's volume. Output
// keeps input order. Reads only the shared pool; safe to run
// concurrently across strategies.
func Filter(pool []domain.Candidate, s domain.Strategy) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(pool))
	for _, c := range pool {
		if !eligible(c, s) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func eligible(c domain.Candidate, s domain.Strategy) bool {
	if c.Volume < s.MinVolume {
		return false
	}
	if s.MaxVolume > 0 && c.Volume > s.MaxVolume {
		return false
	}
	if c.DaysToClose < s.DeadlineMinDays {
		return false
	}
	if s.DeadlineMaxDays > 0 && c.DaysToClose > s.DeadlineMaxDays {
		return false
	}
	if s.ExcludeSeries && c.StructureTag == domain.StructureSeries {
		return false
	}
	zone, ok := ResolveZone(s.Zones, c.Volume)
	if !ok {
		return false
	}
	return zone.Contains(c.YesPrice)
}
