package engine

import "github.com/geostrat/paperbot/internal/domain"

// SelectorState is the simulated running state threaded through one
// selection scan. It starts from the ledger's view of open positions
// and is updated on every accepted trade; the caller discards it once
// accepted trades are materialized into the ledger.
type SelectorState struct {
	Cash            float64
	TotalExposure   float64
	ClusterExposure map[string]float64
	EventCounts     map[string]int
	Held            map[string]bool
}

// StateFromPortfolio derives the selector's starting state from a
// strategy's current portfolio.
func StateFromPortfolio(pf domain.Portfolio) SelectorState {
	st := SelectorState{
		ClusterExposure: make(map[string]float64),
		EventCounts:     make(map[string]int),
		Held:            make(map[string]bool),
	}
	for _, p := range pf.Positions {
		if !p.Open() {
			continue
		}
		st.TotalExposure += p.Size
		st.ClusterExposure[p.Cluster] += p.Size
		st.EventCounts[p.EventKey]++
		st.Held[p.MarketID] = true
	}
	st.Cash = pf.BankrollCurrent() - st.TotalExposure
	return st
}

// Accepted is one trade chosen by the selector.
type Accepted struct {
	Candidate domain.Candidate
	Size      float64
}

// Select walks the ranked candidates once, in order, making an
// irrevocable accept or skip decision per candidate. Greedy by
// construction: earlier-ranked candidates always win ties for scarce
// budget, even when a later combination would pack tighter.
//
// Per candidate: skip if the market is already held or its event key
// has reached the strategy's event cap. Compute the bet size. Stop the
// whole scan once cash cannot cover the current size; cash exhaustion
// is terminal because ranking is monotonic in desirability. Skip if
// accepting would push total exposure past bankroll*MaxTotalExposurePct
// or the candidate's cluster past bankroll*MaxClusterExposPct. On
// accept, all running totals update before the next candidate is seen.
func Select(ranked []domain.Candidate, s domain.Strategy, st SelectorState) ([]Accepted, SelectorState) {
	maxTotal := s.Bankroll * s.MaxTotalExposurePct
	maxCluster := s.Bankroll * s.MaxClusterExposPct

	var accepted []Accepted
	for _, c := range ranked {
		if st.Held[c.MarketID] {
			continue
		}
		if s.EventCap > 0 && st.EventCounts[c.EventKey] >= s.EventCap {
			continue
		}
		size := ResolveSize(s, c.Volume)
		if st.Cash < size {
			break
		}
		if st.TotalExposure+size > maxTotal {
			continue
		}
		if st.ClusterExposure[c.Cluster]+size > maxCluster {
			continue
		}

		accepted = append(accepted, Accepted{Candidate: c, Size: size})
		st.Cash -= size
		st.TotalExposure += size
		st.ClusterExposure[c.Cluster] += size
		st.EventCounts[c.EventKey]++
		st.Held[c.MarketID] = true
	}
	return accepted, st
}
