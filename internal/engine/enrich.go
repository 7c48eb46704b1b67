// Package engine contains the candidate evaluation pipeline: a shared
// enrichment pass over raw markets, then per-strategy filtering,
// ranking, constrained greedy selection, and ledger settlement.
package engine

import (
	"time"

	"github.com/geostrat/paperbot/internal/domain"
)

// RejectReason says why a raw market did not become a candidate.
type RejectReason string

const (
	RejectNone            RejectReason = ""
	RejectNotGeopolitical RejectReason = "not_geopolitical"
	RejectBadTimestamps   RejectReason = "bad_timestamps"
	RejectTimingBuffer    RejectReason = "timing_buffer"
	RejectBadPrice        RejectReason = "bad_price"
)

// TimingBuffer is the minimum age since open and minimum time before
// close for a market to be tradable. Markets younger than this are too
// fresh to trust; markets closer than this to resolution leave no room
// to exit.
const TimingBuffer = 48 * time.Hour

// Enrich turns one raw market plus its classification into a Candidate,
// or reports why it was rejected. Checks run in fixed order and the
// first failure wins. Pure function of its inputs; the expensive
// classification happens upstream, once per market per run.
func Enrich(m domain.Market, now time.Time, cls domain.Classification) (domain.Candidate, RejectReason) {
	if !cls.Geopolitical {
		return domain.Candidate{}, RejectNotGeopolitical
	}
	if m.StartAt == nil || m.EndAt == nil {
		return domain.Candidate{}, RejectBadTimestamps
	}
	if now.Sub(*m.StartAt) < TimingBuffer || m.EndAt.Sub(now) < TimingBuffer {
		return domain.Candidate{}, RejectTimingBuffer
	}
	if !m.PriceOK || m.YesPrice <= 0 || m.YesPrice >= 1 {
		return domain.Candidate{}, RejectBadPrice
	}

	tag := ""
	if m.GroupTitle != "" {
		tag = domain.StructureSeries
	}
	eventKey := m.GroupTitle
	if eventKey == "" {
		eventKey = m.Slug
	}

	raw := m
	return domain.Candidate{
		MarketID:     m.ID,
		Question:     m.Question,
		YesPrice:     m.YesPrice,
		Volume:       m.Volume,
		Cluster:      cls.Cluster,
		DaysToClose:  m.EndAt.Sub(now).Seconds() / 86400,
		StartAt:      *m.StartAt,
		EndAt:        *m.EndAt,
		YesTokenID:   m.TokenIDs[0],
		NoTokenID:    m.TokenIDs[1],
		EventKey:     eventKey,
		StructureTag: tag,
		Raw:          &raw,
	}, RejectNone
}
