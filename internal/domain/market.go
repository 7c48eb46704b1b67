package domain

import "time"

// Market is a normalized Polymarket record as returned by the Gamma API.
// It is the raw input to enrichment; Candidates are derived from it.
type Market struct {
	ID         string
	Question   string
	Slug       string
	GroupTitle string // set when the market belongs to an event series
	YesPrice   float64
	PriceOK    bool // false when the YES price could not be parsed
	Volume     float64
	TokenIDs   [2]string // [YES, NO]
	StartAt    *time.Time
	EndAt      *time.Time
	Closed     bool
}

// MarketResolution is the outcome of a closed market.
type MarketResolution struct {
	Resolved bool
	YesWon   bool
}

// StructureSeries tags candidates whose market belongs to a grouped
// event series.
const StructureSeries = "series"

// Candidate is a market that passed topical, temporal and price
// screening. Candidates are built once per run, shared read-only
// across all strategies, and discarded at end of run.
type Candidate struct {
	MarketID     string
	Question     string
	YesPrice     float64
	Volume       float64
	Cluster      string
	DaysToClose  float64
	StartAt      time.Time
	EndAt        time.Time
	YesTokenID   string
	NoTokenID    string
	EventKey     string
	StructureTag string
	Raw          *Market // kept only for resolution lookup
}
