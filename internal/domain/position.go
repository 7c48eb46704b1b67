package domain

import "time"

// PositionStatus tracks the lifecycle of a paper position. Positions
// are never deleted, only status-transitioned.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusWon    PositionStatus = "won"
	PositionStatusLost   PositionStatus = "lost"
	PositionStatusClosed PositionStatus = "closed" // manually closed
)

// Position is one paper trade held by a strategy.
type Position struct {
	ID            string
	Strategy      string
	MarketID      string
	Question      string
	TokenID       string
	Side          BetSide
	EntryPrice    float64 // price paid per share of the traded token
	MarkPrice     float64
	Size          float64
	EntryCostRate float64
	EventKey      string
	Cluster       string
	Status        PositionStatus
	PnL           float64
	EndAt         *time.Time
	OpenedAt      time.Time
	SettledAt     *time.Time
}

// Open reports whether the position still awaits resolution.
func (p Position) Open() bool { return p.Status == PositionStatusOpen }

// Portfolio is the persisted per-strategy ledger state.
type Portfolio struct {
	Strategy        string
	InitialBankroll float64
	Wins            int
	Losses          int
	TotalPnL        float64
	Positions       []Position
	UpdatedAt       time.Time
}

// BankrollCurrent is the initial bankroll plus all realized P&L.
func (pf Portfolio) BankrollCurrent() float64 {
	return pf.InitialBankroll + pf.TotalPnL
}

// OpenPositions returns only the positions still open.
func (pf Portfolio) OpenPositions() []Position {
	out := make([]Position, 0, len(pf.Positions))
	for _, p := range pf.Positions {
		if p.Open() {
			out = append(out, p)
		}
	}
	return out
}
