package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/geostrat/paperbot/internal/domain"
)

// Ledger owns the lifecycle of one strategy's portfolio for the
// duration of a run: exposure accounting, materializing accepted
// trades into positions, mark-price updates, and settlement. The
// selector never touches the ledger directly; its simulation and the
// ledger's updates follow the same rules so the two stay consistent.
type Ledger struct {
	pf domain.Portfolio
}

// NewLedger wraps a loaded portfolio.
func NewLedger(pf domain.Portfolio) *Ledger {
	return &Ledger{pf: pf}
}

// Portfolio returns the current portfolio value for persistence.
func (l *Ledger) Portfolio() domain.Portfolio {
	l.pf.UpdatedAt = time.Now().UTC()
	return l.pf
}

// ExposureTotal is the summed stake of open positions.
func (l *Ledger) ExposureTotal() float64 {
	var total float64
	for _, p := range l.pf.Positions {
		if p.Open() {
			total += p.Size
		}
	}
	return total
}

// ExposureByCluster groups open stake by cluster label.
func (l *Ledger) ExposureByCluster() map[string]float64 {
	out := make(map[string]float64)
	for _, p := range l.pf.Positions {
		if p.Open() {
			out[p.Cluster] += p.Size
		}
	}
	return out
}

// OpenPosition materializes one accepted trade as an open position and
// returns it. Entry price is the price paid per share of the traded
// token: the YES price for YES bets, its complement for NO bets.
func (l *Ledger) OpenPosition(acc Accepted, s domain.Strategy, now time.Time) domain.Position {
	c := acc.Candidate
	entry := c.YesPrice
	tokenID := c.YesTokenID
	if s.Side == domain.BetSideNo {
		entry = 1 - c.YesPrice
		tokenID = c.NoTokenID
	}
	endAt := c.EndAt
	pos := domain.Position{
		ID:            uuid.New().String(),
		Strategy:      s.Name,
		MarketID:      c.MarketID,
		Question:      c.Question,
		TokenID:       tokenID,
		Side:          s.Side,
		EntryPrice:    entry,
		MarkPrice:     entry,
		Size:          acc.Size,
		EntryCostRate: s.EntryCostRate,
		EventKey:      c.EventKey,
		Cluster:       c.Cluster,
		Status:        domain.PositionStatusOpen,
		EndAt:         &endAt,
		OpenedAt:      now,
	}
	l.pf.Positions = append(l.pf.Positions, pos)
	return pos
}

// Mark updates the mark price of any open position holding the token.
func (l *Ledger) Mark(tokenID string, price float64) {
	for i := range l.pf.Positions {
		p := &l.pf.Positions[i]
		if p.Open() && p.TokenID == tokenID {
			p.MarkPrice = price
		}
	}
}

// Settle transitions an open position to won or lost given a market
// resolution and applies its realized P&L to the portfolio. A win pays
// out one dollar per share, where the share count was reduced by the
// entry cost rate at entry; a loss forfeits the full stake. Settling a
// position that is not open, or an unresolved market, is a no-op.
func (l *Ledger) Settle(positionID string, res domain.MarketResolution, now time.Time) bool {
	if !res.Resolved {
		return false
	}
	for i := range l.pf.Positions {
		p := &l.pf.Positions[i]
		if p.ID != positionID || !p.Open() {
			continue
		}
		won := res.YesWon == (p.Side == domain.BetSideYes)
		if won {
			shares := p.Size * (1 - p.EntryCostRate) / p.EntryPrice
			p.PnL = shares - p.Size
			p.Status = domain.PositionStatusWon
			l.pf.Wins++
		} else {
			p.PnL = -p.Size
			p.Status = domain.PositionStatusLost
			l.pf.Losses++
		}
		p.SettledAt = &now
		l.pf.TotalPnL += p.PnL
		return true
	}
	return false
}

// CloseManual marks an open position manually closed at its current
// mark price, realizing P&L against the entry.
func (l *Ledger) CloseManual(positionID string, now time.Time) bool {
	for i := range l.pf.Positions {
		p := &l.pf.Positions[i]
		if p.ID != positionID || !p.Open() {
			continue
		}
		shares := p.Size * (1 - p.EntryCostRate) / p.EntryPrice
		p.PnL = shares*p.MarkPrice - p.Size
		p.Status = domain.PositionStatusClosed
		p.SettledAt = &now
		l.pf.TotalPnL += p.PnL
		return true
	}
	return false
}
