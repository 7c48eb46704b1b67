package notify

import (
	"fmt"
	"strings"

	"github.com/geostrat/paperbot/internal/domain"
)

// Event types emitted by the bot. The notifier's event filter matches
// against these names.
const (
	EventRunSummary = "run_summary"
	EventSettlement = "settlement"
	EventRunError   = "run_error"
)

// StrategyLine is the per-strategy slice of a run summary.
type StrategyLine struct {
	Strategy string
	Opened   int
	Settled  int
	Open     int
	Bankroll float64
	TotalPnL float64
}

// RunSummaryMessage renders one run's outcome across strategies as a
// title and message body for dispatch.
func RunSummaryMessage(runID string, lines []StrategyLine) (string, string) {
	title := "Paper run " + runID

	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%s: opened %d, settled %d, %d open, bankroll $%.2f (pnl %+.2f)\n",
			l.Strategy, l.Opened, l.Settled, l.Open, l.Bankroll, l.TotalPnL)
	}
	if len(lines) == 0 {
		sb.WriteString("no strategies ran")
	}
	return title, strings.TrimRight(sb.String(), "\n")
}

// SettlementMessage renders a single settled position.
func SettlementMessage(p domain.Position) (string, string) {
	verb := "lost"
	if p.Status == domain.PositionStatusWon {
		verb = "won"
	}
	title := fmt.Sprintf("Position %s: %s", verb, p.Strategy)
	msg := fmt.Sprintf("%s %s $%.2f @ %.3f, pnl %+.2f\n%s",
		p.Side, verb, p.Size, p.EntryPrice, p.PnL, p.Question)
	return title, msg
}
