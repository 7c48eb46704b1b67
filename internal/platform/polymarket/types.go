package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "closed" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Gamma sends
// "volume" both ways depending on the endpoint.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes, OutcomePrices and ClobTokenIDs arrive either as JSON arrays or
// as JSON-encoded strings (e.g. "[\"Yes\",\"No\"]"); both forms decode.
type APIMarket struct {
	ID             string          `json:"id"`
	Question       string          `json:"question"`
	Slug           string          `json:"slug"`
	GroupItemTitle string          `json:"groupItemTitle"`
	Outcomes       json.RawMessage `json:"outcomes"`
	OutcomePrices  json.RawMessage `json:"outcomePrices"`
	ClobTokenIDs   json.RawMessage `json:"clobTokenIds"`
	Volume         flexFloat       `json:"volume"`
	Closed         flexBool        `json:"closed"`
	Resolved       flexBool        `json:"resolved"`
	Active         flexBool        `json:"active"`
	StartDate      string          `json:"startDate"`
	CreatedAt      string          `json:"createdAt"`
	EndDate        string          `json:"endDate"`
}

// stringList decodes a field that is either a JSON array of strings or a
// string containing a JSON array.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var direct []string
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct
	}
	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil || nested == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(nested), &out); err != nil {
		return nil
	}
	return out
}

// parseTime accepts RFC 3339 or a unix-seconds string.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		t := time.Unix(int64(sec), 0).UTC()
		return &t
	}
	return nil
}

// yesIndex returns the index of the "Yes" outcome, falling back to 0 for
// binary markets without explicit Yes/No labels.
func yesIndex(outcomes []string) int {
	for i, o := range outcomes {
		if strings.EqualFold(o, "yes") {
			return i
		}
	}
	return 0
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. PriceOK is
// false when no YES price could be parsed, so enrichment can reject the
// market instead of treating it as free.
func (m *APIMarket) ToDomainMarket() domain.Market {
	dm := domain.Market{
		ID:         m.ID,
		Question:   m.Question,
		Slug:       m.Slug,
		GroupTitle: m.GroupItemTitle,
		Volume:     float64(m.Volume),
		Closed:     bool(m.Closed),
		StartAt:    parseTime(m.StartDate),
		EndAt:      parseTime(m.EndDate),
	}
	if dm.StartAt == nil {
		dm.StartAt = parseTime(m.CreatedAt)
	}

	outcomes := stringList(m.Outcomes)
	prices := stringList(m.OutcomePrices)
	tokens := stringList(m.ClobTokenIDs)

	yi := yesIndex(outcomes)
	if yi < len(prices) {
		if p, err := strconv.ParseFloat(prices[yi], 64); err == nil {
			dm.YesPrice = p
			dm.PriceOK = true
		}
	}

	// Map token IDs onto [YES, NO] by outcome label, falling back to
	// positional order for unlabeled binary markets.
	mapped := false
	for i, o := range outcomes {
		if i >= len(tokens) {
			break
		}
		switch {
		case strings.EqualFold(o, "yes"):
			dm.TokenIDs[0] = tokens[i]
			mapped = true
		case strings.EqualFold(o, "no"):
			dm.TokenIDs[1] = tokens[i]
			mapped = true
		}
	}
	if !mapped && len(tokens) == 2 {
		dm.TokenIDs[0] = tokens[0]
		dm.TokenIDs[1] = tokens[1]
	}

	return dm
}

// Resolution derives the settlement outcome from a Gamma market record.
// A market counts as resolved when it is closed and one outcome price has
// pinned to ~1 while the other is ~0.
func (m *APIMarket) Resolution() domain.MarketResolution {
	if !bool(m.Closed) && !bool(m.Resolved) {
		return domain.MarketResolution{}
	}

	outcomes := stringList(m.Outcomes)
	prices := stringList(m.OutcomePrices)
	if len(prices) < 2 {
		return domain.MarketResolution{}
	}

	p0, err0 := strconv.ParseFloat(prices[0], 64)
	p1, err1 := strconv.ParseFloat(prices[1], 64)
	if err0 != nil || err1 != nil {
		return domain.MarketResolution{}
	}

	switch {
	case p0 >= 0.99 && p1 <= 0.01:
		// First outcome won; it is YES unless labeled otherwise.
		yesWon := len(outcomes) == 0 || strings.EqualFold(outcomes[0], "yes")
		return domain.MarketResolution{Resolved: true, YesWon: yesWon}
	case p1 >= 0.99 && p0 <= 0.01:
		yesWon := len(outcomes) > 1 && !strings.EqualFold(outcomes[1], "no")
		return domain.MarketResolution{Resolved: true, YesWon: yesWon}
	}

	// Closed but not determinable, e.g. a cancelled market.
	return domain.MarketResolution{}
}

// wsCommand is the JSON payload sent to the market data WebSocket to
// subscribe to asset channels.
type wsCommand struct {
	Type   string   `json:"type"`
	Assets []string `json:"assets_ids"`
}

// lastTradeMessage is the "last_trade_price" frame from the market channel.
type lastTradeMessage struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Timestamp string `json:"timestamp"`
}
