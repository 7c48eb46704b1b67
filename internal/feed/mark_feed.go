// Package feed streams live trade prices for tokens held by open
// positions and records them as mark prices.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
	"github.com/geostrat/paperbot/internal/platform/polymarket"
)

const defaultRefreshInterval = 5 * time.Minute

// MarkFeed subscribes to the market data WebSocket for every token held
// by an open position and writes each last trade price back to the
// position store. The subscription set is refreshed periodically so
// positions opened after startup are picked up too.
type MarkFeed struct {
	wsURL     string
	positions domain.PositionStore
	refresh   time.Duration
	logger    *slog.Logger

	mu      sync.RWMutex
	byToken map[string][]string // token ID -> position IDs

	closeOnce sync.Once
	done      chan struct{}
}

// NewMarkFeed creates a feed that marks open positions from live trades.
func NewMarkFeed(wsURL string, positions domain.PositionStore, refresh time.Duration, logger *slog.Logger) *MarkFeed {
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}
	return &MarkFeed{
		wsURL:     wsURL,
		positions: positions,
		refresh:   refresh,
		logger:    logger.With(slog.String("component", "mark_feed")),
		byToken:   make(map[string][]string),
		done:      make(chan struct{}),
	}
}

// Run connects, subscribes to the tokens of all open positions, and runs
// until ctx is cancelled. Reconnects with backoff on disconnect.
func (f *MarkFeed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("mark feed disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *MarkFeed) runConnection(ctx context.Context) error {
	client := polymarket.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnLastTrade(func(assetID string, price float64, _ time.Time) {
		f.applyMark(assetID, price)
	})

	if err := client.Connect(ctx); err != nil {
		return err
	}

	tokens, err := f.reloadPositions(ctx)
	if err != nil {
		return err
	}
	if len(tokens) > 0 {
		if err := client.Subscribe(ctx, tokens); err != nil {
			return err
		}
	}
	f.logger.Info("mark feed subscribed", slog.Int("tokens", len(tokens)))

	ticker := time.NewTicker(f.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-ticker.C:
			fresh, err := f.reloadPositions(ctx)
			if err != nil {
				f.logger.Warn("refresh open positions failed", slog.String("error", err.Error()))
				continue
			}
			// Subscribe covers new tokens; stale ones just go quiet.
			if len(fresh) > 0 {
				if err := client.Subscribe(ctx, fresh); err != nil {
					return err
				}
			}
		}
	}
}

// reloadPositions rebuilds the token index from currently open positions
// and returns the token IDs to subscribe to.
func (f *MarkFeed) reloadPositions(ctx context.Context) ([]string, error) {
	open, err := f.positions.GetOpen(ctx)
	if err != nil {
		return nil, err
	}

	byToken := make(map[string][]string, len(open))
	for _, p := range open {
		if p.TokenID == "" {
			continue
		}
		byToken[p.TokenID] = append(byToken[p.TokenID], p.ID)
	}

	f.mu.Lock()
	f.byToken = byToken
	f.mu.Unlock()

	tokens := make([]string, 0, len(byToken))
	for tok := range byToken {
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// applyMark records a trade price against every open position holding
// the token.
func (f *MarkFeed) applyMark(assetID string, price float64) {
	f.mu.RLock()
	ids := f.byToken[assetID]
	f.mu.RUnlock()
	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, id := range ids {
		if err := f.positions.UpdateMark(ctx, id, price); err != nil {
			// The position may have settled since the index was built.
			f.logger.Debug("update mark skipped",
				slog.String("position", id),
				slog.String("error", err.Error()))
		}
	}
}

// Close stops the feed.
func (f *MarkFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
