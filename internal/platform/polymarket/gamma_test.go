package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geostrat/paperbot/internal/domain"
)

func marketPage(offset, n int) []map[string]any {
	page := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		page = append(page, map[string]any{
			"id":            strconv.Itoa(offset + i),
			"question":      fmt.Sprintf("Market %d?", offset+i),
			"outcomePrices": `["0.5", "0.5"]`,
			"volume":        "1000",
		})
	}
	return page
}

func TestListOpenMarketsPaginates(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		require.Equal(t, "false", r.URL.Query().Get("closed"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		n := 100
		if offset >= 100 {
			n = 30 // short page ends the walk
		}
		require.NoError(t, json.NewEncoder(w).Encode(marketPage(offset, n)))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, 100, 0, slog.Default())
	markets, err := g.ListOpenMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 130)
	require.Len(t, requests, 2)
	require.Equal(t, "0", markets[0].ID)
	require.Equal(t, "129", markets[129].ID)
}

func TestListOpenMarketsHonorsMaxPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		require.NoError(t, json.NewEncoder(w).Encode(marketPage(offset, 100)))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, 100, 2, slog.Default())
	markets, err := g.ListOpenMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 200)
	require.Equal(t, 2, calls)
}

func TestGetMarketNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such market", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, 100, 0, slog.Default())
	_, err := g.GetMarket(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets/42", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "42",
			"closed": true,
			"outcomes": "[\"Yes\", \"No\"]",
			"outcomePrices": "[\"0\", \"1\"]"
		}`))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL, 100, 0, slog.Default())
	res, err := g.GetResolution(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, res.Resolved)
	require.False(t, res.YesWon)
}
