package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
)

const defaultPageSize = 100

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and resolution state.
type GammaClient struct {
	baseURL    string
	pageSize   int
	maxPages   int // 0 means no cap
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// The API caps pages at 100 records, so larger pageSize values are clamped.
func NewGammaClient(baseURL string, pageSize, maxPages int, logger *slog.Logger) *GammaClient {
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	return &GammaClient{
		baseURL:  baseURL,
		pageSize: pageSize,
		maxPages: maxPages,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "gamma")),
	}
}

// ListOpenMarkets pages through all open markets. A short page ends the
// walk; maxPages bounds it when the full catalog is not needed.
func (g *GammaClient) ListOpenMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market

	for page := 0; g.maxPages == 0 || page < g.maxPages; page++ {
		params := url.Values{}
		params.Set("closed", "false")
		params.Set("limit", strconv.Itoa(g.pageSize))
		params.Set("offset", strconv.Itoa(len(markets)))

		body, err := g.doGet(ctx, "/markets?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("polymarket/gamma: list open markets: %w", err)
		}

		var apiMarkets []APIMarket
		if err := json.Unmarshal(body, &apiMarkets); err != nil {
			return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
		}
		if len(apiMarkets) == 0 {
			break
		}

		for i := range apiMarkets {
			markets = append(markets, apiMarkets[i].ToDomainMarket())
		}

		if len(apiMarkets) < g.pageSize {
			break
		}
	}

	g.logger.Debug("fetched open markets", slog.Int("count", len(markets)))
	return markets, nil
}

// GetMarket returns a single market by its ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	apiMarket, err := g.getAPIMarket(ctx, id)
	if err != nil {
		return domain.Market{}, err
	}
	return apiMarket.ToDomainMarket(), nil
}

// GetResolution fetches a market by ID and reports whether it has settled
// and which side won. Used when settling open positions.
func (g *GammaClient) GetResolution(ctx context.Context, id string) (domain.MarketResolution, error) {
	apiMarket, err := g.getAPIMarket(ctx, id)
	if err != nil {
		return domain.MarketResolution{}, err
	}
	return apiMarket.Resolution(), nil
}

func (g *GammaClient) getAPIMarket(ctx context.Context, id string) (APIMarket, error) {
	body, err := g.doGet(ctx, "/markets/"+url.PathEscape(id))
	if err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}
	return apiMarket, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx responses onto domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// Compile-time interface check.
var _ domain.MarketSource = (*GammaClient)(nil)
