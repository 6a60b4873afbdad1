package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"coinbasepro/config"
	"coinbasepro/errs"
	"coinbasepro/logger"
)

// Granularities accepted by the candles endpoint, in seconds.
var allowedGranularities = map[int]bool{
	60:    true,
	300:   true,
	900:   true,
	3600:  true,
	21600: true,
	86400: true,
}

// PublicClient reads market data over the unauthenticated REST
// surface. It is stateless and safe for concurrent reuse.
type PublicClient struct {
	t   *transport
	log *logger.Log
}

// NewPublicClient builds a public market-data client for the
// environment selected in cfg.
func NewPublicClient(cfg *config.Config) *PublicClient {
	rl := cfg.API.RateLimit
	return &PublicClient{
		t:   newTransport(cfg, nil, rl.PublicRequestsPerSecond, rl.PublicBurst),
		log: logger.GetLogger(),
	}
}

// GetProducts lists all trading pairs.
func (c *PublicClient) GetProducts(ctx context.Context) (json.RawMessage, error) {
	return c.t.do(ctx, "GET", "/products", nil, "")
}

// GetProduct fetches a single trading pair, e.g. "BTC-USD".
func (c *PublicClient) GetProduct(ctx context.Context, productID string) (json.RawMessage, error) {
	return c.t.do(ctx, "GET", "/products/"+productID, nil, "")
}

// GetTicker fetches the last trade, best bid/ask and 24h volume for a
// product.
func (c *PublicClient) GetTicker(ctx context.Context, productID string) (json.RawMessage, error) {
	return c.t.do(ctx, "GET", "/products/"+productID+"/ticker", nil, "")
}

// GetStats fetches 24 hour OHLC stats and 30-day volume for a product.
func (c *PublicClient) GetStats(ctx context.Context, productID string) (json.RawMessage, error) {
	return c.t.do(ctx, "GET", "/products/"+productID+"/stats", nil, "")
}

// GetBook fetches the order book at the requested aggregation level:
// 1 best bid/ask, 2 aggregated full book, 3 non-aggregated full book.
func (c *PublicClient) GetBook(ctx context.Context, productID string, level int) (json.RawMessage, error) {
	if level < 1 || level > 3 {
		return nil, &errs.InvalidArgumentError{
			Argument: "level",
			Message:  fmt.Sprintf("book level must be 1, 2 or 3, got %d", level),
		}
	}
	query := url.Values{"level": []string{strconv.Itoa(level)}}
	return c.t.do(ctx, "GET", "/products/"+productID+"/book", query, "")
}

// CandleParams bounds a candle query. All fields are optional; Start
// and End are ISO 8601 timestamps and Granularity is the candle width
// in seconds.
type CandleParams struct {
	Start       string
	End         string
	Granularity int
}

// GetCandles fetches historic rates for a product as
// [timestamp, low, high, open, close, volume] rows.
func (c *PublicClient) GetCandles(ctx context.Context, productID string, params CandleParams) (json.RawMessage, error) {
	query := url.Values{}
	if params.Start != "" {
		query.Set("start", params.Start)
	}
	if params.End != "" {
		query.Set("end", params.End)
	}
	if params.Granularity != 0 {
		if !allowedGranularities[params.Granularity] {
			return nil, &errs.InvalidArgumentError{
				Argument: "granularity",
				Message:  fmt.Sprintf("granularity must be one of 60, 300, 900, 3600, 21600, 86400, got %d", params.Granularity),
			}
		}
		query.Set("granularity", strconv.Itoa(params.Granularity))
	}
	return c.t.do(ctx, "GET", "/products/"+productID+"/candles", query, "")
}

// GetServerTime fetches the API server time.
func (c *PublicClient) GetServerTime(ctx context.Context) (json.RawMessage, error) {
	return c.t.do(ctx, "GET", "/time", nil, "")
}
