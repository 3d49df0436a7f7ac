package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	coinGeckoTimeout        = 10 * time.Second
	coinGeckoMaxRetries     = 3
)

// CoinGeckoClient implements Gateway against the CoinGecko REST API.
type CoinGeckoClient struct {
	client *resty.Client
	log    *logger.Logger
}

// CoinGeckoOption customizes the client.
type CoinGeckoOption func(*resty.Client)

// WithCoinGeckoBaseURL overrides the API base URL. Used by tests.
func WithCoinGeckoBaseURL(baseURL string) CoinGeckoOption {
	return func(c *resty.Client) {
		c.SetBaseURL(baseURL)
	}
}

// NewCoinGeckoClient creates a CoinGecko market data client. The API key may
// be empty for the public rate-limited tier.
func NewCoinGeckoClient(apiKey string, log *logger.Logger, opts ...CoinGeckoOption) *CoinGeckoClient {
	client := resty.New().
		SetBaseURL(defaultCoinGeckoBaseURL).
		SetTimeout(coinGeckoTimeout)

	if apiKey != "" {
		client.SetHeader("x-cg-demo-api-key", apiKey)
	}

	for _, opt := range opts {
		opt(client)
	}

	return &CoinGeckoClient{
		client: client,
		log:    log.Named("coingecko"),
	}
}

// get performs a GET with exponential backoff on transient failures. Market
// data reads are idempotent so retrying is always safe.
func (c *CoinGeckoClient) get(ctx context.Context, path string, query map[string]string, result any) error {
	operation := func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetResult(result).
			Get(path)
		if err != nil {
			return err
		}

		if resp.IsError() {
			return fmt.Errorf("coingecko returned status %d for %s", resp.StatusCode(), path)
		}

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), coinGeckoMaxRetries),
		ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "GET %s failed", path)
	}

	return nil
}

// GetCurrentPrice returns the current USD price for the token ID.
func (c *CoinGeckoClient) GetCurrentPrice(ctx context.Context, tokenID string) (float64, error) {
	var out map[string]map[string]float64

	err := c.get(ctx, "/simple/price", map[string]string{
		"ids":           tokenID,
		"vs_currencies": "usd",
	}, &out)
	if err != nil {
		return 0, err
	}

	entry, ok := out[tokenID]
	if !ok {
		return 0, errors.Newf(errors.ErrCodePriceNotFound, "no price for token %s", tokenID)
	}

	price, ok := entry["usd"]
	if !ok {
		return 0, errors.Newf(errors.ErrCodePriceNotFound, "no usd quote for token %s", tokenID)
	}

	return price, nil
}

// GetMarketListing returns market tickers for the given IDs, or the top
// tokens by market cap when ids is empty.
func (c *CoinGeckoClient) GetMarketListing(ctx context.Context, vsCurrency string, ids []string) ([]types.MarketTicker, error) {
	query := map[string]string{
		"vs_currency": vsCurrency,
		"order":       "market_cap_desc",
		"per_page":    "100",
		"page":        "1",
	}

	if len(ids) > 0 {
		query["ids"] = strings.Join(ids, ",")
	}

	var out []types.MarketTicker
	if err := c.get(ctx, "/coins/markets", query, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// GetHistoricalChart returns the chronological price series for the token.
func (c *CoinGeckoClient) GetHistoricalChart(ctx context.Context, id, vsCurrency string, days int, interval string) ([]types.PricePoint, error) {
	query := map[string]string{
		"vs_currency": vsCurrency,
		"days":        fmt.Sprintf("%d", days),
	}

	if interval != "" {
		query["interval"] = interval
	}

	var out struct {
		Prices [][]float64 `json:"prices"`
	}

	if err := c.get(ctx, fmt.Sprintf("/coins/%s/market_chart", id), query, &out); err != nil {
		return nil, err
	}

	series := make([]types.PricePoint, 0, len(out.Prices))

	for _, row := range out.Prices {
		if len(row) < 2 {
			return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "malformed chart row for %s", id)
		}

		series = append(series, types.PricePoint{
			Time:  time.UnixMilli(int64(row[0])).UTC(),
			Price: row[1],
		})
	}

	return series, nil
}

// GetOHLC returns OHLC candles for the token.
func (c *CoinGeckoClient) GetOHLC(ctx context.Context, id, vsCurrency string, days int) ([]types.Candle, error) {
	var out [][]float64

	err := c.get(ctx, fmt.Sprintf("/coins/%s/ohlc", id), map[string]string{
		"vs_currency": vsCurrency,
		"days":        fmt.Sprintf("%d", days),
	}, &out)
	if err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(out))

	for _, row := range out {
		if len(row) < 5 {
			return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "malformed ohlc row for %s", id)
		}

		candles = append(candles, types.Candle{
			Time:  time.UnixMilli(int64(row[0])).UTC(),
			Open:  row[1],
			High:  row[2],
			Low:   row[3],
			Close: row[4],
		})
	}

	return candles, nil
}

// GetTrendingTokens returns CoinGecko's trending tokens.
func (c *CoinGeckoClient) GetTrendingTokens(ctx context.Context) ([]types.TrendingToken, error) {
	var out struct {
		Coins []struct {
			Item types.TrendingToken `json:"item"`
		} `json:"coins"`
	}

	if err := c.get(ctx, "/search/trending", nil, &out); err != nil {
		return nil, err
	}

	tokens := make([]types.TrendingToken, 0, len(out.Coins))
	for _, coin := range out.Coins {
		tokens = append(tokens, coin.Item)
	}

	return tokens, nil
}

// GetTopMovers returns the market listing reordered by absolute 24h price
// change. CoinGecko has no movers endpoint so the sort happens client-side;
// duration is accepted for interface compatibility but only 24h data is
// available on the markets listing.
func (c *CoinGeckoClient) GetTopMovers(ctx context.Context, vsCurrency, duration string) ([]types.MarketTicker, error) {
	tickers, err := c.GetMarketListing(ctx, vsCurrency, nil)
	if err != nil {
		return nil, err
	}

	if duration != "" && duration != "24h" {
		c.log.Debug("top movers only support 24h windows, falling back", zap.String("duration", duration))
	}

	sort.SliceStable(tickers, func(i, j int) bool {
		left := tickers[i].PriceChangePct24h
		if left < 0 {
			left = -left
		}

		right := tickers[j].PriceChangePct24h
		if right < 0 {
			right = -right
		}

		return left > right
	})

	return tickers, nil
}

// GetGlobalMetrics returns overall market metrics.
func (c *CoinGeckoClient) GetGlobalMetrics(ctx context.Context) (types.GlobalMetrics, error) {
	var out struct {
		Data struct {
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			TotalVolume         map[string]float64 `json:"total_volume"`
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}

	if err := c.get(ctx, "/global", nil, &out); err != nil {
		return types.GlobalMetrics{}, err
	}

	return types.GlobalMetrics{
		TotalMarketCapUSD: out.Data.TotalMarketCap["usd"],
		TotalVolumeUSD:    out.Data.TotalVolume["usd"],
		BTCDominancePct:   out.Data.MarketCapPercentage["btc"],
	}, nil
}
