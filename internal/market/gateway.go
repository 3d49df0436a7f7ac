// Package market wraps the external market-data providers: CoinGecko for
// prices, listings, charts and OHLC, and DEX Screener for pair discovery.
package market

import (
	"context"

	"github.com/astra-quant/recallbot/internal/types"
)

// Gateway is the market-data surface the strategy engine consumes.
type Gateway interface {
	// GetCurrentPrice returns the current price of the token in USD.
	GetCurrentPrice(ctx context.Context, tokenID string) (float64, error)
	// GetMarketListing returns tickers for the given token IDs (all top
	// tokens when ids is empty).
	GetMarketListing(ctx context.Context, vsCurrency string, ids []string) ([]types.MarketTicker, error)
	// GetHistoricalChart returns a chronological price series covering the
	// given number of days. Interval may be empty for provider default.
	GetHistoricalChart(ctx context.Context, id, vsCurrency string, days int, interval string) ([]types.PricePoint, error)
	// GetOHLC returns OHLC candles covering the given number of days.
	GetOHLC(ctx context.Context, id, vsCurrency string, days int) ([]types.Candle, error)
	// GetTrendingTokens returns the provider's trending tokens.
	GetTrendingTokens(ctx context.Context) ([]types.TrendingToken, error)
	// GetTopMovers returns tickers ordered by absolute price movement over
	// the given duration ("24h" is the only duration every provider supports).
	GetTopMovers(ctx context.Context, vsCurrency, duration string) ([]types.MarketTicker, error)
	// GetGlobalMetrics returns overall market metrics.
	GetGlobalMetrics(ctx context.Context) (types.GlobalMetrics, error)
}

// Discovery is the DEX pair-discovery surface used by the meme-coin strategy.
type Discovery interface {
	// GetNewPairs returns recently created pairs on the given chain.
	GetNewPairs(ctx context.Context, chain string) ([]types.Pair, error)
	// GetTopTrendingPairs returns trending pairs with at least minLiquidity
	// USD of pooled liquidity.
	GetTopTrendingPairs(ctx context.Context, minLiquidity float64) ([]types.Pair, error)
	// GetPairPrice returns the USD price for the token's most liquid pair.
	GetPairPrice(ctx context.Context, tokenAddress string) (float64, error)
}
