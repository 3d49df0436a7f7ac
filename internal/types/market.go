package types

import "time"

// PricePoint is a single observation in a chronological price series.
// Callers may not assume uniform spacing between points.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time" csv:"time"`
	Open   float64   `json:"open" csv:"open"`
	High   float64   `json:"high" csv:"high"`
	Low    float64   `json:"low" csv:"low"`
	Close  float64   `json:"close" csv:"close"`
	Volume float64   `json:"volume" csv:"volume"`
}

// Prices extracts the price column from a series of points.
func Prices(series []PricePoint) []float64 {
	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}

	return prices
}

// Closes extracts the close column from a series of candles.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	return closes
}

// MarketTicker is one row of a market listing: current price plus
// day-over-day movement for a token.
type MarketTicker struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
	TotalVolume       float64 `json:"total_volume"`
}

// TrendingToken is a token surfaced by the provider's trending feed.
type TrendingToken struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// GlobalMetrics summarizes the overall market state.
type GlobalMetrics struct {
	TotalMarketCapUSD float64 `json:"total_market_cap_usd"`
	TotalVolumeUSD    float64 `json:"total_volume_usd"`
	BTCDominancePct   float64 `json:"btc_dominance_pct"`
}

// Pair is a DEX trading pair returned by the discovery provider.
type Pair struct {
	ChainID        string    `json:"chainId"`
	PairAddress    string    `json:"pairAddress"`
	BaseToken      Asset     `json:"baseToken"`
	QuoteToken     Asset     `json:"quoteToken"`
	PriceUSD       float64   `json:"priceUsd"`
	LiquidityUSD   float64   `json:"liquidityUsd"`
	Volume24hUSD   float64   `json:"volume24hUsd"`
	PriceChangeM5  float64   `json:"priceChangeM5"`
	PriceChangeH1  float64   `json:"priceChangeH1"`
	PriceChangeH24 float64   `json:"priceChangeH24"`
	Buys24h        int       `json:"buys24h"`
	Sells24h       int       `json:"sells24h"`
	CreatedAt      time.Time `json:"createdAt"`
}
