package market

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/go-resty/resty/v2"
)

const (
	defaultDexScreenerBaseURL = "https://api.dexscreener.com"
	dexScreenerTimeout        = 10 * time.Second
)

// dexPairsResponse mirrors the DEX Screener wire format. Some endpoints
// return a list under "pairs", others a single object under "pair".
type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
	Pair  *dexPair  `json:"pair"`
}

type dexPair struct {
	ChainID       string         `json:"chainId"`
	PairAddress   string         `json:"pairAddress"`
	BaseToken     dexToken       `json:"baseToken"`
	QuoteToken    dexToken       `json:"quoteToken"`
	PriceUsd      string         `json:"priceUsd"`
	Volume        dexVolumes     `json:"volume"`
	Liquidity     dexLiquidity   `json:"liquidity"`
	PriceChange   dexPriceChange `json:"priceChange"`
	Txns          dexTxns        `json:"txns"`
	PairCreatedAt int64          `json:"pairCreatedAt"`
}

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexVolumes struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H24 float64 `json:"h24"`
}

type dexLiquidity struct {
	USD float64 `json:"usd"`
}

type dexPriceChange struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H24 float64 `json:"h24"`
}

type dexTxns struct {
	H24 dexTxn `json:"h24"`
}

type dexTxn struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

func (p *dexPair) toPair() (types.Pair, error) {
	price := 0.0

	if p.PriceUsd != "" {
		parsed, err := strconv.ParseFloat(p.PriceUsd, 64)
		if err != nil {
			return types.Pair{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "bad priceUsd %q for pair %s", p.PriceUsd, p.PairAddress)
		}

		price = parsed
	}

	return types.Pair{
		ChainID:     p.ChainID,
		PairAddress: p.PairAddress,
		BaseToken: types.Asset{
			Address: p.BaseToken.Address,
			Symbol:  p.BaseToken.Symbol,
			Chain:   p.ChainID,
		},
		QuoteToken: types.Asset{
			Address: p.QuoteToken.Address,
			Symbol:  p.QuoteToken.Symbol,
			Chain:   p.ChainID,
		},
		PriceUSD:       price,
		LiquidityUSD:   p.Liquidity.USD,
		Volume24hUSD:   p.Volume.H24,
		PriceChangeM5:  p.PriceChange.M5,
		PriceChangeH1:  p.PriceChange.H1,
		PriceChangeH24: p.PriceChange.H24,
		Buys24h:        p.Txns.H24.Buys,
		Sells24h:       p.Txns.H24.Sells,
		CreatedAt:      time.UnixMilli(p.PairCreatedAt).UTC(),
	}, nil
}

// DexScreenerClient implements Discovery against the DEX Screener API.
type DexScreenerClient struct {
	client *resty.Client
	log    *logger.Logger
}

// DexScreenerOption customizes the client.
type DexScreenerOption func(*resty.Client)

// WithDexScreenerBaseURL overrides the API base URL. Used by tests.
func WithDexScreenerBaseURL(baseURL string) DexScreenerOption {
	return func(c *resty.Client) {
		c.SetBaseURL(baseURL)
	}
}

// NewDexScreenerClient creates a DEX Screener discovery client.
func NewDexScreenerClient(log *logger.Logger, opts ...DexScreenerOption) *DexScreenerClient {
	client := resty.New().
		SetBaseURL(defaultDexScreenerBaseURL).
		SetTimeout(dexScreenerTimeout)

	for _, opt := range opts {
		opt(client)
	}

	return &DexScreenerClient{
		client: client,
		log:    log.Named("dexscreener"),
	}
}

func (c *DexScreenerClient) fetchPairs(ctx context.Context, path string, query map[string]string) ([]types.Pair, error) {
	var out dexPairsResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&out).
		Get(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "GET %s failed", path)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "dexscreener returned status %d for %s", resp.StatusCode(), path)
	}

	raw := out.Pairs
	if len(raw) == 0 && out.Pair != nil {
		raw = []dexPair{*out.Pair}
	}

	pairs := make([]types.Pair, 0, len(raw))

	for i := range raw {
		pair, err := raw[i].toPair()
		if err != nil {
			// A single malformed pair should not sink the whole page.
			continue
		}

		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// GetNewPairs returns recently created pairs on the given chain, newest first.
func (c *DexScreenerClient) GetNewPairs(ctx context.Context, chain string) ([]types.Pair, error) {
	pairs, err := c.fetchPairs(ctx, fmt.Sprintf("/latest/dex/pairs/%s", chain), nil)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].CreatedAt.After(pairs[j].CreatedAt)
	})

	return pairs, nil
}

// GetTopTrendingPairs returns pairs from the trending search with at least
// minLiquidity USD pooled, ordered by 24h volume.
func (c *DexScreenerClient) GetTopTrendingPairs(ctx context.Context, minLiquidity float64) ([]types.Pair, error) {
	pairs, err := c.fetchPairs(ctx, "/latest/dex/search", map[string]string{"q": "trending"})
	if err != nil {
		return nil, err
	}

	filtered := make([]types.Pair, 0, len(pairs))

	for _, pair := range pairs {
		if pair.LiquidityUSD >= minLiquidity {
			filtered = append(filtered, pair)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Volume24hUSD > filtered[j].Volume24hUSD
	})

	return filtered, nil
}

// GetPairPrice returns the USD price of the token's most liquid pair.
func (c *DexScreenerClient) GetPairPrice(ctx context.Context, tokenAddress string) (float64, error) {
	pairs, err := c.fetchPairs(ctx, fmt.Sprintf("/latest/dex/tokens/%s", tokenAddress), nil)
	if err != nil {
		return 0, err
	}

	if len(pairs) == 0 {
		return 0, errors.Newf(errors.ErrCodePairNotFound, "no pairs for token %s", tokenAddress)
	}

	best := pairs[0]
	for _, pair := range pairs[1:] {
		if pair.LiquidityUSD > best.LiquidityUSD {
			best = pair
		}
	}

	return best.PriceUSD, nil
}
