package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/astra-quant/recallbot/internal/types"
	"go.uber.org/zap"
)

// Meme discovery defaults, overridable per policy via config params.
const (
	defaultMemeMinChangeH1 = 5.0
	defaultMemeMaxAgeHours = 48.0
)

// memeScan is the entry pass for the DEX-discovery policy. Candidates come
// from trending and freshly created pairs instead of a fixed universe, and
// the entry signal is short-window price momentum with real buy pressure.
func (e *Engine) memeScan(ctx context.Context) error {
	if len(e.openPositions()) >= e.policy.MaxPositions {
		return nil
	}

	portfolioCh := e.fetchPortfolioAsync(ctx)

	trending, err := e.discovery.GetTopTrendingPairs(ctx, e.policy.MinLiquidityUSD)
	if err != nil {
		return err
	}

	fresh, err := e.discovery.GetNewPairs(ctx, e.policy.Chain)
	if err != nil {
		e.log.Warn("new-pair fetch failed, scanning trending only", zap.Error(err))
	}

	fetch := <-portfolioCh
	if fetch.err != nil {
		return fetch.err
	}

	portfolio := fetch.portfolio

	now := time.Now().UTC()
	candidates := e.memeCandidates(trending, fresh, now)

	for _, pair := range candidates {
		symbol := pair.BaseToken.Symbol

		if e.store.HasSymbol(symbol) || e.enteredToday(symbol, now) {
			continue
		}

		passed, predicateReason := e.memeEntry(pair)
		if !passed && !e.policy.ConfidenceOverride {
			continue
		}

		opp := types.Opportunity{
			Time:     now,
			Asset:    pair.BaseToken,
			Price:    pair.PriceUSD,
			Strategy: e.policy.Name,
			Reason:   predicateReason,
		}

		verdict := e.scoreOpportunity(ctx, opp)
		if !e.policy.ShouldEnter(passed, verdict.Confidence) {
			continue
		}

		reason := fmt.Sprintf("%s; oracle %.2f: %s", predicateReason, verdict.Confidence, verdict.Reason)

		if err := e.openPosition(ctx, opp, reason, portfolio); err != nil {
			e.log.Warn("meme entry failed", zap.String("symbol", symbol), zap.Error(err))

			continue
		}

		e.markEntered(symbol, now)

		if len(e.openPositions()) >= e.policy.MaxPositions {
			return nil
		}
	}

	return nil
}

// memeCandidates merges trending pairs with fresh launches that clear the
// liquidity floor, deduplicated by pair address, trending first.
func (e *Engine) memeCandidates(trending, fresh []types.Pair, now time.Time) []types.Pair {
	maxAge := e.paramOr("max_age_hours", defaultMemeMaxAgeHours)

	seen := make(map[string]bool, len(trending))
	candidates := make([]types.Pair, 0, len(trending)+len(fresh))

	for _, pair := range trending {
		if pair.PriceUSD <= 0 || seen[pair.PairAddress] {
			continue
		}

		seen[pair.PairAddress] = true
		candidates = append(candidates, pair)
	}

	for _, pair := range fresh {
		if pair.PriceUSD <= 0 || seen[pair.PairAddress] {
			continue
		}

		if pair.LiquidityUSD < e.policy.MinLiquidityUSD {
			continue
		}

		if now.Sub(pair.CreatedAt) > time.Duration(maxAge*float64(time.Hour)) {
			continue
		}

		seen[pair.PairAddress] = true
		candidates = append(candidates, pair)
	}

	return candidates
}

// memeEntry is the momentum check on a discovered pair: hourly price change
// above the threshold with more buys than sells over the day.
func (e *Engine) memeEntry(pair types.Pair) (bool, string) {
	minChange := e.paramOr("min_change_h1", defaultMemeMinChangeH1)

	if pair.PriceChangeH1 < minChange {
		return false, fmt.Sprintf("h1 change %.2f%% below %.2f%%", pair.PriceChangeH1, minChange)
	}

	if pair.Buys24h <= pair.Sells24h {
		return false, fmt.Sprintf("no buy pressure (%d buys vs %d sells)", pair.Buys24h, pair.Sells24h)
	}

	return true, fmt.Sprintf("pair %s up %.2f%% in 1h with %d buys vs %d sells, %.0f USD liquidity",
		pair.BaseToken.Symbol, pair.PriceChangeH1, pair.Buys24h, pair.Sells24h, pair.LiquidityUSD)
}

func (e *Engine) paramOr(key string, fallback float64) float64 {
	if v, ok := e.policy.Params[key]; ok && v > 0 {
		return v
	}

	return fallback
}
