// Package strategy defines the trading policies the engine runs: entry
// predicates over indicator snapshots, position sizing and exit rules.
package strategy

import (
	"time"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
)

// Instrument is one tradeable token with its market-data key.
type Instrument struct {
	Asset       types.Asset
	CoinGeckoID string
}

// ExitRules are positive fractions; an absent rule never triggers.
type ExitRules struct {
	StopLoss     optional.Option[float64]
	TakeProfit   optional.Option[float64]
	TrailingStop optional.Option[float64]
}

// Sizing decides the notional of each entry. A per-token entry wins over the
// fixed USD amount, which wins over a portfolio percentage.
type Sizing struct {
	AmountUSD    float64
	PortfolioPct float64
	// PerToken maps symbol to a fixed notional overriding the defaults.
	PerToken map[string]float64
}

// Notional returns the entry size in USD for the symbol against the current
// portfolio value.
func (s Sizing) Notional(symbol string, portfolioValueUSD float64) float64 {
	if amount, ok := s.PerToken[symbol]; ok && amount > 0 {
		return amount
	}

	if s.AmountUSD > 0 {
		return s.AmountUSD
	}

	if s.PortfolioPct > 0 {
		return portfolioValueUSD * s.PortfolioPct
	}

	return 0
}

// EntryFunc is an opportunity predicate. It returns whether the instrument
// should be entered at the given price and a human-readable rationale.
type EntryFunc func(snapshot types.IndicatorSnapshot, price float64) (bool, string)

// Policy is one fully-assembled bot configuration the engine can run.
type Policy struct {
	Name                string
	Kind                string
	Instruments         []Instrument
	Quote               Instrument
	ScanInterval        time.Duration
	MonitorInterval     time.Duration
	MaxPositions        int
	ConfidenceThreshold float64
	// ConfidenceOverride makes the oracle verdict decisive on its own;
	// in the default mode the predicate and the threshold must both pass.
	ConfidenceOverride bool
	Sizing             Sizing
	Exit               ExitRules
	Entry              EntryFunc

	// Params carries strategy-specific numeric knobs from config.
	Params map[string]float64

	// Meme discovery settings.
	Chain           string
	MinLiquidityUSD float64

	// Rebalance settings. TargetWeights maps symbol to portfolio fraction.
	TargetWeights  map[string]float64
	DriftTolerance float64
}

// ShouldEnter combines the predicate verdict with the oracle confidence
// according to the policy's mode.
func (p *Policy) ShouldEnter(predicatePassed bool, confidence float64) bool {
	if p.ConfidenceOverride {
		return confidence >= p.ConfidenceThreshold
	}

	return predicatePassed && confidence >= p.ConfidenceThreshold
}
