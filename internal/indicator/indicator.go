// Package indicator implements the technical indicators used by the trading
// strategies: SMA, EMA, RSI, MACD, ATR and Bollinger Bands.
//
// The package-level functions are pure: they never mutate their inputs,
// always allocate fresh output slices, and return an explicit "no result"
// value (empty slice or nil) when the series is too short for the requested
// period. Callers must treat an empty result as "not enough data", never as
// zero.
//
// On top of the pure functions, indicator structs implement the Indicator
// interface so a registry can assemble per-instrument snapshots for whatever
// subset of indicators a strategy declares.
package indicator

import "github.com/astra-quant/recallbot/internal/types"

// Input is the price history an indicator computes over. Prices is a
// chronological close/price series; Candles carries OHLC bars for
// indicators that need highs and lows.
type Input struct {
	Prices  []float64
	Candles []types.Candle
}

// Indicator is a configured technical indicator that can contribute its
// value to a snapshot.
type Indicator interface {
	// Name returns the name of the indicator.
	Name() types.IndicatorType
	// Config allows setting parameters for the indicator.
	Config(params ...any) error
	// Apply computes the indicator over the input and records the result on
	// the snapshot. Insufficient data leaves the snapshot field absent.
	Apply(in Input, snapshot *types.IndicatorSnapshot)
}

func intParam(params []any, i int) (int, bool) {
	if i >= len(params) {
		return 0, false
	}

	switch v := params[i].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func floatParam(params []any, i int) (float64, bool) {
	if i >= len(params) {
		return 0, false
	}

	switch v := params[i].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
