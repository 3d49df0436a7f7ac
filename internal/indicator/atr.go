package indicator

import (
	"fmt"
	"math"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
)

// ATR computes Wilder's Average True Range over OHLC bars. The true range of
// a bar is max(high-low, |high-prevClose|, |low-prevClose|); the first ATR
// value seeds as the simple mean of the first period true ranges, after
// which each bar applies Wilder smoothing:
//
//	atr = (atr*(period-1) + tr) / period
//
// Returns an empty sequence when fewer than period+1 bars are available
// (the first bar only supplies the previous close).
func ATR(candles []types.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period+1 {
		return nil
	}

	trueRanges := make([]float64, 0, len(candles)-1)

	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges = append(trueRanges, tr)
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}

	atr /= float64(period)

	out := make([]float64, 0, len(trueRanges)-period+1)
	out = append(out, atr)

	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
		out = append(out, atr)
	}

	return out
}

// LastATR returns the most recent ATR value, or 0 when there is not enough
// data. Call sites that treat "no volatility reading" as zero use this
// convention instead of the empty-sequence one.
func LastATR(candles []types.Candle, period int) float64 {
	values := ATR(candles, period)
	if len(values) == 0 {
		return 0
	}

	return values[len(values)-1]
}

// ATRIndicator is the Average True Range indicator.
type ATRIndicator struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATRIndicator{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (a *ATRIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATRIndicator) Config(params ...any) error {
	if len(params) != 1 {
		return fmt.Errorf("Config expects 1 parameter: period (int)")
	}

	period, ok := intParam(params, 0)
	if !ok {
		return fmt.Errorf("invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return fmt.Errorf("period must be a positive integer, got %d", period)
	}

	a.period = period

	return nil
}

// Apply records the latest ATR value on the snapshot.
func (a *ATRIndicator) Apply(in Input, snapshot *types.IndicatorSnapshot) {
	values := ATR(in.Candles, a.period)
	if len(values) == 0 {
		return
	}

	snapshot.ATR = optional.Some(values[len(values)-1])
}
