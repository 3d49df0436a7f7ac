package indicator

import (
	"fmt"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
)

// EMA computes the exponential moving average over the series. The first
// output value is seeded with the first input price (not a period-SMA seed;
// this matches the historical behavior strategies were tuned against), then
// each value applies the smoothing factor k = 2/(period+1):
//
//	ema[i] = price[i]*k + ema[i-1]*(1-k)
//
// The output has the same length as the input. Returns an empty sequence
// when the series is shorter than the period.
func EMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	k := 2.0 / float64(period+1)

	out := make([]float64, len(series))
	out[0] = series[0]

	for i := 1; i < len(series); i++ {
		out[i] = series[i]*k + out[i-1]*(1-k)
	}

	return out
}

// EMAIndicator is the exponential-moving-average indicator.
type EMAIndicator struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMAIndicator{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (e *EMAIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMAIndicator) Config(params ...any) error {
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

	e.period = period

	return nil
}

// Apply records the latest EMA value on the snapshot.
func (e *EMAIndicator) Apply(in Input, snapshot *types.IndicatorSnapshot) {
	values := EMA(in.Prices, e.period)
	if len(values) == 0 {
		return
	}

	snapshot.EMA = optional.Some(values[len(values)-1])
}
