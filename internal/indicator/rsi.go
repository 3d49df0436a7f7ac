package indicator

import (
	"fmt"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
)

// RSI computes Wilder's smoothed Relative Strength Index. The seed average
// gain/loss is the simple mean of the first period deltas; every subsequent
// delta applies Wilder smoothing:
//
//	avg = (avg*(period-1) + current) / period
//
// RSI = 100 - 100/(1+avgGain/avgLoss), with the convention RSI = 100 when
// avgLoss == 0. Returns an empty sequence when len(series) <= period.
func RSI(series []float64, period int) []float64 {
	if period <= 0 || len(series) <= period {
		return nil
	}

	gains := make([]float64, 0, len(series)-1)
	losses := make([]float64, 0, len(series)-1)

	for i := 1; i < len(series); i++ {
		change := series[i] - series[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(series)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs)
}

// RSIIndicator is the Relative Strength Index indicator.
type RSIIndicator struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSIIndicator{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSIIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSIIndicator) Config(params ...any) error {
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

	r.period = period

	return nil
}

// Apply records the latest RSI value on the snapshot.
func (r *RSIIndicator) Apply(in Input, snapshot *types.IndicatorSnapshot) {
	values := RSI(in.Prices, r.period)
	if len(values) == 0 {
		return
	}

	snapshot.RSI = optional.Some(values[len(values)-1])
}
