package indicator

import (
	"fmt"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
)

// SMA computes the simple moving average over the series. Each output point
// is the arithmetic mean of the trailing period input points ending at that
// index, so the result has length len(series)-period+1. Returns an empty
// sequence when the series is shorter than the period.
func SMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	out := make([]float64, 0, len(series)-period+1)

	windowSum := 0.0
	for i, price := range series {
		windowSum += price
		if i >= period {
			windowSum -= series[i-period]
		}

		if i >= period-1 {
			out = append(out, windowSum/float64(period))
		}
	}

	return out
}

// MA is the simple-moving-average indicator.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	return &MA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Config configures the MA indicator. Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
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

	m.period = period

	return nil
}

// Apply records the latest SMA value on the snapshot.
func (m *MA) Apply(in Input, snapshot *types.IndicatorSnapshot) {
	values := SMA(in.Prices, m.period)
	if len(values) == 0 {
		return
	}

	snapshot.SMA = optional.Some(values[len(values)-1])
}
