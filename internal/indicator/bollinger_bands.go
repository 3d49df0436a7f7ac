package indicator

import (
	"fmt"
	"math"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
)

// BollingerBands computes the latest Bollinger Bands envelope: the middle
// band is the last SMA(series, period) value, sigma is the population
// standard deviation of the trailing period prices, and the upper/lower
// bands sit at middle +/- stdDev*sigma. Returns nil when the series is
// shorter than the period or the middle band is exactly zero (a legacy
// guard kept for behavioral parity).
func BollingerBands(series []float64, period int, stdDev float64) *types.BollingerValue {
	if period <= 0 || len(series) < period {
		return nil
	}

	sma := SMA(series, period)
	if len(sma) == 0 {
		return nil
	}

	middle := sma[len(sma)-1]
	if middle == 0 {
		return nil
	}

	window := series[len(series)-period:]

	variance := 0.0
	for _, price := range window {
		diff := price - middle
		variance += diff * diff
	}

	variance /= float64(period)
	sigma := math.Sqrt(variance)

	return &types.BollingerValue{
		Upper:  middle + stdDev*sigma,
		Middle: middle,
		Lower:  middle - stdDev*sigma,
	}
}

// BollingerBandsIndicator is the Bollinger Bands indicator.
type BollingerBandsIndicator struct {
	period int
	stdDev float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBandsIndicator{
		period: 20, // Default period
		stdDev: 2,  // Default standard deviation multiplier
	}
}

// Name returns the name of the indicator.
func (b *BollingerBandsIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator.
// Expected parameters: period (int), stdDev (float64).
func (b *BollingerBandsIndicator) Config(params ...any) error {
	if len(params) != 2 {
		return fmt.Errorf("Config expects 2 parameters: period (int), stdDev (float64)")
	}

	period, okPeriod := intParam(params, 0)
	stdDev, okStdDev := floatParam(params, 1)

	if !okPeriod {
		return fmt.Errorf("invalid type for period parameter, expected int")
	}

	if !okStdDev {
		return fmt.Errorf("invalid type for stdDev parameter, expected float64")
	}

	if period <= 0 {
		return fmt.Errorf("period must be a positive integer, got %d", period)
	}

	if stdDev <= 0 {
		return fmt.Errorf("stdDev must be positive, got %f", stdDev)
	}

	b.period = period
	b.stdDev = stdDev

	return nil
}

// Apply records the latest Bollinger Bands envelope on the snapshot.
func (b *BollingerBandsIndicator) Apply(in Input, snapshot *types.IndicatorSnapshot) {
	bands := BollingerBands(in.Prices, b.period, b.stdDev)
	if bands == nil {
		return
	}

	snapshot.Bollinger = optional.Some(*bands)
}
