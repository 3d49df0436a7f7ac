package indicator

import (
	"fmt"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
)

// MACDResult holds the aligned MACD and signal lines. Line and Signal always
// have the same length.
type MACDResult struct {
	Line   []float64
	Signal []float64
}

// Bullish reports whether the latest MACD value sits above its signal line.
func (r *MACDResult) Bullish() bool {
	if len(r.Line) == 0 {
		return false
	}

	return r.Line[len(r.Line)-1] > r.Signal[len(r.Signal)-1]
}

// CrossedAbove reports whether the MACD line crossed above the signal line
// at the latest point: below (or equal) on the previous point, above now.
func (r *MACDResult) CrossedAbove() bool {
	n := len(r.Line)
	if n < 2 {
		return false
	}

	return r.Line[n-2] <= r.Signal[n-2] && r.Line[n-1] > r.Signal[n-1]
}

// MACD computes the Moving Average Convergence Divergence over the series.
// It takes EMA(series, short) and EMA(series, long), head-truncates the
// longer of the two so both cover the same trailing window, and subtracts
// them elementwise to form the MACD line; the signal line is
// EMA(macdLine, signalPeriod), with the MACD line re-aligned to the signal
// line's length. Returns nil when len(series) < long or the MACD line is
// shorter than the signal period.
func MACD(series []float64, short, long, signalPeriod int) *MACDResult {
	if len(series) < long {
		return nil
	}

	emaShort := EMA(series, short)
	emaLong := EMA(series, long)

	if len(emaShort) == 0 || len(emaLong) == 0 {
		return nil
	}

	emaShort, emaLong = alignTail(emaShort, emaLong)

	line := make([]float64, len(emaLong))
	for i := range line {
		line[i] = emaShort[i] - emaLong[i]
	}

	if len(line) < signalPeriod {
		return nil
	}

	signal := EMA(line, signalPeriod)
	if len(signal) == 0 {
		return nil
	}

	line, signal = alignTail(line, signal)

	return &MACDResult{
		Line:   line,
		Signal: signal,
	}
}

// alignTail head-truncates the longer slice so both share the same trailing
// length. Inputs are returned unchanged when already equal.
func alignTail(a, b []float64) ([]float64, []float64) {
	if len(a) > len(b) {
		a = a[len(a)-len(b):]
	} else if len(b) > len(a) {
		b = b[len(b)-len(a):]
	}

	return a, b
}

// MACDIndicator is the MACD indicator.
type MACDIndicator struct {
	shortPeriod  int
	longPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACDIndicator{
		shortPeriod:  12, // Default short period
		longPeriod:   26, // Default long period
		signalPeriod: 9,  // Default signal period
	}
}

// Name returns the name of the indicator.
func (m *MACDIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator.
// Expected parameters: shortPeriod (int), longPeriod (int), signalPeriod (int).
func (m *MACDIndicator) Config(params ...any) error {
	if len(params) != 3 {
		return fmt.Errorf("Config expects 3 parameters: shortPeriod (int), longPeriod (int), signalPeriod (int)")
	}

	short, okShort := intParam(params, 0)
	long, okLong := intParam(params, 1)
	signal, okSignal := intParam(params, 2)

	if !okShort || !okLong || !okSignal {
		return fmt.Errorf("invalid type for period parameter, expected int")
	}

	if short <= 0 || long <= 0 || signal <= 0 {
		return fmt.Errorf("periods must be positive integers, got %d, %d, %d", short, long, signal)
	}

	if short >= long {
		return fmt.Errorf("short period must be less than long period, got %d >= %d", short, long)
	}

	m.shortPeriod = short
	m.longPeriod = long
	m.signalPeriod = signal

	return nil
}

// Apply records the latest MACD line/signal pair on the snapshot.
func (m *MACDIndicator) Apply(in Input, snapshot *types.IndicatorSnapshot) {
	result := MACD(in.Prices, m.shortPeriod, m.longPeriod, m.signalPeriod)
	if result == nil || len(result.Line) == 0 {
		return
	}

	snapshot.MACD = optional.Some(types.MACDValue{
		Line:   result.Line[len(result.Line)-1],
		Signal: result.Signal[len(result.Signal)-1],
	})
}
