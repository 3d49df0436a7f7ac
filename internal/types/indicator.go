package types

import "github.com/moznion/go-optional"

// IndicatorType identifies a technical indicator.
type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
)

// MACDValue is the latest MACD line/signal pair.
type MACDValue struct {
	Line   float64 `json:"line"`
	Signal float64 `json:"signal"`
}

// BollingerValue is a Bollinger Bands envelope at one point in time.
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSnapshot is the transient result of running the indicator library
// against a price series for one instrument at one point in time. Absent
// fields mean "not enough data"; the snapshot is recomputed every cycle and
// never persisted.
type IndicatorSnapshot struct {
	SMA       optional.Option[float64]
	EMA       optional.Option[float64]
	RSI       optional.Option[float64]
	MACD      optional.Option[MACDValue]
	ATR       optional.Option[float64]
	Bollinger optional.Option[BollingerValue]
}
