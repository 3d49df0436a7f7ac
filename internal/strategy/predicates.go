package strategy

import (
	"fmt"
	"math"

	"github.com/astra-quant/recallbot/internal/types"
)

// Default predicate parameters, overridable per strategy via config params.
const (
	defaultATRFloor    = 0.005
	defaultRSIOversold = 30.0
)

// MomentumEntry passes when the MACD line sits above its signal line and
// ATR-normalized volatility clears the floor. atrFloor is a fraction of
// price (0.005 = 0.5%).
func MomentumEntry(atrFloor float64) EntryFunc {
	if atrFloor <= 0 {
		atrFloor = defaultATRFloor
	}

	return func(snapshot types.IndicatorSnapshot, price float64) (bool, string) {
		macd, err := snapshot.MACD.Take()
		if err != nil {
			return false, "macd unavailable"
		}

		atr, err := snapshot.ATR.Take()
		if err != nil {
			return false, "atr unavailable"
		}

		if price <= 0 {
			return false, "no price"
		}

		if macd.Line <= macd.Signal {
			return false, fmt.Sprintf("macd line %.6f below signal %.6f", macd.Line, macd.Signal)
		}

		volatility := atr / price
		if volatility < atrFloor {
			return false, fmt.Sprintf("volatility %.4f below floor %.4f", volatility, atrFloor)
		}

		return true, fmt.Sprintf("macd bullish (line %.6f > signal %.6f) with volatility %.4f", macd.Line, macd.Signal, volatility)
	}
}

// PullbackEntry passes when price trades above the 20-period EMA but within
// one ATR of it. A price exactly on the EMA counts as within range.
func PullbackEntry() EntryFunc {
	return func(snapshot types.IndicatorSnapshot, price float64) (bool, string) {
		ema, err := snapshot.EMA.Take()
		if err != nil {
			return false, "ema unavailable"
		}

		atr, err := snapshot.ATR.Take()
		if err != nil {
			return false, "atr unavailable"
		}

		if price < ema {
			return false, fmt.Sprintf("price %.6f below ema %.6f", price, ema)
		}

		distance := math.Abs(price - ema)
		if distance > atr {
			return false, fmt.Sprintf("price %.6f extended %.6f beyond one atr %.6f of ema", price, distance, atr)
		}

		return true, fmt.Sprintf("price %.6f within one atr (%.6f) of ema %.6f in an uptrend", price, atr, ema)
	}
}

// MeanRevertEntry passes when RSI is at or below the oversold level and price
// is at or below the lower Bollinger band.
func MeanRevertEntry(oversold float64) EntryFunc {
	if oversold <= 0 {
		oversold = defaultRSIOversold
	}

	return func(snapshot types.IndicatorSnapshot, price float64) (bool, string) {
		rsi, err := snapshot.RSI.Take()
		if err != nil {
			return false, "rsi unavailable"
		}

		bb, err := snapshot.Bollinger.Take()
		if err != nil {
			return false, "bollinger unavailable"
		}

		if rsi > oversold {
			return false, fmt.Sprintf("rsi %.2f above oversold %.2f", rsi, oversold)
		}

		if price > bb.Lower {
			return false, fmt.Sprintf("price %.6f above lower band %.6f", price, bb.Lower)
		}

		return true, fmt.Sprintf("rsi %.2f oversold with price %.6f at lower band %.6f", rsi, price, bb.Lower)
	}
}
