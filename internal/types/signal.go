package types

import "time"

// Exit reasons recorded on closing trades.
const (
	ExitReasonStopLoss     string = "stop_loss"
	ExitReasonTakeProfit   string = "take_profit"
	ExitReasonTrailingStop string = "trailing_stop"
	ExitReasonCloseAll     string = "close_all"
)

// TradeSide is the direction of a submitted trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Opportunity is a candidate entry flagged by a strategy's predicate, before
// the confidence oracle has been consulted.
type Opportunity struct {
	// Time is when the opportunity was observed.
	Time time.Time
	// Asset is the instrument to buy.
	Asset Asset
	// Price is the current price used by the predicate.
	Price float64
	// Strategy is the name of the flagging strategy.
	Strategy string
	// Reason is the predicate's human-readable rationale.
	Reason string
	// Snapshot is the indicator state the predicate evaluated.
	Snapshot IndicatorSnapshot
}
