package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenPosition is a recorded, not-yet-closed trade awaiting an exit condition.
// It is the unit persisted by the position store.
type OpenPosition struct {
	// ID is an opaque unique identifier, generated by the caller.
	ID string `json:"id"`
	// FromAsset is the asset spent to open the position.
	FromAsset Asset `json:"fromAsset"`
	// FromAmount is the quantity of FromAsset spent.
	FromAmount float64 `json:"fromAmount"`
	// ToAsset is the asset received.
	ToAsset Asset `json:"toAsset"`
	// ToAmount is the quantity of ToAsset received.
	ToAmount float64 `json:"toAmount"`
	// EntryPrice is the price of ToAsset at open, in terms of FromAsset.
	EntryPrice float64 `json:"entryPrice"`
	// OpenedAt is when the opening trade executed.
	OpenedAt time.Time `json:"openedAt"`
	// Reason is the free-text rationale recorded with the opening trade.
	Reason string `json:"reason"`
	// HighWaterMark is the highest price observed since open. Zero means
	// "not yet observed"; EffectiveHighWaterMark falls back to EntryPrice.
	HighWaterMark float64 `json:"highWaterMark,omitempty"`
	// Error is set if the originating trade encountered an issue.
	Error string `json:"error,omitempty"`
	// Strategy is the name of the strategy that opened the position.
	Strategy string `json:"strategy,omitempty"`
}

// Return computes the fractional return of the position at the given price:
// (current - entry) / entry. This is the canonical P&L definition used by
// every exit rule.
func (p *OpenPosition) Return(currentPrice float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}

	entry := decimal.NewFromFloat(p.EntryPrice)
	current := decimal.NewFromFloat(currentPrice)

	result, _ := current.Sub(entry).Div(entry).Float64()

	return result
}

// UnrealizedPnL computes the unrealized dollar P&L at the given price:
// (current - entry) * quantity received.
func (p *OpenPosition) UnrealizedPnL(currentPrice float64) float64 {
	entry := decimal.NewFromFloat(p.EntryPrice)
	current := decimal.NewFromFloat(currentPrice)
	qty := decimal.NewFromFloat(p.ToAmount)

	result, _ := current.Sub(entry).Mul(qty).Float64()

	return result
}

// EffectiveHighWaterMark returns the highest observed price since open,
// defaulting to the entry price before the first observation.
func (p *OpenPosition) EffectiveHighWaterMark() float64 {
	if p.HighWaterMark == 0 {
		return p.EntryPrice
	}

	return p.HighWaterMark
}

// DrawdownFromHigh computes the fractional drop from the high-water mark to
// the given price. Used by trailing-stop exit rules.
func (p *OpenPosition) DrawdownFromHigh(currentPrice float64) float64 {
	hwm := p.EffectiveHighWaterMark()
	if hwm == 0 {
		return 0
	}

	high := decimal.NewFromFloat(hwm)
	current := decimal.NewFromFloat(currentPrice)

	result, _ := high.Sub(current).Div(high).Float64()

	return result
}
