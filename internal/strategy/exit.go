package strategy

import (
	"fmt"

	"github.com/astra-quant/recallbot/internal/types"
)

// ExitDecision is the outcome of evaluating the exit rules for one position.
type ExitDecision struct {
	Exit bool
	// Reason is one of the types.ExitReason constants.
	Reason string
	// Detail is the human-readable rationale recorded with the closing trade.
	Detail string
	// Return is the fractional P&L at the evaluated price.
	Return float64
}

// EvaluateExit checks the position against the exit rules at the current
// price. Rules are evaluated stop-loss first, then take-profit, then the
// trailing stop against the high-water mark.
func EvaluateExit(p *types.OpenPosition, currentPrice float64, rules ExitRules) ExitDecision {
	ret := p.Return(currentPrice)

	if stop, err := rules.StopLoss.Take(); err == nil && ret <= -stop {
		return ExitDecision{
			Exit:   true,
			Reason: types.ExitReasonStopLoss,
			Detail: fmt.Sprintf("stop loss: return %.4f breached -%.4f", ret, stop),
			Return: ret,
		}
	}

	if take, err := rules.TakeProfit.Take(); err == nil && ret >= take {
		return ExitDecision{
			Exit:   true,
			Reason: types.ExitReasonTakeProfit,
			Detail: fmt.Sprintf("take profit: return %.4f reached %.4f", ret, take),
			Return: ret,
		}
	}

	if trail, err := rules.TrailingStop.Take(); err == nil {
		if drawdown := p.DrawdownFromHigh(currentPrice); drawdown >= trail {
			return ExitDecision{
				Exit:   true,
				Reason: types.ExitReasonTrailingStop,
				Detail: fmt.Sprintf("trailing stop: drawdown %.4f from high %.6f reached %.4f", drawdown, p.EffectiveHighWaterMark(), trail),
				Return: ret,
			}
		}
	}

	return ExitDecision{Return: ret}
}
