package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/astra-quant/recallbot/internal/execution"
	"github.com/astra-quant/recallbot/internal/strategy"
	"go.uber.org/zap"
)

// minRebalanceNotionalUSD avoids dust trades on tiny drifts.
const minRebalanceNotionalUSD = 10.0

// rebalance trades the portfolio back toward the policy's target weights.
// Positions are not tracked in the store; the Recall portfolio itself is the
// state being corrected.
func (e *Engine) rebalance(ctx context.Context) error {
	portfolio, err := e.exec.GetPortfolio(ctx)
	if err != nil {
		return err
	}

	if portfolio.TotalValueUSD <= 0 {
		return nil
	}

	valueBySymbol := make(map[string]float64, len(portfolio.Balances))
	for _, balance := range portfolio.Balances {
		valueBySymbol[balance.Symbol] += balance.ValueUSD
	}

	for _, inst := range e.policy.Instruments {
		symbol := inst.Asset.Symbol

		target, ok := e.policy.TargetWeights[symbol]
		if !ok {
			continue
		}

		actual := valueBySymbol[symbol] / portfolio.TotalValueUSD
		drift := actual - target

		if math.Abs(drift) <= e.policy.DriftTolerance {
			continue
		}

		notional := math.Abs(drift) * portfolio.TotalValueUSD
		if notional < minRebalanceNotionalUSD {
			continue
		}

		if err := e.rebalanceTrade(ctx, inst, drift, actual, target, notional); err != nil {
			e.log.Warn("rebalance trade failed",
				zap.String("symbol", symbol),
				zap.Error(err))
		}
	}

	return nil
}

// rebalanceTrade closes one instrument's drift: overweight sells into the
// quote, underweight buys from it.
func (e *Engine) rebalanceTrade(ctx context.Context, inst strategy.Instrument, drift, actual, target, notionalUSD float64) error {
	req := execution.TradeRequest{
		Reason: fmt.Sprintf("rebalance %s: weight %.4f vs target %.4f", inst.Asset.Symbol, actual, target),
	}

	side := "buy"

	if drift > 0 {
		side = "sell"

		price, err := e.exec.GetPrice(ctx, inst.Asset)
		if err != nil {
			return err
		}

		req.FromToken = inst.Asset.Address
		req.FromChain = inst.Asset.Chain
		req.FromSpecific = inst.Asset.SpecificChain
		req.ToToken = e.policy.Quote.Asset.Address
		req.ToChain = e.policy.Quote.Asset.Chain
		req.ToSpecific = e.policy.Quote.Asset.SpecificChain
		req.Amount = notionalUSD / price
	} else {
		req.FromToken = e.policy.Quote.Asset.Address
		req.FromChain = e.policy.Quote.Asset.Chain
		req.FromSpecific = e.policy.Quote.Asset.SpecificChain
		req.ToToken = inst.Asset.Address
		req.ToChain = inst.Asset.Chain
		req.ToSpecific = inst.Asset.SpecificChain
		req.Amount = notionalUSD
	}

	if _, err := e.exec.ExecuteTrade(ctx, req); err != nil {
		e.metrics.TradeFailures.WithLabelValues(e.policy.Name).Inc()

		return err
	}

	e.metrics.TradesTotal.WithLabelValues(e.policy.Name, side).Inc()

	e.log.Info("rebalanced",
		zap.String("symbol", inst.Asset.Symbol),
		zap.String("side", side),
		zap.Float64("drift", drift),
		zap.Float64("notionalUsd", notionalUSD))

	return nil
}
