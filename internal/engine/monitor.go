package engine

import (
	"context"
	"fmt"

	"github.com/astra-quant/recallbot/internal/execution"
	"github.com/astra-quant/recallbot/internal/journal"
	"github.com/astra-quant/recallbot/internal/store"
	"github.com/astra-quant/recallbot/internal/strategy"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// runExits walks this policy's open positions, refreshes high-water marks
// and closes anything whose exit rules fire. Per-position failures log and
// continue; the pass itself never fails the cycle.
func (e *Engine) runExits(ctx context.Context) {
	for _, p := range e.openPositions() {
		price, err := e.exec.GetPrice(ctx, p.ToAsset)
		if err != nil {
			e.log.Warn("price fetch failed, skipping position",
				zap.String("id", p.ID),
				zap.String("symbol", p.ToAsset.Symbol),
				zap.Error(err))

			continue
		}

		if price > p.EffectiveHighWaterMark() {
			if err := e.store.Update(p.ID, store.Patch{HighWaterMark: optional.Some(price)}); err != nil {
				e.log.Warn("high-water mark update failed", zap.String("id", p.ID), zap.Error(err))
			} else {
				p.HighWaterMark = price
			}
		}

		decision := strategy.EvaluateExit(&p, price, e.policy.Exit)
		if !decision.Exit {
			continue
		}

		if err := e.closePosition(ctx, p, price, decision); err != nil {
			e.log.Warn("exit failed, position stays open",
				zap.String("id", p.ID),
				zap.String("symbol", p.ToAsset.Symbol),
				zap.Error(err))
		}
	}
}

// closePosition sells the position back into its quote asset and removes it
// from the store.
func (e *Engine) closePosition(ctx context.Context, p types.OpenPosition, price float64, decision strategy.ExitDecision) error {
	reason := fmt.Sprintf("%s (%s)", decision.Detail, decision.Reason)

	result, err := e.exec.ExecuteTrade(ctx, execution.TradeRequest{
		FromToken:    p.ToAsset.Address,
		ToToken:      p.FromAsset.Address,
		Amount:       p.ToAmount,
		Reason:       reason,
		FromChain:    p.ToAsset.Chain,
		FromSpecific: p.ToAsset.SpecificChain,
		ToChain:      p.FromAsset.Chain,
		ToSpecific:   p.FromAsset.SpecificChain,
	})
	if err != nil {
		e.metrics.TradeFailures.WithLabelValues(e.policy.Name).Inc()

		return err
	}

	if err := e.store.Remove(p.ID); err != nil {
		e.log.Error("position closed on venue but not removed from store",
			zap.String("id", p.ID),
			zap.String("tradeId", result.ID),
			zap.Error(err))

		return err
	}

	e.metrics.TradesTotal.WithLabelValues(e.policy.Name, string(types.TradeSideSell)).Inc()

	e.journalRecord(journal.Entry{
		PositionID: p.ID,
		Strategy:   e.policy.Name,
		Symbol:     p.ToAsset.Symbol,
		Side:       journal.SideClose,
		AmountUSD:  result.ToAmount,
		Quantity:   p.ToAmount,
		Price:      price,
		PnL:        decision.Return,
		Reason:     reason,
	})

	e.log.Info("position closed",
		zap.String("id", p.ID),
		zap.String("symbol", p.ToAsset.Symbol),
		zap.String("exit", decision.Reason),
		zap.Float64("return", decision.Return))

	return nil
}
