package engine

import (
	"context"
	"fmt"

	"github.com/astra-quant/recallbot/internal/execution"
	"github.com/astra-quant/recallbot/internal/journal"
	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/store"
	"github.com/astra-quant/recallbot/internal/types"
	"go.uber.org/zap"
)

// CloseAll liquidates every open position in the store back into the quote
// asset it was opened from, regardless of strategy. Used by the kill switch;
// failures are logged and the remaining positions still get attempted. The
// returned count is how many positions were closed.
func CloseAll(ctx context.Context, positions *store.Store, exec execution.Gateway, j *journal.Journal, log *logger.Logger) (int, error) {
	closed := 0

	var lastErr error

	for _, p := range positions.List() {
		price, priceErr := exec.GetPrice(ctx, p.ToAsset)
		if priceErr != nil {
			log.Warn("close-all: price fetch failed", zap.String("id", p.ID), zap.Error(priceErr))
		}

		reason := fmt.Sprintf("close all: liquidating %s position opened at %.6f (%s)",
			p.ToAsset.Symbol, p.EntryPrice, types.ExitReasonCloseAll)

		_, err := exec.ExecuteTrade(ctx, execution.TradeRequest{
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
			log.Error("close-all: trade failed, position stays open",
				zap.String("id", p.ID),
				zap.String("symbol", p.ToAsset.Symbol),
				zap.Error(err))

			lastErr = err

			continue
		}

		if err := positions.Remove(p.ID); err != nil {
			log.Error("close-all: position closed on venue but not removed",
				zap.String("id", p.ID),
				zap.Error(err))

			lastErr = err

			continue
		}

		if j != nil {
			entry := journal.Entry{
				PositionID: p.ID,
				Strategy:   p.Strategy,
				Symbol:     p.ToAsset.Symbol,
				Side:       journal.SideClose,
				Quantity:   p.ToAmount,
				Reason:     reason,
			}

			// Without a price the realized return cannot be computed;
			// leaving it out beats journaling a bogus -100%.
			if priceErr == nil {
				entry.Price = price
				entry.PnL = p.Return(price)
			}

			if err := j.Record(entry); err != nil {
				log.Warn("close-all: journal write failed", zap.Error(err))
			}
		}

		closed++

		log.Info("close-all: position closed",
			zap.String("id", p.ID),
			zap.String("symbol", p.ToAsset.Symbol))
	}

	return closed, lastErr
}
