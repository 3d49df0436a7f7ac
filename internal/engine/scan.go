package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/astra-quant/recallbot/internal/execution"
	"github.com/astra-quant/recallbot/internal/indicator"
	"github.com/astra-quant/recallbot/internal/journal"
	"github.com/astra-quant/recallbot/internal/oracle"
	"github.com/astra-quant/recallbot/internal/strategy"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// snapshotIndicators is the full indicator set computed per instrument.
var snapshotIndicators = []types.IndicatorType{
	types.IndicatorTypeSMA,
	types.IndicatorTypeEMA,
	types.IndicatorTypeRSI,
	types.IndicatorTypeMACD,
	types.IndicatorTypeATR,
	types.IndicatorTypeBollingerBands,
}

// instrumentData is the per-instrument market state gathered for a scan.
type instrumentData struct {
	prices  []float64
	candles []types.Candle
	price   float64
}

// fetchInstrument pulls chart and OHLC history concurrently.
func (e *Engine) fetchInstrument(ctx context.Context, inst strategy.Instrument) (instrumentData, error) {
	var (
		wg       sync.WaitGroup
		data     instrumentData
		chartErr error
		ohlcErr  error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		series, err := e.market.GetHistoricalChart(ctx, inst.CoinGeckoID, "usd", historyDays, "daily")
		if err != nil {
			chartErr = err

			return
		}

		data.prices = types.Prices(series)
	}()

	go func() {
		defer wg.Done()

		candles, err := e.market.GetOHLC(ctx, inst.CoinGeckoID, "usd", historyDays)
		if err != nil {
			ohlcErr = err

			return
		}

		data.candles = candles
	}()

	wg.Wait()

	if chartErr != nil {
		return instrumentData{}, chartErr
	}

	if ohlcErr != nil {
		return instrumentData{}, ohlcErr
	}

	if len(data.prices) > 0 {
		data.price = data.prices[len(data.prices)-1]
	}

	return data, nil
}

// portfolioFetch carries the result of an in-flight portfolio request.
type portfolioFetch struct {
	portfolio execution.Portfolio
	err       error
}

// fetchPortfolioAsync starts the portfolio request so it overlaps the
// per-instrument market data pulls.
func (e *Engine) fetchPortfolioAsync(ctx context.Context) <-chan portfolioFetch {
	ch := make(chan portfolioFetch, 1)

	go func() {
		p, err := e.exec.GetPortfolio(ctx)
		ch <- portfolioFetch{portfolio: p, err: err}
	}()

	return ch
}

// indicatorScan is the entry pass for snapshot-predicate policies.
func (e *Engine) indicatorScan(ctx context.Context) error {
	if len(e.openPositions()) >= e.policy.MaxPositions {
		e.log.Debug("at max positions, skipping entry scan")

		return nil
	}

	portfolioCh := e.fetchPortfolioAsync(ctx)

	var (
		portfolio execution.Portfolio
		resolved  bool
	)

	now := time.Now().UTC()

	for _, inst := range e.policy.Instruments {
		if e.store.HasSymbol(inst.Asset.Symbol) {
			continue
		}

		if e.enteredToday(inst.Asset.Symbol, now) {
			e.log.Debug("already entered today", zap.String("symbol", inst.Asset.Symbol))

			continue
		}

		data, err := e.fetchInstrument(ctx, inst)
		if err != nil {
			e.log.Warn("market data fetch failed, skipping instrument",
				zap.String("symbol", inst.Asset.Symbol),
				zap.Error(err))

			continue
		}

		if data.price <= 0 {
			continue
		}

		snapshot := indicator.ComputeSnapshot(e.registry, snapshotIndicators, indicator.Input{
			Prices:  data.prices,
			Candles: data.candles,
		})

		passed, predicateReason := e.policy.Entry(snapshot, data.price)
		if !passed && !e.policy.ConfidenceOverride {
			continue
		}

		if !resolved {
			fetch := <-portfolioCh
			if fetch.err != nil {
				return fetch.err
			}

			portfolio = fetch.portfolio
			resolved = true
		}

		opp := types.Opportunity{
			Time:     now,
			Asset:    inst.Asset,
			Price:    data.price,
			Strategy: e.policy.Name,
			Reason:   predicateReason,
			Snapshot: snapshot,
		}

		verdict := e.scoreOpportunity(ctx, opp)
		if !e.policy.ShouldEnter(passed, verdict.Confidence) {
			e.log.Debug("entry rejected",
				zap.String("symbol", inst.Asset.Symbol),
				zap.Bool("predicate", passed),
				zap.Float64("confidence", verdict.Confidence))

			continue
		}

		reason := fmt.Sprintf("%s; oracle %.2f: %s", predicateReason, verdict.Confidence, verdict.Reason)
		if err := e.openPosition(ctx, opp, reason, portfolio); err != nil {
			e.log.Warn("entry failed",
				zap.String("symbol", inst.Asset.Symbol),
				zap.Error(err))

			continue
		}

		e.markEntered(inst.Asset.Symbol, now)

		if len(e.openPositions()) >= e.policy.MaxPositions {
			return nil
		}
	}

	return nil
}

// scoreOpportunity asks the confidence oracle about a flagged entry.
func (e *Engine) scoreOpportunity(ctx context.Context, opp types.Opportunity) oracle.Verdict {
	e.metrics.OracleCalls.Inc()

	verdict := e.oracle.Score(ctx, oracle.Candidate{
		Symbol:   opp.Asset.Symbol,
		Strategy: opp.Strategy,
		Side:     types.TradeSideBuy,
		Price:    opp.Price,
		Snapshot: opp.Snapshot,
	})
	if verdict.Confidence == 0 {
		e.metrics.OracleParseFailures.Inc()
	}

	return verdict
}

// quoteBalanceUSD sums the portfolio's holdings of the policy's quote asset
// across compatible chains.
func (e *Engine) quoteBalanceUSD(portfolio execution.Portfolio) float64 {
	quote := e.policy.Quote.Asset

	var available float64

	for _, balance := range portfolio.Balances {
		if balance.TokenAddress != quote.Address {
			continue
		}

		if quote.Chain != "" && balance.Chain != "" && balance.Chain != quote.Chain {
			continue
		}

		available += balance.ValueUSD
	}

	return available
}

// openPosition sizes, executes and records a new entry. The quote balance
// must cover the notional or the candidate is skipped.
func (e *Engine) openPosition(ctx context.Context, opp types.Opportunity, reason string, portfolio execution.Portfolio) error {
	notional := e.policy.Sizing.Notional(opp.Asset.Symbol, portfolio.TotalValueUSD)
	if notional <= 0 {
		return nil
	}

	if available := e.quoteBalanceUSD(portfolio); available < notional {
		return errors.Newf(errors.ErrCodeInsufficientFunds,
			"quote balance %.2f USD cannot cover %.2f USD entry for %s",
			available, notional, opp.Asset.Symbol)
	}

	result, err := e.exec.ExecuteTrade(ctx, execution.TradeRequest{
		FromToken:    e.policy.Quote.Asset.Address,
		ToToken:      opp.Asset.Address,
		Amount:       notional,
		Reason:       reason,
		FromChain:    e.policy.Quote.Asset.Chain,
		FromSpecific: e.policy.Quote.Asset.SpecificChain,
		ToChain:      opp.Asset.Chain,
		ToSpecific:   opp.Asset.SpecificChain,
	})
	if err != nil {
		e.metrics.TradeFailures.WithLabelValues(e.policy.Name).Inc()

		return err
	}

	entryPrice := result.Price
	if entryPrice <= 0 {
		entryPrice = opp.Price
	}

	position := types.OpenPosition{
		ID:         uuid.NewString(),
		FromAsset:  e.policy.Quote.Asset,
		FromAmount: notional,
		ToAsset:    opp.Asset,
		ToAmount:   result.ToAmount,
		EntryPrice: entryPrice,
		OpenedAt:   time.Now().UTC(),
		Reason:     reason,
		Strategy:   e.policy.Name,
	}

	if err := e.store.Add(position); err != nil {
		// The trade went through but could not be recorded. Surface
		// loudly; the operator has to reconcile by hand.
		e.log.Error("trade executed but position not recorded",
			zap.String("symbol", opp.Asset.Symbol),
			zap.String("tradeId", result.ID),
			zap.Error(err))

		return err
	}

	e.metrics.TradesTotal.WithLabelValues(e.policy.Name, string(types.TradeSideBuy)).Inc()

	e.journalRecord(journal.Entry{
		PositionID: position.ID,
		Strategy:   e.policy.Name,
		Symbol:     opp.Asset.Symbol,
		Side:       journal.SideOpen,
		AmountUSD:  notional,
		Quantity:   result.ToAmount,
		Price:      entryPrice,
		Reason:     reason,
	})

	e.log.Info("position opened",
		zap.String("id", position.ID),
		zap.String("symbol", opp.Asset.Symbol),
		zap.Float64("notional", notional),
		zap.Float64("entryPrice", entryPrice))

	return nil
}
