package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/astra-quant/recallbot/internal/execution"
	"github.com/astra-quant/recallbot/internal/journal"
	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/oracle"
	"github.com/astra-quant/recallbot/internal/store"
	"github.com/astra-quant/recallbot/internal/strategy"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

// fakeMarket serves a fixed chart and candle history for every instrument.
type fakeMarket struct {
	prices  []float64
	candles []types.Candle
}

func (f *fakeMarket) GetCurrentPrice(ctx context.Context, tokenID string) (float64, error) {
	return f.prices[len(f.prices)-1], nil
}

func (f *fakeMarket) GetMarketListing(ctx context.Context, vsCurrency string, ids []string) ([]types.MarketTicker, error) {
	return nil, nil
}

func (f *fakeMarket) GetHistoricalChart(ctx context.Context, id, vsCurrency string, days int, interval string) ([]types.PricePoint, error) {
	series := make([]types.PricePoint, len(f.prices))
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	for i, price := range f.prices {
		series[i] = types.PricePoint{Time: base.Add(time.Duration(i) * 24 * time.Hour), Price: price}
	}

	return series, nil
}

func (f *fakeMarket) GetOHLC(ctx context.Context, id, vsCurrency string, days int) ([]types.Candle, error) {
	return f.candles, nil
}

func (f *fakeMarket) GetTrendingTokens(ctx context.Context) ([]types.TrendingToken, error) {
	return nil, nil
}

func (f *fakeMarket) GetTopMovers(ctx context.Context, vsCurrency, duration string) ([]types.MarketTicker, error) {
	return nil, nil
}

func (f *fakeMarket) GetGlobalMetrics(ctx context.Context) (types.GlobalMetrics, error) {
	return types.GlobalMetrics{}, nil
}

// fakeExec records executed trades and serves fixed prices per address.
type fakeExec struct {
	mu           sync.Mutex
	prices       map[string]float64
	trades       []execution.TradeRequest
	portfolio    execution.Portfolio
	failNext     bool
	priceErr     error
	portfolioErr error
}

func (f *fakeExec) GetPortfolio(ctx context.Context) (execution.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.portfolioErr != nil {
		return execution.Portfolio{}, f.portfolioErr
	}

	return f.portfolio, nil
}

func (f *fakeExec) GetBalances(ctx context.Context) ([]execution.Balance, error) {
	return f.portfolio.Balances, nil
}

func (f *fakeExec) GetPrice(ctx context.Context, asset types.Asset) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.priceErr != nil {
		return 0, f.priceErr
	}

	return f.prices[asset.Address], nil
}

func (f *fakeExec) GetTradeQuote(ctx context.Context, fromToken, toToken string, amount float64) (execution.Quote, error) {
	return execution.Quote{}, nil
}

func (f *fakeExec) ExecuteTrade(ctx context.Context, req execution.TradeRequest) (execution.TradeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		f.failNext = false

		return execution.TradeResult{}, context.DeadlineExceeded
	}

	f.trades = append(f.trades, req)

	price := f.prices[req.ToToken]
	if price == 0 {
		price = f.prices[req.FromToken]
	}

	return execution.TradeResult{
		ID:       "tx-fake",
		ToAmount: req.Amount / max(price, 1),
		Price:    price,
		Success:  true,
	}, nil
}

func (f *fakeExec) GetTradeHistory(ctx context.Context) ([]execution.TradeRecord, error) {
	return nil, nil
}

func (f *fakeExec) tradeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.trades)
}

// fakeOracle answers every candidate with a fixed confidence.
type fakeOracle struct {
	confidence float64
	calls      int
}

func (f *fakeOracle) Score(ctx context.Context, candidate oracle.Candidate) oracle.Verdict {
	f.calls++

	return oracle.Verdict{Confidence: f.confidence, Reason: "fixed verdict"}
}

// fakeDiscovery serves fixed pair lists.
type fakeDiscovery struct {
	trending []types.Pair
	fresh    []types.Pair
}

func (f *fakeDiscovery) GetNewPairs(ctx context.Context, chain string) ([]types.Pair, error) {
	return f.fresh, nil
}

func (f *fakeDiscovery) GetTopTrendingPairs(ctx context.Context, minLiquidity float64) ([]types.Pair, error) {
	return f.trending, nil
}

func (f *fakeDiscovery) GetPairPrice(ctx context.Context, tokenAddress string) (float64, error) {
	return 0, nil
}

type EngineTestSuite struct {
	suite.Suite
	store     *store.Store
	marketGw  *fakeMarket
	execGw    *fakeExec
	oracleGw  *fakeOracle
	discovery *fakeDiscovery
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.store = store.New(filepath.Join(suite.T().TempDir(), "positions.json"), logger.NewNopLogger())
	suite.Require().NoError(suite.store.Load())

	prices := make([]float64, 30)
	candles := make([]types.Candle, 30)
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	for i := range prices {
		p := 2000 + float64(i)*20
		prices[i] = p
		candles[i] = types.Candle{
			Time: base.Add(time.Duration(i) * 24 * time.Hour),
			Open: p - 10, High: p + 30, Low: p - 30, Close: p,
		}
	}

	suite.marketGw = &fakeMarket{prices: prices, candles: candles}
	suite.execGw = &fakeExec{
		prices: map[string]float64{"0xweth": 2580, "0xusdc": 1},
		portfolio: execution.Portfolio{
			TotalValueUSD: 10000,
			Balances: []execution.Balance{
				{TokenAddress: "0xusdc", Symbol: "USDC", Chain: "evm", Amount: 10000, ValueUSD: 10000},
			},
		},
	}
	suite.oracleGw = &fakeOracle{confidence: 0.9}
	suite.discovery = &fakeDiscovery{}
}

func (suite *EngineTestSuite) policy() *strategy.Policy {
	return &strategy.Policy{
		Name: "test-momentum",
		Kind: strategy.KindMomentum,
		Instruments: []strategy.Instrument{
			{Asset: types.Asset{Address: "0xweth", Symbol: "WETH", Chain: "evm"}, CoinGeckoID: "ethereum"},
		},
		Quote:               strategy.Instrument{Asset: types.Asset{Address: "0xusdc", Symbol: "USDC", Chain: "evm"}},
		ScanInterval:        time.Hour,
		MonitorInterval:     time.Hour,
		MaxPositions:        2,
		ConfidenceThreshold: 0.7,
		Sizing:              strategy.Sizing{AmountUSD: 250},
		Exit: strategy.ExitRules{
			StopLoss:   optional.Some(0.05),
			TakeProfit: optional.Some(0.15),
		},
		Entry: func(snapshot types.IndicatorSnapshot, price float64) (bool, string) {
			return true, "always enter"
		},
	}
}

func (suite *EngineTestSuite) newEngine(policy *strategy.Policy) *Engine {
	eng, err := New(policy, Deps{
		Market:    suite.marketGw,
		Discovery: suite.discovery,
		Execution: suite.execGw,
		Oracle:    suite.oracleGw,
		Store:     suite.store,
	})
	suite.Require().NoError(err)

	return eng
}

func (suite *EngineTestSuite) TestScanOpensPosition() {
	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))

	positions := suite.store.List()
	suite.Require().Len(positions, 1)
	suite.Equal("WETH", positions[0].ToAsset.Symbol)
	suite.Equal("test-momentum", positions[0].Strategy)
	suite.InDelta(250, positions[0].FromAmount, 1e-9)
	suite.Equal(1, suite.oracleGw.calls)
	suite.Contains(positions[0].Reason, "always enter")
}

func (suite *EngineTestSuite) TestScanRespectsOracleThreshold() {
	suite.oracleGw.confidence = 0.5

	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Empty(suite.store.List())
}

func (suite *EngineTestSuite) TestConfidenceOverrideIgnoresPredicate() {
	policy := suite.policy()
	policy.ConfidenceOverride = true
	policy.Entry = func(snapshot types.IndicatorSnapshot, price float64) (bool, string) {
		return false, "predicate says no"
	}

	eng := suite.newEngine(policy)

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Len(suite.store.List(), 1)
}

func (suite *EngineTestSuite) TestOneEntryPerSymbolPerDay() {
	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Require().Len(suite.store.List(), 1)

	// Position closed, but the same day: no re-entry.
	suite.NoError(suite.store.Remove(suite.store.List()[0].ID))

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Empty(suite.store.List())
}

func (suite *EngineTestSuite) TestScanSkipsHeldSymbols() {
	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.NoError(eng.scanCycle(context.Background()))

	suite.Len(suite.store.List(), 1)
	suite.Equal(1, suite.execGw.tradeCount())
}

func (suite *EngineTestSuite) TestScanSkipsEntryOnInsufficientBalance() {
	suite.execGw.portfolio = execution.Portfolio{
		TotalValueUSD: 10000,
		Balances: []execution.Balance{
			{TokenAddress: "0xusdc", Symbol: "USDC", Chain: "evm", Amount: 5, ValueUSD: 5},
		},
	}

	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Empty(suite.store.List())
	suite.Zero(suite.execGw.tradeCount())

	// Once the quote balance covers the notional the same day can enter:
	// a skipped candidate is not counted as an entry.
	suite.execGw.mu.Lock()
	suite.execGw.portfolio.Balances[0].ValueUSD = 10000
	suite.execGw.mu.Unlock()

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Len(suite.store.List(), 1)
}

func (suite *EngineTestSuite) TestScanSurfacesPortfolioError() {
	suite.execGw.portfolioErr = context.DeadlineExceeded

	eng := suite.newEngine(suite.policy())

	suite.Error(eng.scanCycle(context.Background()))
	suite.Empty(suite.store.List())
	suite.Zero(suite.execGw.tradeCount())
}

func (suite *EngineTestSuite) TestScanStopsAtMaxPositions() {
	policy := suite.policy()
	policy.MaxPositions = 0

	eng := suite.newEngine(policy)

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Empty(suite.store.List())
	suite.Zero(suite.execGw.tradeCount())
}

func (suite *EngineTestSuite) TestMonitorClosesOnTakeProfit() {
	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Require().Len(suite.store.List(), 1)

	// Entry filled at 2580; +16% clears the 15% take-profit.
	suite.execGw.mu.Lock()
	suite.execGw.prices["0xweth"] = 3000
	suite.execGw.mu.Unlock()

	suite.NoError(eng.monitorCycle(context.Background()))
	suite.Empty(suite.store.List())
	suite.Equal(2, suite.execGw.tradeCount())

	closing := suite.execGw.trades[1]
	suite.Equal("0xweth", closing.FromToken)
	suite.Equal("0xusdc", closing.ToToken)
}

func (suite *EngineTestSuite) TestMonitorUpdatesHighWaterMark() {
	policy := suite.policy()
	policy.Exit = strategy.ExitRules{TrailingStop: optional.Some(0.10)}

	eng := suite.newEngine(policy)

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Require().Len(suite.store.List(), 1)

	suite.execGw.mu.Lock()
	suite.execGw.prices["0xweth"] = 2900
	suite.execGw.mu.Unlock()

	suite.NoError(eng.monitorCycle(context.Background()))

	positions := suite.store.List()
	suite.Require().Len(positions, 1)
	suite.InDelta(2900, positions[0].HighWaterMark, 1e-9)

	// 2600 is -10.3% from the 2900 high: trailing stop fires.
	suite.execGw.mu.Lock()
	suite.execGw.prices["0xweth"] = 2600
	suite.execGw.mu.Unlock()

	suite.NoError(eng.monitorCycle(context.Background()))
	suite.Empty(suite.store.List())
}

func (suite *EngineTestSuite) TestTradeFailureKeepsPositionOpen() {
	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Require().Len(suite.store.List(), 1)

	suite.execGw.mu.Lock()
	suite.execGw.prices["0xweth"] = 3000
	suite.execGw.failNext = true
	suite.execGw.mu.Unlock()

	suite.NoError(eng.monitorCycle(context.Background()))
	suite.Len(suite.store.List(), 1)
}

func (suite *EngineTestSuite) TestTickSkipsWhileCycleRunning() {
	eng := suite.newEngine(suite.policy())

	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		eng.tick(context.Background(), cycleKindScan, func(ctx context.Context) error {
			close(started)
			<-release

			return nil
		})
	}()

	<-started

	ran := false

	eng.tick(context.Background(), cycleKindScan, func(ctx context.Context) error {
		ran = true

		return nil
	})

	suite.False(ran)

	close(release)
	wg.Wait()
}

func (suite *EngineTestSuite) TestRunStopsOnContextCancel() {
	eng := suite.newEngine(suite.policy())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- eng.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(2 * time.Second):
		suite.Fail("engine did not stop on cancel")
	}
}

func (suite *EngineTestSuite) TestMemeScanEntersTrendingPair() {
	policy := suite.policy()
	policy.Name = "test-meme"
	policy.Kind = strategy.KindMeme
	policy.Chain = "solana"
	policy.MinLiquidityUSD = 50000
	policy.Entry = nil

	suite.discovery.trending = []types.Pair{
		{
			ChainID:       "solana",
			PairAddress:   "pair-1",
			BaseToken:     types.Asset{Address: "0xmeme", Symbol: "MEME", Chain: "solana"},
			PriceUSD:      0.02,
			LiquidityUSD:  120000,
			PriceChangeH1: 12.5,
			Buys24h:       900,
			Sells24h:      400,
		},
		{
			ChainID:       "solana",
			PairAddress:   "pair-2",
			BaseToken:     types.Asset{Address: "0xflat", Symbol: "FLAT", Chain: "solana"},
			PriceUSD:      0.5,
			LiquidityUSD:  90000,
			PriceChangeH1: 0.4,
			Buys24h:       100,
			Sells24h:      300,
		},
	}

	suite.execGw.prices["0xmeme"] = 0.02

	eng := suite.newEngine(policy)

	suite.NoError(eng.scanCycle(context.Background()))

	positions := suite.store.List()
	suite.Require().Len(positions, 1)
	suite.Equal("MEME", positions[0].ToAsset.Symbol)
}

func (suite *EngineTestSuite) TestRebalanceTradesDrift() {
	policy := suite.policy()
	policy.Name = "test-rebalance"
	policy.Kind = strategy.KindRebalance
	policy.Entry = nil
	policy.TargetWeights = map[string]float64{"WETH": 0.5}
	policy.DriftTolerance = 0.05

	// WETH is 70% of a 10k portfolio against a 50% target.
	suite.execGw.portfolio = execution.Portfolio{
		TotalValueUSD: 10000,
		Balances: []execution.Balance{
			{TokenAddress: "0xweth", Symbol: "WETH", ValueUSD: 7000},
			{TokenAddress: "0xusdc", Symbol: "USDC", ValueUSD: 3000},
		},
	}

	eng := suite.newEngine(policy)

	suite.NoError(eng.scanCycle(context.Background()))

	suite.Require().Equal(1, suite.execGw.tradeCount())

	trade := suite.execGw.trades[0]
	suite.Equal("0xweth", trade.FromToken)
	suite.Equal("0xusdc", trade.ToToken)
	// 2000 USD of drift at 2580 per WETH.
	suite.InDelta(2000.0/2580.0, trade.Amount, 1e-9)
}

func (suite *EngineTestSuite) TestCloseAll() {
	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Require().Len(suite.store.List(), 1)

	closed, err := CloseAll(context.Background(), suite.store, suite.execGw, nil, logger.NewNopLogger())
	suite.NoError(err)
	suite.Equal(1, closed)
	suite.Empty(suite.store.List())
}

func (suite *EngineTestSuite) TestCloseAllOmitsReturnWhenPriceUnavailable() {
	eng := suite.newEngine(suite.policy())

	suite.NoError(eng.scanCycle(context.Background()))
	suite.Require().Len(suite.store.List(), 1)

	trades, err := journal.Open(filepath.Join(suite.T().TempDir(), "trades.db"), logger.NewNopLogger())
	suite.Require().NoError(err)

	defer func() { _ = trades.Close() }()

	suite.execGw.mu.Lock()
	suite.execGw.priceErr = context.DeadlineExceeded
	suite.execGw.mu.Unlock()

	closed, err := CloseAll(context.Background(), suite.store, suite.execGw, trades, logger.NewNopLogger())
	suite.NoError(err)
	suite.Equal(1, closed)
	suite.Empty(suite.store.List())

	entries, err := trades.History(journal.Filter{})
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Zero(entries[0].Price)
	suite.Zero(entries[0].PnL)
}
