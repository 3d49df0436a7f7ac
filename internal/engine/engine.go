// Package engine runs strategy policies: ticker-driven scan and monitor
// cycles that pull market data, evaluate entries and exits, consult the
// confidence oracle and execute trades on the Recall venue.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/astra-quant/recallbot/internal/execution"
	"github.com/astra-quant/recallbot/internal/indicator"
	"github.com/astra-quant/recallbot/internal/journal"
	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/market"
	"github.com/astra-quant/recallbot/internal/metrics"
	"github.com/astra-quant/recallbot/internal/oracle"
	"github.com/astra-quant/recallbot/internal/store"
	"github.com/astra-quant/recallbot/internal/strategy"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/astra-quant/recallbot/pkg/errors"
	"go.uber.org/zap"
)

// historyDays is how much chart/OHLC history is pulled per instrument per
// scan. 30 daily points comfortably covers the longest indicator period (26).
const historyDays = 30

const (
	cycleKindScan    = "scan"
	cycleKindMonitor = "monitor"
)

// Deps are the collaborators an engine needs. Discovery is only required by
// meme policies and Journal may be nil to disable journaling.
type Deps struct {
	Market    market.Gateway
	Discovery market.Discovery
	Execution execution.Gateway
	Oracle    oracle.Oracle
	Store     *store.Store
	Journal   *journal.Journal
	Registry  indicator.Registry
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Engine runs one policy. Each engine owns its cycle goroutine; the store
// may be shared between engines.
type Engine struct {
	policy    *strategy.Policy
	market    market.Gateway
	discovery market.Discovery
	exec      execution.Gateway
	oracle    oracle.Oracle
	store     *store.Store
	journal   *journal.Journal
	registry  indicator.Registry
	metrics   *metrics.Metrics
	log       *logger.Logger

	// cycleMu guards cycle execution: a tick that arrives while the
	// previous cycle is still running is skipped, not queued.
	cycleMu sync.Mutex

	// entryDays tracks the last day an entry was opened per symbol so a
	// symbol is entered at most once per UTC day.
	entryMu   sync.Mutex
	entryDays map[string]string
}

// New assembles an engine for the policy.
func New(policy *strategy.Policy, deps Deps) (*Engine, error) {
	if policy == nil {
		return nil, errors.New(errors.ErrCodeEngineNotInitialized, "policy is required")
	}

	if deps.Market == nil || deps.Execution == nil || deps.Oracle == nil || deps.Store == nil {
		return nil, errors.New(errors.ErrCodeEngineNotInitialized, "market, execution, oracle and store are required")
	}

	if policy.Kind == strategy.KindMeme && deps.Discovery == nil {
		return nil, errors.New(errors.ErrCodeEngineNotInitialized, "meme policies require a discovery client")
	}

	if deps.Registry == nil {
		deps.Registry = indicator.NewDefaultRegistry()
	}

	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}

	return &Engine{
		policy:    policy,
		market:    deps.Market,
		discovery: deps.Discovery,
		exec:      deps.Execution,
		oracle:    deps.Oracle,
		store:     deps.Store,
		journal:   deps.Journal,
		registry:  deps.Registry,
		metrics:   deps.Metrics,
		log:       deps.Logger.Named("engine").With(zap.String("strategy", policy.Name)),
		entryDays: make(map[string]string),
	}, nil
}

// Run executes cycles until the context is cancelled. The first scan fires
// immediately, then on the policy's intervals.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine starting",
		zap.String("kind", e.policy.Kind),
		zap.Duration("scanInterval", e.policy.ScanInterval),
		zap.Duration("monitorInterval", e.policy.MonitorInterval))

	scanTicker := time.NewTicker(e.policy.ScanInterval)
	defer scanTicker.Stop()

	monitorTicker := time.NewTicker(e.policy.MonitorInterval)
	defer monitorTicker.Stop()

	e.tick(ctx, cycleKindScan, e.scanCycle)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopping")

			return nil
		case <-scanTicker.C:
			e.tick(ctx, cycleKindScan, e.scanCycle)
		case <-monitorTicker.C:
			e.tick(ctx, cycleKindMonitor, e.monitorCycle)
		}
	}
}

// tick runs one cycle under the overlap guard. Errors and panics end the
// tick, never the engine.
func (e *Engine) tick(ctx context.Context, kind string, cycle func(context.Context) error) {
	if !e.cycleMu.TryLock() {
		e.metrics.CyclesSkipped.WithLabelValues(e.policy.Name, kind).Inc()
		e.log.Debug("previous cycle still running, skipping tick", zap.String("kind", kind))

		return
	}
	defer e.cycleMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.metrics.CycleErrors.WithLabelValues(e.policy.Name, kind).Inc()
			e.log.Error("cycle panicked", zap.String("kind", kind), zap.Any("panic", r))
		}
	}()

	if err := cycle(ctx); err != nil {
		e.metrics.CycleErrors.WithLabelValues(e.policy.Name, kind).Inc()
		e.log.Error("cycle failed", zap.String("kind", kind), zap.Error(err))

		return
	}

	e.metrics.CyclesTotal.WithLabelValues(e.policy.Name, kind).Inc()
	e.metrics.OpenPositions.Set(float64(e.store.Count()))
}

// scanCycle evaluates exits first, then looks for new entries.
func (e *Engine) scanCycle(ctx context.Context) error {
	e.runExits(ctx)

	switch e.policy.Kind {
	case strategy.KindMeme:
		return e.memeScan(ctx)
	case strategy.KindRebalance:
		return e.rebalance(ctx)
	default:
		return e.indicatorScan(ctx)
	}
}

// monitorCycle runs the exit pass alone, on the faster interval.
func (e *Engine) monitorCycle(ctx context.Context) error {
	e.runExits(ctx)

	return nil
}

func (e *Engine) journalRecord(entry journal.Entry) {
	if e.journal == nil {
		return
	}

	if err := e.journal.Record(entry); err != nil {
		e.log.Warn("journal write failed", zap.Error(err))
	}
}

// enteredToday reports whether the symbol already got an entry this UTC day.
func (e *Engine) enteredToday(symbol string, now time.Time) bool {
	e.entryMu.Lock()
	defer e.entryMu.Unlock()

	return e.entryDays[symbol] == now.UTC().Format("2006-01-02")
}

func (e *Engine) markEntered(symbol string, now time.Time) {
	e.entryMu.Lock()
	defer e.entryMu.Unlock()

	e.entryDays[symbol] = now.UTC().Format("2006-01-02")
}

// openPositions returns this policy's open positions.
func (e *Engine) openPositions() []types.OpenPosition {
	var out []types.OpenPosition

	for _, p := range e.store.List() {
		if p.Strategy == e.policy.Name {
			out = append(out, p)
		}
	}

	return out
}
