// Package metrics exposes Prometheus instrumentation and a small ops HTTP
// server with health and open-position endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal         *prometheus.CounterVec
	CyclesSkipped       *prometheus.CounterVec
	CycleErrors         *prometheus.CounterVec
	TradesTotal         *prometheus.CounterVec
	TradeFailures       *prometheus.CounterVec
	OracleCalls         prometheus.Counter
	OracleParseFailures prometheus.Counter
	OpenPositions       prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recallbot",
			Name:      "cycles_total",
			Help:      "Completed strategy cycles.",
		}, []string{"strategy", "kind"}),
		CyclesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recallbot",
			Name:      "cycles_skipped_total",
			Help:      "Ticks skipped because the previous cycle was still running.",
		}, []string{"strategy", "kind"}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recallbot",
			Name:      "cycle_errors_total",
			Help:      "Cycles that ended with an error or recovered panic.",
		}, []string{"strategy", "kind"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recallbot",
			Name:      "trades_total",
			Help:      "Executed trades.",
		}, []string{"strategy", "side"}),
		TradeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recallbot",
			Name:      "trade_failures_total",
			Help:      "Trades rejected by the venue or failed in transit.",
		}, []string{"strategy"}),
		OracleCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recallbot",
			Name:      "oracle_calls_total",
			Help:      "Confidence oracle invocations.",
		}),
		OracleParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recallbot",
			Name:      "oracle_parse_failures_total",
			Help:      "Oracle answers without a parseable confidence score.",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "recallbot",
			Name:      "open_positions",
			Help:      "Currently open positions across all strategies.",
		}),
	}

	registry.MustRegister(
		m.CyclesTotal,
		m.CyclesSkipped,
		m.CycleErrors,
		m.TradesTotal,
		m.TradeFailures,
		m.OracleCalls,
		m.OracleParseFailures,
		m.OpenPositions,
	)

	return m
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
