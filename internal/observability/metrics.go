// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Trading metrics
	TradesExecuted *prometheus.CounterVec
	TradesRejected *prometheus.CounterVec
	SellIntents    *prometheus.CounterVec

	// Signal metrics
	SignalsScored       prometheus.Counter
	SignalsQualified    prometheus.Counter
	BuySignalsPublished prometheus.Counter

	// Bus metrics
	BusDropped *prometheus.CounterVec

	// Scheduler metrics
	TaskRuns     *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec

	// Position metrics
	OpenPositions       prometheus.Gauge
	PendingSellLamports prometheus.Gauge

	// Wallet metrics
	WalletBalanceLamports prometheus.Gauge

	// Execution metrics
	ConfirmationPolls prometheus.Histogram
	QuoteRetries      prometheus.Counter

	// Market data metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_engine"
	}

	return &Metrics{
		// Trading metrics
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_executed_total",
			Help:      "Total number of trades submitted by side and outcome",
		}, []string{"side", "status"}),
		TradesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_rejected_total",
			Help:      "Total number of trade intents rejected before execution",
		}, []string{"side"}),
		SellIntents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "sell_intents_total",
			Help:      "Total number of sell intents emitted by exit reason",
		}, []string{"reason"}),

		// Signal metrics
		SignalsScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "scored_total",
			Help:      "Total number of token signals scored",
		}),
		SignalsQualified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "qualified_total",
			Help:      "Total number of token signals passing the score filter",
		}),
		BuySignalsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "buy_published_total",
			Help:      "Total number of buy signals published to the bus",
		}),

		// Bus metrics
		BusDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "dropped_total",
			Help:      "Total number of signals dropped on a full bus channel",
		}, []string{"kind"}),

		// Scheduler metrics
		TaskRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Total number of scheduled task runs by status",
		}, []string{"task", "status"}),
		TaskDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Scheduled task execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"task"}),

		// Position metrics
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "open",
			Help:      "Current number of open positions",
		}),
		PendingSellLamports: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "pending_sell_lamports",
			Help:      "Base units currently reserved by in-flight sells",
		}),

		// Wallet metrics
		WalletBalanceLamports: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "balance_lamports",
			Help:      "Last synced SOL balance in lamports",
		}),

		// Execution metrics
		ConfirmationPolls: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "confirmation_polls",
			Help:      "Number of status polls needed to confirm a transaction",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		QuoteRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "quote_retries_total",
			Help:      "Total number of retried swap aggregator calls",
		}),

		// Market data metrics
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "cache_hits_total",
			Help:      "Total number of snapshot reads served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "cache_misses_total",
			Help:      "Total number of snapshot reads requiring a provider fetch",
		}),

		// Health metrics
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTrade increments the executed-trade counter.
func RecordTrade(side, status string) {
	DefaultMetrics.TradesExecuted.WithLabelValues(side, status).Inc()
}

// RecordTradeRejected increments the rejected-trade counter.
func RecordTradeRejected(side string) {
	DefaultMetrics.TradesRejected.WithLabelValues(side).Inc()
}

// RecordSellIntent increments the sell-intent counter for an exit reason.
func RecordSellIntent(reason string) {
	DefaultMetrics.SellIntents.WithLabelValues(reason).Inc()
}

// RecordSignalScored counts one scored signal, and its qualification.
func RecordSignalScored(qualified bool) {
	DefaultMetrics.SignalsScored.Inc()
	if qualified {
		DefaultMetrics.SignalsQualified.Inc()
	}
}

// RecordBuyPublished increments the published buy-signal counter.
func RecordBuyPublished() {
	DefaultMetrics.BuySignalsPublished.Inc()
}

// RecordBusDrop increments the dropped-signal counter for a channel kind.
func RecordBusDrop(kind string) {
	DefaultMetrics.BusDropped.WithLabelValues(kind).Inc()
}

// RecordTaskRun records one scheduled task run.
func RecordTaskRun(task, status string, seconds float64) {
	DefaultMetrics.TaskRuns.WithLabelValues(task, status).Inc()
	DefaultMetrics.TaskDuration.WithLabelValues(task).Observe(seconds)
}

// SetOpenPositions updates the open-position gauge.
func SetOpenPositions(n int) {
	DefaultMetrics.OpenPositions.Set(float64(n))
}

// SetPendingSellLamports updates the in-flight sell reservation gauge.
func SetPendingSellLamports(total uint64) {
	DefaultMetrics.PendingSellLamports.Set(float64(total))
}

// SetWalletBalance updates the wallet balance gauge.
func SetWalletBalance(lamports uint64) {
	DefaultMetrics.WalletBalanceLamports.Set(float64(lamports))
}

// RecordConfirmationPolls records how many polls a confirmation took.
func RecordConfirmationPolls(n int) {
	DefaultMetrics.ConfirmationPolls.Observe(float64(n))
}

// RecordQuoteRetry counts one retried aggregator call.
func RecordQuoteRetry() {
	DefaultMetrics.QuoteRetries.Inc()
}

// RecordCacheAccess counts snapshot reads by cache outcome.
func RecordCacheAccess(hits, misses int) {
	if hits > 0 {
		DefaultMetrics.CacheHits.Add(float64(hits))
	}
	if misses > 0 {
		DefaultMetrics.CacheMisses.Add(float64(misses))
	}
}
