// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bilancio",
	Name:      "http_requests_total",
	Help:      "HTTP requests by route pattern, method and status code.",
}, []string{"route", "method", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "bilancio",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency by route pattern.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

var LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bilancio",
	Name:      "ledger_mutations_total",
	Help:      "Ledger changes by entity and operation.",
}, []string{"entity", "operation"})

var ReportCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bilancio",
	Name:      "report_cache_total",
	Help:      "Report cache lookups by result (hit or miss).",
}, []string{"result"})

var ReportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "bilancio",
	Name:      "report_build_duration_seconds",
	Help:      "Time spent building a report from a snapshot.",
	Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
})

var BudgetAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bilancio",
	Name:      "budget_alerts_total",
	Help:      "Budget alerts by publish result.",
}, []string{"result"})

var WorkerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bilancio",
	Name:      "worker_runs_total",
	Help:      "Alert worker evaluations by trigger and result.",
}, []string{"trigger", "result"})

var ProjectedBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bilancio",
	Name:      "forecast_final_balance",
	Help:      "Balance at the end of the most recent forecast, in currency units.",
})

var HTTPRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bilancio",
	Name:      "http_rejected_total",
	Help:      "Requests refused or flagged before reaching a handler, by reason.",
}, []string{"reason"})
