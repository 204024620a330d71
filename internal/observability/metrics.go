package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	riskCalculationsTotal  *prometheus.CounterVec
	alertsCreatedTotal     *prometheus.CounterVec
	alertsDedupedTotal     *prometheus.CounterVec
	alertsResolvedTotal    prometheus.Counter
	alertStreamSubscribers prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		riskCalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_risk_calculations_total",
			Help: "Total risk scoring passes, labelled by resulting level.",
		}, []string{"level"})

		alertsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_alerts_created_total",
			Help: "Total alerts inserted, labelled by alert type.",
		}, []string{"type"})

		alertsDedupedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_alerts_deduplicated_total",
			Help: "Total alert creations skipped by the open-alert dedup check.",
		}, []string{"type"})

		alertsResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_alerts_resolved_total",
			Help: "Total alerts marked resolved, singly or in bulk.",
		})

		alertStreamSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_alert_stream_subscribers",
			Help: "Currently connected alert stream (SSE) clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			riskCalculationsTotal,
			alertsCreatedTotal,
			alertsDedupedTotal,
			alertsResolvedTotal,
			alertStreamSubscribers,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// RiskCalculations exposes the counter for scoring passes.
func RiskCalculations() *prometheus.CounterVec {
	RegisterMetrics()
	return riskCalculationsTotal
}

// AlertsCreated exposes the counter for inserted alerts.
func AlertsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsCreatedTotal
}

// AlertsDeduplicated exposes the counter for dedup skips.
func AlertsDeduplicated() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsDedupedTotal
}

// AlertsResolved exposes the counter for resolved alerts.
func AlertsResolved() prometheus.Counter {
	RegisterMetrics()
	return alertsResolvedTotal
}

// AlertStreamSubscribers exposes the gauge of live SSE clients.
func AlertStreamSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return alertStreamSubscribers
}
