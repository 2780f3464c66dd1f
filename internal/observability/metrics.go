// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"x402-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	SimulationRuns        *prometheus.CounterVec
	SimulationRunDuration *prometheus.HistogramVec
	Requests              *prometheus.CounterVec
	Payments              *prometheus.CounterVec
	RevenueUSD            *prometheus.CounterVec
	ChurnedUsers          *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Server metrics
	ReportsGenerated prometheus.Counter
	StreamClients    prometheus.Gauge
	UptimeSeconds    prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "x402_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		SimulationRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of scheme runs by status",
		}, []string{"scheme", "status"}),
		SimulationRunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of one scheme run in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"scheme"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "requests_total",
			Help:      "Simulated requests by outcome",
		}, []string{"scheme", "outcome"}),
		Payments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "payments_total",
			Help:      "Simulated micropayments",
		}, []string{"scheme"}),
		RevenueUSD: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "revenue_usd_total",
			Help:      "Simulated payment revenue in USD",
		}, []string{"scheme"}),
		ChurnedUsers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "churned_users_total",
			Help:      "Simulated users who abandoned the service",
		}, []string{"scheme"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by result (hit, miss, error)",
		}, []string{"result"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		ReportsGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
		StreamClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "stream_clients",
			Help:      "Connected websocket stream clients",
		}),
		UptimeSeconds: f.NewCounter(prometheus.CounterOpts{
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
var DefaultMetrics = NewMetrics("", nil)

// RecordRun records a finished scheme run and its counters.
func (m *Metrics) RecordRun(r *domain.SimulationResult, seconds float64) {
	s := string(r.Scheme)
	m.SimulationRuns.WithLabelValues(s, "ok").Inc()
	m.SimulationRunDuration.WithLabelValues(s).Observe(seconds)
	m.Requests.WithLabelValues(s, "success").Add(float64(r.SuccessfulRequests))
	m.Requests.WithLabelValues(s, "failed").Add(float64(r.FailedRequests))
	m.Requests.WithLabelValues(s, "rate_limited").Add(float64(r.RateLimitedRequests))
	m.Payments.WithLabelValues(s).Add(float64(r.TotalPayments))
	m.RevenueUSD.WithLabelValues(s).Add(r.TotalRevenueUSD)
	m.ChurnedUsers.WithLabelValues(s).Add(float64(r.ChurnedUsers))
}

// RecordRunError records a scheme run that did not complete.
func (m *Metrics) RecordRunError(scheme domain.Scheme) {
	m.SimulationRuns.WithLabelValues(string(scheme), "error").Inc()
}

// RecordCacheLookup records a cache hit, miss or error.
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordRun records a run on DefaultMetrics.
func RecordRun(r *domain.SimulationResult, seconds float64) {
	DefaultMetrics.RecordRun(r, seconds)
}

// RecordDBQuery records database query metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
