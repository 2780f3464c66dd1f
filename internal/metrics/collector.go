// Package metrics aggregates per-request outcomes into a SimulationResult.
package metrics

import (
	"x402-lab/internal/domain"
)

// Collector accumulates counters and latencies for one run.
// Owned by a single driver; not safe for concurrent use.
type Collector struct {
	scheme    domain.Scheme
	users     int
	price     float64
	latencies []float64

	total, successful, failed int
	rateLimited               int
	payments                  int
	settlementFailures        int
	churned                   int
}

// NewCollector creates a Collector for one (config, scheme) run.
func NewCollector(cfg domain.SimulationConfig, scheme domain.Scheme) *Collector {
	return &Collector{
		scheme:    scheme,
		users:     cfg.NumUsers,
		price:     cfg.PricePerPaymentUSD,
		latencies: make([]float64, 0, initialLatencyCap(cfg)),
	}
}

// maxLatencyPrealloc caps the up-front latency buffer; larger runs grow it.
const maxLatencyPrealloc = 1 << 16

func initialLatencyCap(cfg domain.SimulationConfig) int {
	if cfg.NumUsers <= 0 || cfg.RequestsPerUser <= 0 {
		return 0
	}
	if cfg.RequestsPerUser > maxLatencyPrealloc/cfg.NumUsers {
		return maxLatencyPrealloc
	}
	return cfg.NumUsers * cfg.RequestsPerUser
}

// RecordSuccess counts a served request and its latency.
func (c *Collector) RecordSuccess(latencyMs float64) {
	c.total++
	c.successful++
	c.latencies = append(c.latencies, latencyMs)
}

// RecordFailure counts a request that was not served.
func (c *Collector) RecordFailure() {
	c.total++
	c.failed++
}

// RecordRateLimited counts a request that found insufficient tokens.
func (c *Collector) RecordRateLimited() {
	c.rateLimited++
}

// RecordPayment counts a settled payment.
func (c *Collector) RecordPayment() {
	c.payments++
}

// RecordSettlementFailure counts an optimistic settlement that failed.
func (c *Collector) RecordSettlementFailure() {
	c.settlementFailures++
}

// RecordChurn counts a user leaving.
func (c *Collector) RecordChurn() {
	c.churned++
}

// Finalize computes latency statistics and derived totals.
// clockMs is the driver's final simulated clock.
func (c *Collector) Finalize(clockMs float64, trustedUsers int) *domain.SimulationResult {
	stats := ComputeLatencyStats(c.latencies)

	var totalTime float64
	if c.users > 0 {
		totalTime = clockMs / float64(c.users)
	}

	return &domain.SimulationResult{
		Scheme:              c.scheme,
		Users:               c.users,
		TotalRequests:       c.total,
		SuccessfulRequests:  c.successful,
		FailedRequests:      c.failed,
		RateLimitedRequests: c.rateLimited,
		TotalPayments:       c.payments,
		SettlementFailures:  c.settlementFailures,
		ChurnedUsers:        c.churned,
		TrustedUsers:        trustedUsers,
		TotalRevenueUSD:     float64(c.payments) * c.price,
		AvgLatencyMs:        stats.Mean,
		P50LatencyMs:        stats.P50,
		P95LatencyMs:        stats.P95,
		P99LatencyMs:        stats.P99,
		TotalTimeMs:         totalTime,
		Latencies:           c.latencies,
	}
}
