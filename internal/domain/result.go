package domain

import "fmt"

// SimulationResult summarizes one (configuration, scheme) run.
// Built by the metrics collector; read-only once returned.
type SimulationResult struct {
	Scheme Scheme `json:"scheme"`
	Users  int    `json:"users"`

	TotalRequests       int `json:"total_requests"`
	SuccessfulRequests  int `json:"successful_requests"`
	FailedRequests      int `json:"failed_requests"`
	RateLimitedRequests int `json:"rate_limited_requests"`
	TotalPayments       int `json:"total_payments"`
	SettlementFailures  int `json:"settlement_failures"`
	ChurnedUsers        int `json:"churned_users"`
	TrustedUsers        int `json:"trusted_users"`

	TotalRevenueUSD float64 `json:"total_revenue_usd"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`

	// TotalTimeMs is the simulated clock divided by the user population.
	TotalTimeMs float64 `json:"total_time_ms"`

	// Latencies holds every recorded request latency in order.
	// Not serialized; persisted separately as latency samples.
	Latencies []float64 `json:"-"`
}

// ThroughputRPS is successful requests per simulated second.
func (r *SimulationResult) ThroughputRPS() float64 {
	if r.TotalTimeMs <= 0 {
		return 0
	}
	return float64(r.SuccessfulRequests) / (r.TotalTimeMs / 1000)
}

// SuccessRate is the fraction of attempted requests that succeeded.
func (r *SimulationResult) SuccessRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.SuccessfulRequests) / float64(r.TotalRequests)
}

// ChurnRate is the fraction of users who churned.
func (r *SimulationResult) ChurnRate() float64 {
	if r.Users == 0 {
		return 0
	}
	return float64(r.ChurnedUsers) / float64(r.Users)
}

// DurationString renders TotalTimeMs in seconds, minutes or hours.
func (r *SimulationResult) DurationString() string {
	seconds := r.TotalTimeMs / 1000
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}

// Summary returns a copy without the latency sequence.
func (r *SimulationResult) Summary() *SimulationResult {
	out := *r
	out.Latencies = nil
	return &out
}
