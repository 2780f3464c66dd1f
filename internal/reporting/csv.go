package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders scheme rows as CSV string.
func RenderCSV(rows []SchemeRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("preset,scheme,total_requests,successful_requests,total_time_ms,throughput_rps,")
	sb.WriteString("revenue_usd,payments,settlement_failures,")
	sb.WriteString("avg_latency_ms,p50_latency_ms,p95_latency_ms,p99_latency_ms,success_rate,churned_users,churn_rate\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%.3f,%.6f,%.6f,%d,%d,%.3f,%.3f,%.3f,%.3f,%.6f,%d,%.6f\n",
			r.Preset,
			r.Scheme,
			r.TotalRequests,
			r.SuccessfulRequests,
			r.TotalTimeMs,
			r.ThroughputRPS,
			r.RevenueUSD,
			r.Payments,
			r.SettlementFailures,
			r.AvgLatencyMs,
			r.P50LatencyMs,
			r.P95LatencyMs,
			r.P99LatencyMs,
			r.SuccessRate,
			r.ChurnedUsers,
			r.ChurnRate,
		))
	}

	return sb.String()
}
