package reporting

import (
	"fmt"
	"strings"

	"x402-lab/internal/domain"
)

// RenderSummaryTable renders every preset row as a fixed-width text table.
func RenderSummaryTable(r *Report) string {
	var sb strings.Builder
	rule := strings.Repeat("-", 104) + "\n"

	sb.WriteString(fmt.Sprintf("%-12s %-8s %10s %10s %10s %10s %8s %9s %9s %8s\n",
		"Preset", "Scheme", "Requests", "Duration", "RPS", "Revenue", "Payments", "Avg Lat", "P95 Lat", "Success"))
	sb.WriteString(rule)

	for _, p := range r.Presets {
		for _, row := range p.Rows {
			sb.WriteString(fmt.Sprintf("%-12s %-8s %10d %10s %8.0f/s %10s %8d %7.0fms %7.0fms %7.1f%%\n",
				row.Preset, row.Scheme, row.TotalRequests, row.Duration, row.ThroughputRPS,
				fmt.Sprintf("$%.2f", row.RevenueUSD), row.Payments,
				row.AvgLatencyMs, row.P95LatencyMs, row.SuccessRate*100))
		}
		sb.WriteString(rule)
	}

	return sb.String()
}

// RenderResultSummary renders one result as a short text block.
func RenderResultSummary(r *domain.SimulationResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== %s ===\n", r.Scheme))
	sb.WriteString(fmt.Sprintf("Requests: %d/%d successful (%.1f%%)\n",
		r.SuccessfulRequests, r.TotalRequests, r.SuccessRate()*100))
	sb.WriteString(fmt.Sprintf("Payments: %d (%d settlement failures)\n", r.TotalPayments, r.SettlementFailures))
	sb.WriteString(fmt.Sprintf("Revenue: $%.4f\n", r.TotalRevenueUSD))
	sb.WriteString(fmt.Sprintf("Latency: avg=%.0fms, p50=%.0fms, p95=%.0fms, p99=%.0fms\n",
		r.AvgLatencyMs, r.P50LatencyMs, r.P95LatencyMs, r.P99LatencyMs))
	sb.WriteString(fmt.Sprintf("Duration: %s (%.1f req/s)\n", r.DurationString(), r.ThroughputRPS()))
	sb.WriteString(fmt.Sprintf("Churned: %d of %d users (%.1f%%)\n", r.ChurnedUsers, r.Users, r.ChurnRate()*100))

	return sb.String()
}

// RenderComparison renders the three schemes of one comparison side by side.
func RenderComparison(c *domain.Comparison) string {
	no, syn, asy := c.Get(domain.SchemeNoX402), c.Get(domain.SchemeSync), c.Get(domain.SchemeAsync)
	if no == nil || syn == nil || asy == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-22s %14s %14s %14s %10s\n", "Metric", "No X402", "Sync X402", "Async X402", "Speedup"))
	sb.WriteString(strings.Repeat("-", 78) + "\n")

	row := func(name, v1, v2, v3, speedup string) {
		sb.WriteString(fmt.Sprintf("%-22s %14s %14s %14s %10s\n", name, v1, v2, v3, speedup))
	}
	ratio := func(num, den, floor float64) string {
		if den < floor {
			den = floor
		}
		return fmt.Sprintf("%.2fx", num/den)
	}

	row("Total Time (s)",
		fmt.Sprintf("%.1f", no.TotalTimeMs/1000), fmt.Sprintf("%.1f", syn.TotalTimeMs/1000), fmt.Sprintf("%.1f", asy.TotalTimeMs/1000),
		ratio(syn.TotalTimeMs, asy.TotalTimeMs, 1))
	row("Throughput (req/s)",
		fmt.Sprintf("%.2f", no.ThroughputRPS()), fmt.Sprintf("%.2f", syn.ThroughputRPS()), fmt.Sprintf("%.2f", asy.ThroughputRPS()),
		ratio(asy.ThroughputRPS(), syn.ThroughputRPS(), 0.01))
	row("Money Spent ($)",
		fmt.Sprintf("%.4f", no.TotalRevenueUSD), fmt.Sprintf("%.4f", syn.TotalRevenueUSD), fmt.Sprintf("%.4f", asy.TotalRevenueUSD), "-")
	row("Payments",
		fmt.Sprint(no.TotalPayments), fmt.Sprint(syn.TotalPayments), fmt.Sprint(asy.TotalPayments), "-")
	row("Avg Latency (ms)",
		fmt.Sprintf("%.0f", no.AvgLatencyMs), fmt.Sprintf("%.0f", syn.AvgLatencyMs), fmt.Sprintf("%.0f", asy.AvgLatencyMs),
		ratio(syn.AvgLatencyMs, asy.AvgLatencyMs, 1))
	row("P95 Latency (ms)",
		fmt.Sprintf("%.0f", no.P95LatencyMs), fmt.Sprintf("%.0f", syn.P95LatencyMs), fmt.Sprintf("%.0f", asy.P95LatencyMs),
		ratio(syn.P95LatencyMs, asy.P95LatencyMs, 1))

	return sb.String()
}

// RenderHistogram draws one bar per bin, scaled so the fullest bin is width wide.
func RenderHistogram(h LatencyHistogram, width int) string {
	peak := 0
	for _, b := range h.Bins {
		if b.Count > peak {
			peak = b.Count
		}
	}

	var sb strings.Builder
	for _, b := range h.Bins {
		n := 0
		if peak > 0 {
			n = b.Count * width / peak
		}
		sb.WriteString(fmt.Sprintf("%8.0f - %8.0f ms | %-*s %d\n", b.Lower, b.Upper, width, strings.Repeat("#", n), b.Count))
	}
	return sb.String()
}

// RenderSensitivityTable renders sweep points as a fixed-width text table.
func RenderSensitivityTable(points []domain.SensitivityPoint) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %12s %-8s %12s %12s %9s %8s\n",
		"Param", "Value", "Scheme", "Revenue", "Avg Lat", "Success", "Churn"))
	sb.WriteString(strings.Repeat("-", 92) + "\n")

	for _, pt := range points {
		sb.WriteString(fmt.Sprintf("%-24s %12.4g %-8s %12s %10.0fms %8.1f%% %7.1f%%\n",
			pt.Param, pt.Value, pt.Scheme, fmt.Sprintf("$%.4f", pt.RevenueUSD),
			pt.AvgLatencyMs, pt.SuccessRate*100, pt.ChurnRate*100))
	}
	return sb.String()
}

// RenderTrustTable renders trust experiment rows.
func RenderTrustTable(rows []TrustRow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%10s %14s %14s %10s\n", "Threshold", "Sync Time", "Async Time", "Speedup"))
	sb.WriteString(strings.Repeat("-", 51) + "\n")

	for _, t := range rows {
		sb.WriteString(fmt.Sprintf("%10d %13.1fs %13.1fs %9.2fx\n",
			t.Threshold, t.SyncTimeMs/1000, t.AsyncTimeMs/1000, t.Speedup))
	}
	return sb.String()
}
