package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# x402 Scheme Comparison Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Seed: %d | Presets: %d\n\n", r.Seed, len(r.Presets)))

	// Preset sections
	if len(r.Presets) == 0 {
		sb.WriteString("No simulation runs available.\n\n")
	}
	for _, p := range r.Presets {
		cfg := p.Config
		sb.WriteString(fmt.Sprintf("## %s\n\n", p.Preset))
		sb.WriteString(fmt.Sprintf("Capacity: %g, Refill: %g/s, Price: $%g, Users: %d, Requests/user: %d, Interval: %.0fms (load %gx)\n\n",
			cfg.TokenCapacity, cfg.RefillRate, cfg.PricePerPaymentUSD,
			cfg.NumUsers, cfg.RequestsPerUser, cfg.EffectiveRequestIntervalMs(), cfg.LoadMultiplier))

		sb.WriteString("| Scheme | Requests | Success | Duration | RPS | Revenue | Payments | Avg Lat | P50 | P95 | P99 | Churned |\n")
		sb.WriteString("|--------|----------|---------|----------|-----|---------|----------|---------|-----|-----|-----|---------|\n")
		for _, row := range p.Rows {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% | %s | %.2f | $%.4f | %d | %.0fms | %.0fms | %.0fms | %.0fms | %d |\n",
				row.Scheme, row.TotalRequests, row.SuccessRate*100, row.Duration, row.ThroughputRPS,
				row.RevenueUSD, row.Payments, row.AvgLatencyMs, row.P50LatencyMs,
				row.P95LatencyMs, row.P99LatencyMs, row.ChurnedUsers))
		}
		sb.WriteString("\n")

		if p.LatencySpeedup > 0 {
			sb.WriteString(fmt.Sprintf("Async vs sync: %.2fx lower avg latency, %.2fx faster total time.\n\n",
				p.LatencySpeedup, p.TimeSpeedup))
		}
	}

	// Sensitivity
	if len(r.Sensitivity) > 0 {
		sb.WriteString(fmt.Sprintf("## Sensitivity: %s\n\n", r.Sensitivity[0].Param))
		sb.WriteString("| Value | Scheme | Revenue | Avg Lat | Success | Churn |\n")
		sb.WriteString("|-------|--------|---------|---------|---------|-------|\n")
		for _, pt := range r.Sensitivity {
			sb.WriteString(fmt.Sprintf("| %g | %s | $%.4f | %.0fms | %.1f%% | %.1f%% |\n",
				pt.Value, pt.Scheme, pt.RevenueUSD, pt.AvgLatencyMs, pt.SuccessRate*100, pt.ChurnRate*100))
		}
		sb.WriteString("\n")
	}

	// Trust experiment
	if len(r.Trust) > 0 {
		sb.WriteString("## Trust Threshold\n\n")
		sb.WriteString("| Threshold | Sync Time | Async Time | Speedup |\n")
		sb.WriteString("|-----------|-----------|------------|---------|\n")
		for _, t := range r.Trust {
			sb.WriteString(fmt.Sprintf("| %d | %.1fs | %.1fs | %.2fx |\n",
				t.Threshold, t.SyncTimeMs/1000, t.AsyncTimeMs/1000, t.Speedup))
		}
		sb.WriteString("\n")
	}

	// Histograms
	if len(r.Histograms) > 0 {
		sb.WriteString("## Latency Distribution\n\n")
		for _, h := range r.Histograms {
			sb.WriteString(fmt.Sprintf("### %s / %s (%d samples)\n\n", h.Preset, h.Scheme, h.Count))
			sb.WriteString("```\n")
			sb.WriteString(RenderHistogram(h, 40))
			sb.WriteString("```\n\n")
		}
	}

	return sb.String()
}
