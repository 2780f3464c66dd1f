package reporting

import (
	"strings"
	"testing"

	"x402-lab/internal/domain"
	"x402-lab/internal/metrics"
)

func TestRenderCSV(t *testing.T) {
	report := FromComparisons([]*domain.Comparison{testComparison(t, "openai")}, domain.DefaultSeed, fixedClock())

	csv := RenderCSV(report.Rows())
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "preset,scheme,total_requests") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "openai,no_x402,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	header := strings.Count(lines[0], ",")
	for _, l := range lines[1:] {
		if strings.Count(l, ",") != header {
			t.Errorf("column count mismatch: %s", l)
		}
	}
}

func TestRenderSummaryTable(t *testing.T) {
	report := FromComparisons([]*domain.Comparison{
		testComparison(t, "openai"),
		testComparison(t, "github"),
	}, domain.DefaultSeed, fixedClock())

	table := RenderSummaryTable(report)
	if !strings.HasPrefix(table, "Preset") {
		t.Errorf("table should start with header")
	}
	if got := strings.Count(table, "\ngithub "); got != 3 {
		t.Errorf("expected 3 github rows, got %d", got)
	}
}

func TestRenderResultSummary(t *testing.T) {
	r := &domain.SimulationResult{
		Scheme:             domain.SchemeSync,
		Users:              10,
		TotalRequests:      200,
		SuccessfulRequests: 150,
		TotalPayments:      40,
		TotalRevenueUSD:    0.04,
		ChurnedUsers:       2,
		TotalTimeMs:        90000,
	}

	out := RenderResultSummary(r)
	for _, want := range []string{
		"=== sync ===",
		"Requests: 150/200 successful (75.0%)",
		"Revenue: $0.0400",
		"Duration: 1.5m",
		"Churned: 2 of 10 users (20.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderComparison(t *testing.T) {
	out := RenderComparison(testComparison(t, "openai"))
	if !strings.Contains(out, "Total Time (s)") || !strings.Contains(out, "P95 Latency (ms)") {
		t.Errorf("unexpected comparison table:\n%s", out)
	}

	if RenderComparison(&domain.Comparison{}) != "" {
		t.Error("incomplete comparison should render empty")
	}
}

func TestRenderHistogram(t *testing.T) {
	h := LatencyHistogram{
		Bins: []metrics.HistogramBin{
			{Lower: 0, Upper: 100, Count: 10},
			{Lower: 100, Upper: 200, Count: 5},
			{Lower: 200, Upper: 300, Count: 0},
		},
	}

	out := RenderHistogram(h, 10)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if strings.Count(lines[0], "#") != 10 || strings.Count(lines[1], "#") != 5 || strings.Count(lines[2], "#") != 0 {
		t.Errorf("unexpected bars:\n%s", out)
	}
}

func TestRenderSensitivityTable(t *testing.T) {
	table := RenderSensitivityTable([]domain.SensitivityPoint{
		{Param: "refill_rate", Value: 0.5, Scheme: domain.SchemeSync, RevenueUSD: 0.25, AvgLatencyMs: 812, SuccessRate: 0.9, ChurnRate: 0.05},
		{Param: "refill_rate", Value: 2, Scheme: domain.SchemeAsync, RevenueUSD: 0.1, AvgLatencyMs: 60, SuccessRate: 1},
	})

	lines := strings.Split(strings.TrimSpace(table), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + rule + 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[2], "refill_rate") || !strings.Contains(lines[2], "$0.2500") {
		t.Errorf("unexpected row: %s", lines[2])
	}
	if !strings.Contains(lines[3], "100.0%") {
		t.Errorf("unexpected row: %s", lines[3])
	}
}

func TestRenderTrustTable(t *testing.T) {
	table := RenderTrustTable([]TrustRow{{Threshold: 3, SyncTimeMs: 60000, AsyncTimeMs: 20000, Speedup: 3}})
	if !strings.Contains(table, "60.0s") || !strings.Contains(table, "3.00x") {
		t.Errorf("unexpected trust table:\n%s", table)
	}
}
