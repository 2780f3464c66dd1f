package reporting

import (
	"math"
	"time"

	"x402-lab/internal/domain"
	"x402-lab/internal/metrics"
	"x402-lab/internal/simulation"
)

// DefaultHistogramBins is the bin count used for latency histograms.
const DefaultHistogramBins = 10

// Report represents a scheme comparison report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Seed        int64

	// Per-preset scheme comparison, in input order
	Presets []PresetSection

	// Optional sections
	Sensitivity []domain.SensitivityPoint
	Trust       []TrustRow
	Histograms  []LatencyHistogram
}

// PresetSection compares every scheme for one preset.
type PresetSection struct {
	Preset string
	Config domain.SimulationConfig
	Rows   []SchemeRow // AllSchemes order

	// LatencySpeedup is sync avg latency / async avg latency, 0 if either is missing.
	LatencySpeedup float64
	// TimeSpeedup is sync total time / async total time, 0 if either is missing.
	TimeSpeedup float64
}

// SchemeRow is one scheme's headline figures.
type SchemeRow struct {
	Preset             string
	Scheme             domain.Scheme
	TotalRequests      int
	SuccessfulRequests int
	Duration           string
	TotalTimeMs        float64
	ThroughputRPS      float64
	RevenueUSD         float64
	Payments           int
	SettlementFailures int
	AvgLatencyMs       float64
	P50LatencyMs       float64
	P95LatencyMs       float64
	P99LatencyMs       float64
	SuccessRate        float64
	ChurnedUsers       int
	ChurnRate          float64
}

// TrustRow is one threshold of a trust experiment.
type TrustRow struct {
	Threshold   int
	SyncTimeMs  float64
	AsyncTimeMs float64
	Speedup     float64
}

// LatencyHistogram bins one run's latencies.
type LatencyHistogram struct {
	Preset string
	Scheme domain.Scheme
	Count  int
	Bins   []metrics.HistogramBin
}

// newSchemeRow builds a row from a result.
func newSchemeRow(preset string, r *domain.SimulationResult) SchemeRow {
	return SchemeRow{
		Preset:             preset,
		Scheme:             r.Scheme,
		TotalRequests:      r.TotalRequests,
		SuccessfulRequests: r.SuccessfulRequests,
		Duration:           r.DurationString(),
		TotalTimeMs:        r.TotalTimeMs,
		ThroughputRPS:      r.ThroughputRPS(),
		RevenueUSD:         r.TotalRevenueUSD,
		Payments:           r.TotalPayments,
		SettlementFailures: r.SettlementFailures,
		AvgLatencyMs:       r.AvgLatencyMs,
		P50LatencyMs:       r.P50LatencyMs,
		P95LatencyMs:       r.P95LatencyMs,
		P99LatencyMs:       r.P99LatencyMs,
		SuccessRate:        r.SuccessRate(),
		ChurnedUsers:       r.ChurnedUsers,
		ChurnRate:          r.ChurnRate(),
	}
}

// newPresetSection builds a section from a comparison.
func newPresetSection(c *domain.Comparison) PresetSection {
	sec := PresetSection{Preset: c.Preset, Config: c.Config}
	for _, s := range domain.AllSchemes() {
		if r := c.Get(s); r != nil {
			sec.Rows = append(sec.Rows, newSchemeRow(c.Preset, r))
		}
	}

	syncRes, asyncRes := c.Get(domain.SchemeSync), c.Get(domain.SchemeAsync)
	if syncRes != nil && asyncRes != nil {
		sec.LatencySpeedup = syncRes.AvgLatencyMs / math.Max(1, asyncRes.AvgLatencyMs)
		sec.TimeSpeedup = syncRes.TotalTimeMs / math.Max(1, asyncRes.TotalTimeMs)
	}
	return sec
}

// newHistogram bins latencies, or returns false when there are none.
func newHistogram(preset string, s domain.Scheme, latencies []float64) (LatencyHistogram, bool) {
	if len(latencies) == 0 {
		return LatencyHistogram{}, false
	}
	return LatencyHistogram{
		Preset: preset,
		Scheme: s,
		Count:  len(latencies),
		Bins:   metrics.Histogram(latencies, DefaultHistogramBins),
	}, true
}

// FromComparisons builds a report from in-memory comparisons.
// Results carrying latencies also get a histogram.
func FromComparisons(cmps []*domain.Comparison, seed int64, now time.Time) *Report {
	r := &Report{GeneratedAt: now, Seed: seed}
	for _, c := range cmps {
		r.Presets = append(r.Presets, newPresetSection(c))
		for _, res := range c.Results {
			if h, ok := newHistogram(c.Preset, res.Scheme, res.Latencies); ok {
				r.Histograms = append(r.Histograms, h)
			}
		}
	}
	return r
}

// AddTrust appends trust experiment rows.
func (r *Report) AddTrust(rows []simulation.TrustSpeedupRow) {
	for _, row := range rows {
		r.Trust = append(r.Trust, TrustRow{
			Threshold:   row.Threshold,
			SyncTimeMs:  row.Sync.TotalTimeMs,
			AsyncTimeMs: row.Async.TotalTimeMs,
			Speedup:     row.Speedup,
		})
	}
}

// Rows flattens every preset section's rows.
func (r *Report) Rows() []SchemeRow {
	var out []SchemeRow
	for _, p := range r.Presets {
		out = append(out, p.Rows...)
	}
	return out
}
