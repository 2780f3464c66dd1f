package metrics

import (
	"math"
	"sort"
)

// LatencyStats summarizes a latency sequence (ms).
// An empty sequence yields all zeros.
type LatencyStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P95    float64
	P99    float64
}

// ComputeLatencyStats computes the statistics over a copy of latencies.
// Percentiles use linear interpolation between closest ranks.
func ComputeLatencyStats(latencies []float64) LatencyStats {
	n := len(latencies)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, latencies)
	sort.Float64s(sorted)

	mean := computeMean(latencies)
	return LatencyStats{
		Count:  n,
		Mean:   mean,
		StdDev: computeStddev(latencies, mean),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P50:    computePercentile(sorted, 0.50),
		P95:    computePercentile(sorted, 0.95),
		P99:    computePercentile(sorted, 0.99),
	}
}

// computeMean returns the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev returns the sample standard deviation.
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile computes percentile p (0..1) of a sorted slice.
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// HistogramBin counts latencies in [Lower, Upper).
type HistogramBin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram buckets latencies into bins equal-width bins spanning [min, max].
// The max value lands in the last bin.
func Histogram(latencies []float64, bins int) []HistogramBin {
	if len(latencies) == 0 || bins <= 0 {
		return nil
	}

	lo, hi := latencies[0], latencies[0]
	for _, v := range latencies {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(latencies)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range latencies {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
