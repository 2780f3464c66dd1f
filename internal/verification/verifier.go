// Package verification re-simulates stored runs and checks that every
// persisted figure is reproduced from (config, scheme, seed).
package verification

import (
	"context"
	"fmt"
	"math"

	"x402-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID          string
	Preset         string
	Scheme         domain.Scheme
	Match          bool              // true if all fields match
	Divergences    []FieldDivergence // list of divergent fields
	SamplesChecked int               // stored latency samples compared, 0 if none stored
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Results       []VerificationResult
}

// Verifier re-simulates stored runs.
type Verifier interface {
	// VerifyRun loads the stored run, re-simulates it and compares all fields.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyAll verifies all stored runs.
	VerifyAll(ctx context.Context) (*VerificationReport, error)
}

// CompareResults compares two results field by field.
// Latencies are not compared here.
func CompareResults(stored, replayed *domain.SimulationResult) []FieldDivergence {
	var d divergences

	d.exact("Scheme", stored.Scheme, replayed.Scheme)
	d.exact("Users", stored.Users, replayed.Users)
	d.exact("TotalRequests", stored.TotalRequests, replayed.TotalRequests)
	d.exact("SuccessfulRequests", stored.SuccessfulRequests, replayed.SuccessfulRequests)
	d.exact("FailedRequests", stored.FailedRequests, replayed.FailedRequests)
	d.exact("RateLimitedRequests", stored.RateLimitedRequests, replayed.RateLimitedRequests)
	d.exact("TotalPayments", stored.TotalPayments, replayed.TotalPayments)
	d.exact("SettlementFailures", stored.SettlementFailures, replayed.SettlementFailures)
	d.exact("ChurnedUsers", stored.ChurnedUsers, replayed.ChurnedUsers)
	d.exact("TrustedUsers", stored.TrustedUsers, replayed.TrustedUsers)

	d.float("TotalRevenueUSD", stored.TotalRevenueUSD, replayed.TotalRevenueUSD)
	d.float("AvgLatencyMs", stored.AvgLatencyMs, replayed.AvgLatencyMs)
	d.float("P50LatencyMs", stored.P50LatencyMs, replayed.P50LatencyMs)
	d.float("P95LatencyMs", stored.P95LatencyMs, replayed.P95LatencyMs)
	d.float("P99LatencyMs", stored.P99LatencyMs, replayed.P99LatencyMs)
	d.float("TotalTimeMs", stored.TotalTimeMs, replayed.TotalTimeMs)

	return d
}

// CompareLatencies compares a stored latency sequence with a replayed one.
func CompareLatencies(stored, replayed []float64) []FieldDivergence {
	if len(stored) != len(replayed) {
		return []FieldDivergence{{Field: "Latencies.len", Expected: len(stored), Actual: len(replayed)}}
	}
	for i := range stored {
		if !floatEquals(stored[i], replayed[i]) {
			// First mismatch is enough to locate the drift
			return []FieldDivergence{{
				Field:    fmt.Sprintf("Latencies[%d]", i),
				Expected: stored[i],
				Actual:   replayed[i],
			}}
		}
	}
	return nil
}

type divergences []FieldDivergence

func (d *divergences) exact(field string, expected, actual interface{}) {
	if expected != actual {
		*d = append(*d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}
}

func (d *divergences) float(field string, expected, actual float64) {
	if !floatEquals(expected, actual) {
		*d = append(*d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
