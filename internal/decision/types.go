package decision

import (
	"errors"

	"x402-lab/internal/reporting"
)

// Decision represents the gate outcome for one preset.
type Decision string

const (
	DecisionGO               Decision = "GO"
	DecisionNOGO             Decision = "NO-GO"
	DecisionInsufficientData Decision = "INSUFFICIENT_DATA"
)

// Thresholds parameterise the criteria.
type Thresholds struct {
	// Async avg latency must not exceed sync avg latency times this.
	MaxLatencyRatio float64
	// Async revenue must reach sync revenue times this.
	MinRevenueRatio float64
	// Async settlement failures / payments must not exceed this.
	MaxSettlementFailureShare float64
}

// DefaultThresholds returns the standard gate.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLatencyRatio:           0.5,
		MinRevenueRatio:           0.9,
		MaxSettlementFailureShare: 0.05,
	}
}

// ErrInvalidThresholds is returned for ratios outside (0, +inf) or shares outside [0, 1].
var ErrInvalidThresholds = errors.New("invalid decision thresholds")

// Validate checks threshold domains.
func (t Thresholds) Validate() error {
	if t.MaxLatencyRatio <= 0 || t.MinRevenueRatio <= 0 {
		return ErrInvalidThresholds
	}
	if t.MaxSettlementFailureShare < 0 || t.MaxSettlementFailureShare > 1 {
		return ErrInvalidThresholds
	}
	return nil
}

// DecisionInput holds one preset's scheme rows. Missing schemes are nil.
type DecisionInput struct {
	Preset string
	NoX402 *reporting.SchemeRow
	Sync   *reporting.SchemeRow
	Async  *reporting.SchemeRow
}

// Missing lists the schemes without a row.
func (in DecisionInput) Missing() []string {
	var out []string
	if in.NoX402 == nil {
		out = append(out, "no_x402")
	}
	if in.Sync == nil {
		out = append(out, "sync")
	}
	if in.Async == nil {
		out = append(out, "async")
	}
	return out
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DecisionResult contains the final decision with checklist.
type DecisionResult struct {
	Preset     string
	Decision   Decision
	GOCriteria []CriterionResult // 3 GO criteria
	NOGOChecks []CriterionResult // 3 NO-GO triggers
	Missing    []string          // schemes absent when INSUFFICIENT_DATA
}
