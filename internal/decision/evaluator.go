package decision

import "fmt"

// Evaluator evaluates decision criteria.
type Evaluator struct {
	t Thresholds
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(t Thresholds) (*Evaluator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{t: t}, nil
}

// Evaluate produces DecisionResult from DecisionInput.
// INSUFFICIENT_DATA if any scheme is missing.
// GO if ALL criteria pass and NO NO-GO triggers fire, NO-GO otherwise.
func (e *Evaluator) Evaluate(input DecisionInput) *DecisionResult {
	if missing := input.Missing(); len(missing) > 0 {
		return &DecisionResult{
			Preset:   input.Preset,
			Decision: DecisionInsufficientData,
			Missing:  missing,
		}
	}

	goCriteria := e.evaluateGOCriteria(input)
	nogoChecks := e.evaluateNOGOTriggers(input)

	decision := DecisionGO
	for _, c := range append(append([]CriterionResult{}, goCriteria...), nogoChecks...) {
		if !c.Pass {
			decision = DecisionNOGO
			break
		}
	}

	return &DecisionResult{
		Preset:     input.Preset,
		Decision:   decision,
		GOCriteria: goCriteria,
		NOGOChecks: nogoChecks,
	}
}

// EvaluateAll evaluates each input in order.
func (e *Evaluator) EvaluateAll(inputs []DecisionInput) []*DecisionResult {
	out := make([]*DecisionResult, len(inputs))
	for i, in := range inputs {
		out[i] = e.Evaluate(in)
	}
	return out
}

// Overall folds per-preset results: INSUFFICIENT_DATA if any is (or if
// there are none), NO-GO if any is, GO otherwise.
func Overall(results []*DecisionResult) Decision {
	if len(results) == 0 {
		return DecisionInsufficientData
	}
	out := DecisionGO
	for _, r := range results {
		switch r.Decision {
		case DecisionInsufficientData:
			return DecisionInsufficientData
		case DecisionNOGO:
			out = DecisionNOGO
		}
	}
	return out
}

// evaluateGOCriteria evaluates the 3 GO criteria.
func (e *Evaluator) evaluateGOCriteria(in DecisionInput) []CriterionResult {
	syncRow, asyncRow := in.Sync, in.Async

	return []CriterionResult{
		{
			Name:      "Async success rate",
			Threshold: ">= sync",
			Actual:    fmt.Sprintf("async=%.2f%%, sync=%.2f%%", asyncRow.SuccessRate*100, syncRow.SuccessRate*100),
			Pass:      asyncRow.SuccessRate >= syncRow.SuccessRate,
		},
		{
			Name:      "Async avg latency",
			Threshold: fmt.Sprintf("<= sync x %.2f", e.t.MaxLatencyRatio),
			Actual:    fmt.Sprintf("async=%.0fms, sync=%.0fms", asyncRow.AvgLatencyMs, syncRow.AvgLatencyMs),
			Pass:      asyncRow.AvgLatencyMs <= syncRow.AvgLatencyMs*e.t.MaxLatencyRatio,
		},
		{
			Name:      "Async revenue",
			Threshold: fmt.Sprintf(">= sync x %.2f", e.t.MinRevenueRatio),
			Actual:    fmt.Sprintf("async=$%.4f, sync=$%.4f", asyncRow.RevenueUSD, syncRow.RevenueUSD),
			Pass:      asyncRow.RevenueUSD >= syncRow.RevenueUSD*e.t.MinRevenueRatio,
		},
	}
}

// evaluateNOGOTriggers evaluates the 3 NO-GO triggers.
// Pass=true means NOT triggered, Pass=false means triggered.
func (e *Evaluator) evaluateNOGOTriggers(in DecisionInput) []CriterionResult {
	noRow, syncRow, asyncRow := in.NoX402, in.Sync, in.Async

	failureShare := 0.0
	if asyncRow.Payments > 0 {
		failureShare = float64(asyncRow.SettlementFailures) / float64(asyncRow.Payments)
	}

	return []CriterionResult{
		{
			Name:      "Async churns more users",
			Threshold: "async churned > sync churned",
			Actual:    fmt.Sprintf("async=%d, sync=%d", asyncRow.ChurnedUsers, syncRow.ChurnedUsers),
			Pass:      asyncRow.ChurnedUsers <= syncRow.ChurnedUsers,
		},
		{
			Name:      "Settlement failure share",
			Threshold: fmt.Sprintf("> %.2f%%", e.t.MaxSettlementFailureShare*100),
			Actual:    fmt.Sprintf("%.2f%% (%d/%d)", failureShare*100, asyncRow.SettlementFailures, asyncRow.Payments),
			Pass:      failureShare <= e.t.MaxSettlementFailureShare,
		},
		{
			Name:      "Async worse than no payment",
			Threshold: "async success < no_x402 success",
			Actual:    fmt.Sprintf("async=%.2f%%, no_x402=%.2f%%", asyncRow.SuccessRate*100, noRow.SuccessRate*100),
			Pass:      asyncRow.SuccessRate >= noRow.SuccessRate,
		},
	}
}
