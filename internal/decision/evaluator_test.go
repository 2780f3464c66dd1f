package decision

import (
	"strings"
	"testing"

	"x402-lab/internal/domain"
	"x402-lab/internal/reporting"
)

func healthyInput() DecisionInput {
	return DecisionInput{
		Preset: "openai",
		NoX402: &reporting.SchemeRow{Scheme: domain.SchemeNoX402, SuccessRate: 0.80},
		Sync: &reporting.SchemeRow{
			Scheme:       domain.SchemeSync,
			SuccessRate:  0.90,
			AvgLatencyMs: 1200,
			RevenueUSD:   1.00,
			Payments:     1000,
			ChurnedUsers: 5,
		},
		Async: &reporting.SchemeRow{
			Scheme:             domain.SchemeAsync,
			SuccessRate:        0.95,
			AvgLatencyMs:       300,
			RevenueUSD:         0.98,
			Payments:           980,
			SettlementFailures: 10,
			ChurnedUsers:       2,
		},
	}
}

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(DefaultThresholds())
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return e
}

func TestEvaluate_GO(t *testing.T) {
	result := newTestEvaluator(t).Evaluate(healthyInput())

	if result.Decision != DecisionGO {
		t.Errorf("Expected GO, got %s", result.Decision)
	}
	if len(result.GOCriteria) != 3 || len(result.NOGOChecks) != 3 {
		t.Fatalf("expected 3+3 checks, got %d+%d", len(result.GOCriteria), len(result.NOGOChecks))
	}
	for i, c := range result.GOCriteria {
		if !c.Pass {
			t.Errorf("GO criterion %d (%s) should pass, got fail", i+1, c.Name)
		}
	}
	for i, c := range result.NOGOChecks {
		if !c.Pass {
			t.Errorf("NO-GO trigger %d (%s) should not be triggered", i+1, c.Name)
		}
	}
}

func TestEvaluate_NOGO(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DecisionInput)
		failed string
	}{
		{"lower success", func(in *DecisionInput) { in.Async.SuccessRate = 0.85 }, "Async success rate"},
		{"slow async", func(in *DecisionInput) { in.Async.AvgLatencyMs = 700 }, "Async avg latency"},
		{"revenue loss", func(in *DecisionInput) { in.Async.RevenueUSD = 0.5 }, "Async revenue"},
		{"more churn", func(in *DecisionInput) { in.Async.ChurnedUsers = 6 }, "Async churns more users"},
		{"settlement failures", func(in *DecisionInput) { in.Async.SettlementFailures = 100 }, "Settlement failure share"},
		{"worse than free", func(in *DecisionInput) {
			in.NoX402.SuccessRate = 0.99
		}, "Async worse than no payment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := healthyInput()
			tt.mutate(&in)

			result := newTestEvaluator(t).Evaluate(in)
			if result.Decision != DecisionNOGO {
				t.Fatalf("Expected NO-GO, got %s", result.Decision)
			}

			var failed []string
			for _, c := range append(result.GOCriteria, result.NOGOChecks...) {
				if !c.Pass {
					failed = append(failed, c.Name)
				}
			}
			if len(failed) != 1 || failed[0] != tt.failed {
				t.Errorf("failed checks = %v, want [%s]", failed, tt.failed)
			}
		})
	}
}

func TestEvaluate_ZeroPaymentsNoFailureShare(t *testing.T) {
	in := healthyInput()
	in.Async.Payments = 0
	in.Async.SettlementFailures = 0

	result := newTestEvaluator(t).Evaluate(in)
	if !result.NOGOChecks[1].Pass {
		t.Errorf("zero payments should not trigger settlement failure check")
	}
}

func TestEvaluate_InsufficientData(t *testing.T) {
	in := healthyInput()
	in.Sync = nil

	result := newTestEvaluator(t).Evaluate(in)
	if result.Decision != DecisionInsufficientData {
		t.Fatalf("Expected INSUFFICIENT_DATA, got %s", result.Decision)
	}
	if len(result.Missing) != 1 || result.Missing[0] != "sync" {
		t.Errorf("Missing = %v, want [sync]", result.Missing)
	}
	if len(result.GOCriteria) != 0 {
		t.Errorf("expected no criteria evaluated")
	}
}

func TestNewEvaluator_InvalidThresholds(t *testing.T) {
	bad := DefaultThresholds()
	bad.MaxSettlementFailureShare = 1.5
	if _, err := NewEvaluator(bad); err != ErrInvalidThresholds {
		t.Errorf("expected ErrInvalidThresholds, got %v", err)
	}

	bad = DefaultThresholds()
	bad.MaxLatencyRatio = 0
	if _, err := NewEvaluator(bad); err != ErrInvalidThresholds {
		t.Errorf("expected ErrInvalidThresholds, got %v", err)
	}
}

func TestOverall(t *testing.T) {
	goRes := &DecisionResult{Decision: DecisionGO}
	nogo := &DecisionResult{Decision: DecisionNOGO}
	insufficient := &DecisionResult{Decision: DecisionInsufficientData}

	tests := []struct {
		results []*DecisionResult
		want    Decision
	}{
		{nil, DecisionInsufficientData},
		{[]*DecisionResult{goRes, goRes}, DecisionGO},
		{[]*DecisionResult{goRes, nogo}, DecisionNOGO},
		{[]*DecisionResult{nogo, insufficient}, DecisionInsufficientData},
	}
	for i, tt := range tests {
		if got := Overall(tt.results); got != tt.want {
			t.Errorf("case %d: Overall = %s, want %s", i, got, tt.want)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	e := newTestEvaluator(t)

	bad := healthyInput()
	bad.Preset = "github"
	bad.Async.ChurnedUsers = 9

	missing := healthyInput()
	missing.Preset = "stripe"
	missing.Async = nil

	md := RenderMarkdown(e.EvaluateAll([]DecisionInput{healthyInput(), bad, missing}))

	for _, want := range []string{
		"# Decision Gate Report",
		"## Overall: INSUFFICIENT_DATA",
		"## openai: GO",
		"## github: NO-GO",
		"NO-GO trigger fired: Async churns more users",
		"## stripe: INSUFFICIENT_DATA",
		"Missing schemes: async",
		"GO Criteria: 3/3 passed",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}
