package scheme

import "x402-lab/internal/domain"

// OptimisticPayment admits trusted users before their payment settles.
// Untrusted users pay synchronously until they cross the trust threshold.
type OptimisticPayment struct {
	payment
	failureRate float64
}

// NewOptimisticPayment creates the async resolver.
func NewOptimisticPayment(cfg domain.SimulationConfig) *OptimisticPayment {
	return &OptimisticPayment{
		payment:     newPayment(cfg),
		failureRate: cfg.SettlementFailureRate,
	}
}

var _ Resolver = (*OptimisticPayment)(nil)

// Scheme returns domain.SchemeAsync.
func (p *OptimisticPayment) Scheme() domain.Scheme {
	return domain.SchemeAsync
}

// Resolve admits a trusted user at async latency. A failed settlement resets
// trust but never revokes the request already admitted.
func (p *OptimisticPayment) Resolve(u *domain.UserState, s Sampler) Outcome {
	if !p.retries(s) {
		return Outcome{Kind: Abandoned}
	}

	var (
		latency    float64
		optimistic bool
		failed     bool
	)
	if p.tracker.IsTrusted(u) {
		optimistic = true
		latency = s.AsyncSettlement()
		if s.Uniform() < p.failureRate {
			p.tracker.RecordFailure(u)
			failed = true
		}
	} else {
		latency = s.SyncSettlement()
	}

	if latency > p.churnAfterMs {
		u.Churn()
		return Outcome{Kind: Churned, Optimistic: optimistic, SettlementFailed: failed}
	}

	out := p.admit(u, latency)
	out.Optimistic = optimistic
	out.SettlementFailed = failed
	return out
}
