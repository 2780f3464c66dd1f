// Package scheme resolves rate-limited requests under each admission policy.
package scheme

import "x402-lab/internal/domain"

// RequestOverheadMs is added to settlement latency for a paid request.
const RequestOverheadMs = 50.0

// Sampler is the randomness a resolver draws from.
// latency.Sampler satisfies it.
type Sampler interface {
	Uniform() float64
	SyncSettlement() float64
	AsyncSettlement() float64
}

// Resolver decides the outcome of one request that found insufficient tokens.
// It mutates the user's bucket, trust and churn state; the driver owns counters.
type Resolver interface {
	// Resolve decides one rate-limited request for u.
	Resolve(u *domain.UserState, s Sampler) Outcome

	// Scheme returns the policy this resolver implements.
	Scheme() domain.Scheme
}

// Kind classifies an Outcome.
type Kind int

// Outcome kinds
const (
	Admitted  Kind = iota // request served
	Abandoned             // this attempt dropped, user stays
	Churned               // request failed, user gone for the run
)

func (k Kind) String() string {
	switch k {
	case Admitted:
		return "admitted"
	case Abandoned:
		return "abandoned"
	case Churned:
		return "churned"
	default:
		return "unknown"
	}
}

// Outcome is the result of resolving one rate-limited request.
type Outcome struct {
	Kind      Kind
	LatencyMs float64 // recorded latency, Admitted only
	AdvanceMs float64 // simulated clock advance

	Paid             bool // a payment settled
	Optimistic       bool // admitted on trust before settlement
	SettlementFailed bool // the optimistic settlement later failed
}
