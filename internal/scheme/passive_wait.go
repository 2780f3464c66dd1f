package scheme

import (
	"x402-lab/internal/bucket"
	"x402-lab/internal/domain"
)

// PassiveWait makes the user wait for the bucket to refill. No payment.
type PassiveWait struct {
	bucket     bucket.Model
	cost       float64
	patienceMs float64
}

// NewPassiveWait creates the no_x402 resolver.
func NewPassiveWait(cfg domain.SimulationConfig) *PassiveWait {
	return &PassiveWait{
		bucket:     bucket.New(cfg.TokenCapacity, cfg.RefillRate),
		cost:       cfg.TokensPerRequest,
		patienceMs: cfg.UserPatienceMs,
	}
}

var _ Resolver = (*PassiveWait)(nil)

// Scheme returns domain.SchemeNoX402.
func (p *PassiveWait) Scheme() domain.Scheme {
	return domain.SchemeNoX402
}

// Resolve churns the user if the refill wait exceeds patience.
// Otherwise the user waits exactly long enough for one request, which is then debited.
func (p *PassiveWait) Resolve(u *domain.UserState, _ Sampler) Outcome {
	wait := p.bucket.WaitMs(u.Tokens, p.cost)
	if wait > p.patienceMs {
		u.Churn()
		return Outcome{Kind: Churned}
	}

	// Credited up to the request cost, then debited by it.
	u.Tokens = 0

	return Outcome{Kind: Admitted, LatencyMs: wait, AdvanceMs: wait}
}
