package scheme

import (
	"math"

	"x402-lab/internal/domain"
	"x402-lab/internal/trust"
)

// payment holds what the sync and async resolvers share.
type payment struct {
	tracker      trust.Tracker
	credit       float64 // tokens granted per payment, bounded by capacity
	cost         float64
	retryProb    float64
	churnAfterMs float64 // twice the free-tier patience
}

func newPayment(cfg domain.SimulationConfig) payment {
	return payment{
		tracker:      trust.NewTracker(cfg.TrustThreshold),
		credit:       math.Min(cfg.TokensPerPayment, cfg.TokenCapacity),
		cost:         cfg.TokensPerRequest,
		retryProb:    cfg.UserRetryProbability,
		churnAfterMs: 2 * cfg.UserPatienceMs,
	}
}

// retries reports whether the user goes ahead with a payment for this request.
func (p payment) retries(s Sampler) bool {
	return s.Uniform() <= p.retryProb
}

// settle refills the bucket with the payment's credit, debits the request
// and records the payment against the user's trust.
func (p payment) settle(u *domain.UserState) {
	u.Tokens = p.credit - p.cost
	u.PaymentsMade++
	p.tracker.RecordSuccess(u)
}

// admit settles and builds the Admitted outcome for a settlement latency.
func (p payment) admit(u *domain.UserState, settlementMs float64) Outcome {
	p.settle(u)
	total := settlementMs + RequestOverheadMs
	return Outcome{Kind: Admitted, LatencyMs: total, AdvanceMs: total, Paid: true}
}
