package scheme

import "x402-lab/internal/domain"

// SyncPayment pays on every rate-limited request and blocks until settlement confirms.
type SyncPayment struct {
	payment
}

// NewSyncPayment creates the sync resolver.
func NewSyncPayment(cfg domain.SimulationConfig) *SyncPayment {
	return &SyncPayment{payment: newPayment(cfg)}
}

var _ Resolver = (*SyncPayment)(nil)

// Scheme returns domain.SchemeSync.
func (p *SyncPayment) Scheme() domain.Scheme {
	return domain.SchemeSync
}

// Resolve draws the retry decision, then a confirmed-settlement latency.
func (p *SyncPayment) Resolve(u *domain.UserState, s Sampler) Outcome {
	if !p.retries(s) {
		return Outcome{Kind: Abandoned}
	}

	latency := s.SyncSettlement()
	if latency > p.churnAfterMs {
		u.Churn()
		return Outcome{Kind: Churned}
	}

	return p.admit(u, latency)
}
