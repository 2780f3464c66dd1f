// Package trust tracks consecutive successful payments per user.
package trust

import "x402-lab/internal/domain"

// Tracker gates optimistic admission on a user's trust level.
type Tracker struct {
	threshold int
}

// NewTracker creates a Tracker. A threshold of 0 trusts every user.
func NewTracker(threshold int) Tracker {
	return Tracker{threshold: threshold}
}

// IsTrusted reports whether the user has crossed the threshold.
func (t Tracker) IsTrusted(u *domain.UserState) bool {
	return u.TrustLevel >= t.threshold
}

// RecordSuccess increments trust by one after a successful payment.
func (t Tracker) RecordSuccess(u *domain.UserState) {
	u.TrustLevel++
}

// RecordFailure resets trust after a settlement failure.
func (t Tracker) RecordFailure(u *domain.UserState) {
	u.TrustLevel = 0
}

// Stats summarizes trust across a population.
type Stats struct {
	TotalUsers   int
	TrustedUsers int
}

// Stats counts trusted users.
func (t Tracker) Stats(users []*domain.UserState) Stats {
	s := Stats{TotalUsers: len(users)}
	for _, u := range users {
		if t.IsTrusted(u) {
			s.TrustedUsers++
		}
	}
	return s
}
