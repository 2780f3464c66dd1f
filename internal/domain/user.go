package domain

// UserState is one simulated user's private state for the duration of a run.
type UserState struct {
	Tokens             float64
	TrustLevel         int
	PaymentsMade       int
	SuccessfulRequests int
	FailedRequests     int
	Churned            bool // terminal
}

// NewUserState returns a user holding a full bucket.
func NewUserState(capacity float64) *UserState {
	return &UserState{Tokens: capacity}
}

// Churn marks the user as permanently gone for this run.
func (u *UserState) Churn() {
	u.Churned = true
}
