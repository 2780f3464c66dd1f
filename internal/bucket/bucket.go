// Package bucket implements the token-bucket arithmetic applied to a user's balance.
package bucket

import "math"

// Model holds the bucket parameters shared by every user in a run.
type Model struct {
	Capacity   float64
	RefillRate float64 // tokens per second
}

// New creates a Model.
func New(capacity, refillRate float64) Model {
	return Model{Capacity: capacity, RefillRate: refillRate}
}

// Refill returns the balance after elapsedMs of continuous refill, capped at capacity.
// elapsedMs must be non-negative.
func (m Model) Refill(tokens, elapsedMs float64) float64 {
	return math.Min(m.Capacity, tokens+elapsedMs/1000*m.RefillRate)
}

// Affords reports whether tokens cover a request costing need.
func (m Model) Affords(tokens, need float64) bool {
	return tokens >= need
}

// WaitMs is the time until the balance reaches need. Zero if already there.
func (m Model) WaitMs(tokens, need float64) float64 {
	if tokens >= need {
		return 0
	}
	return (need - tokens) / m.RefillRate * 1000
}
