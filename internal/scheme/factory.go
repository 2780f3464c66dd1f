package scheme

import (
	"fmt"

	"x402-lab/internal/domain"
)

// FromScheme creates the Resolver for s.
func FromScheme(s domain.Scheme, cfg domain.SimulationConfig) (Resolver, error) {
	switch s {
	case domain.SchemeNoX402:
		return NewPassiveWait(cfg), nil
	case domain.SchemeSync:
		return NewSyncPayment(cfg), nil
	case domain.SchemeAsync:
		return NewOptimisticPayment(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownScheme, s)
	}
}
