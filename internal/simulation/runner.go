// Package simulation drives users and requests through the bucket and scheme resolvers.
package simulation

import (
	"context"
	"fmt"

	"x402-lab/internal/bucket"
	"x402-lab/internal/domain"
	"x402-lab/internal/latency"
	"x402-lab/internal/metrics"
	"x402-lab/internal/scheme"
	"x402-lab/internal/trust"
)

// BaselineLatencyMs is the latency of a request served from the bucket.
const BaselineLatencyMs = 50.0

// RequestEvent describes one processed request. Passed to an Observer.
type RequestEvent struct {
	UserIndex         int
	RequestIndex      int
	ClockMs           float64 // clock after the request
	TokensAfterRefill float64
	RateLimited       bool
	Outcome           scheme.Outcome
	User              domain.UserState // snapshot after the request
}

// Observer receives every processed request in order.
type Observer interface {
	OnRequest(ev RequestEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev RequestEvent)

// OnRequest calls f(ev).
func (f ObserverFunc) OnRequest(ev RequestEvent) { f(ev) }

// Runner executes simulation runs.
type Runner struct {
	seed     int64
	observer Observer
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Seed     int64    // 0 means domain.DefaultSeed
	Observer Observer // optional
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	seed := opts.Seed
	if seed == 0 {
		seed = domain.DefaultSeed
	}
	return &Runner{seed: seed, observer: opts.Observer}
}

// Seed returns the seed every run starts from.
func (r *Runner) Seed() int64 {
	return r.seed
}

// Run simulates cfg under scheme s. The random source is freshly seeded,
// so identical inputs give identical results.
// Steps:
//  1. Validate config and build the resolver
//  2. For each user, for each request: draw a gap, refill, serve or resolve
//  3. Break out of a user's requests on churn
//  4. Finalize statistics
func (r *Runner) Run(ctx context.Context, cfg domain.SimulationConfig, s domain.Scheme) (*domain.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolver, err := scheme.FromScheme(s, cfg)
	if err != nil {
		return nil, err
	}

	sampler := latency.NewSampler(cfg, r.seed)
	model := bucket.New(cfg.TokenCapacity, cfg.RefillRate)
	collector := metrics.NewCollector(cfg, s)
	users := make([]*domain.UserState, cfg.NumUsers)

	clock := 0.0
	for i := range users {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation cancelled at user %d: %w", i, err)
		}

		user := domain.NewUserState(cfg.TokenCapacity)
		users[i] = user

		for j := 0; j < cfg.RequestsPerUser; j++ {
			// Refill covers the think time between requests, not time spent being served.
			gap := sampler.InterArrival()
			clock += gap
			user.Tokens = model.Refill(user.Tokens, gap)
			tokens := user.Tokens

			var out scheme.Outcome
			rateLimited := !model.Affords(user.Tokens, cfg.TokensPerRequest)
			if !rateLimited {
				user.Tokens -= cfg.TokensPerRequest
				out = scheme.Outcome{Kind: scheme.Admitted, LatencyMs: BaselineLatencyMs, AdvanceMs: BaselineLatencyMs}
			} else {
				collector.RecordRateLimited()
				out = resolver.Resolve(user, sampler)
			}

			clock += out.AdvanceMs
			record(collector, user, out)

			if r.observer != nil {
				r.observer.OnRequest(RequestEvent{
					UserIndex:         i,
					RequestIndex:      j,
					ClockMs:           clock,
					TokensAfterRefill: tokens,
					RateLimited:       rateLimited,
					Outcome:           out,
					User:              *user,
				})
			}

			if user.Churned {
				break
			}
		}
	}

	stats := trust.NewTracker(cfg.TrustThreshold).Stats(users)
	return collector.Finalize(clock, stats.TrustedUsers), nil
}

// record applies an outcome to the user's counters and the collector.
func record(c *metrics.Collector, u *domain.UserState, out scheme.Outcome) {
	switch out.Kind {
	case scheme.Admitted:
		u.SuccessfulRequests++
		c.RecordSuccess(out.LatencyMs)
	case scheme.Abandoned:
		u.FailedRequests++
		c.RecordFailure()
	case scheme.Churned:
		u.FailedRequests++
		c.RecordFailure()
		c.RecordChurn()
	}
	if out.Paid {
		c.RecordPayment()
	}
	if out.SettlementFailed {
		c.RecordSettlementFailure()
	}
}

// RunComparison runs every scheme against cfg, each from the same seed.
func (r *Runner) RunComparison(ctx context.Context, cfg domain.SimulationConfig) ([]*domain.SimulationResult, error) {
	schemes := domain.AllSchemes()
	results := make([]*domain.SimulationResult, 0, len(schemes))
	for _, s := range schemes {
		res, err := r.Run(ctx, cfg, s)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", s, err)
		}
		results = append(results, res)
	}
	return results, nil
}
