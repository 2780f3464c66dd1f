// Package latency draws the stochastic quantities of a simulation run.
// Every draw comes from one owned *rand.Rand so a run is reproducible from its seed.
package latency

import (
	"math"
	"math/rand"

	"x402-lab/internal/domain"
)

// Latency floors (ms).
const (
	SyncFloorMs  = 500.0
	AsyncFloorMs = 150.0
)

// Sampler draws arrivals, uniforms and settlement latencies for one run.
// Not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand

	meanIntervalMs float64
	syncMean       float64
	syncStd        float64
	asyncMean      float64
	asyncStd       float64
}

// NewSampler creates a sampler seeded with seed.
func NewSampler(cfg domain.SimulationConfig, seed int64) *Sampler {
	return &Sampler{
		rng:            rand.New(rand.NewSource(seed)),
		meanIntervalMs: cfg.EffectiveRequestIntervalMs(),
		syncMean:       cfg.SyncLatencyMeanMs,
		syncStd:        cfg.SyncLatencyStdMs,
		asyncMean:      cfg.AsyncLatencyMeanMs,
		asyncStd:       cfg.AsyncLatencyStdMs,
	}
}

// InterArrival draws an exponential gap with the configured mean interval.
func (s *Sampler) InterArrival() float64 {
	return s.rng.ExpFloat64() * s.meanIntervalMs
}

// Uniform draws from [0, 1).
func (s *Sampler) Uniform() float64 {
	return s.rng.Float64()
}

// SyncSettlement draws a confirmed-settlement latency, floored at SyncFloorMs.
func (s *Sampler) SyncSettlement() float64 {
	return math.Max(SyncFloorMs, s.normal(s.syncMean, s.syncStd))
}

// AsyncSettlement draws an optimistic-admission latency, floored at AsyncFloorMs.
func (s *Sampler) AsyncSettlement() float64 {
	return math.Max(AsyncFloorMs, s.normal(s.asyncMean, s.asyncStd))
}

func (s *Sampler) normal(mean, std float64) float64 {
	return s.rng.NormFloat64()*std + mean
}
