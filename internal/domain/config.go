package domain

import (
	"errors"
	"fmt"
)

// DefaultSeed is the seed every scheme run starts from unless overridden.
const DefaultSeed int64 = 1399

// ErrInvalidConfig is returned when a configuration field is outside its domain.
var ErrInvalidConfig = errors.New("invalid simulation config")

// MaxTotalRequests bounds NumUsers*RequestsPerUser for a single run.
// Every request may record a latency sample, so this also bounds memory.
const MaxTotalRequests = 10_000_000

// ErrUnknownParameter is returned by WithParam for names it does not recognise.
var ErrUnknownParameter = errors.New("unknown simulation parameter")

// SimulationConfig is the parameter bundle for one simulation run.
// It is passed by value; a run never mutates the caller's copy.
type SimulationConfig struct {
	// Bucket
	TokenCapacity    float64 `yaml:"token_capacity" json:"token_capacity"`
	RefillRate       float64 `yaml:"refill_rate" json:"refill_rate"` // tokens per second
	TokensPerRequest float64 `yaml:"tokens_per_request" json:"tokens_per_request"`

	// Payment economics
	PricePerPaymentUSD float64 `yaml:"price_per_payment" json:"price_per_payment"`
	TokensPerPayment   float64 `yaml:"tokens_per_payment" json:"tokens_per_payment"`

	// Settlement latency distributions (ms)
	SyncLatencyMeanMs  float64 `yaml:"sync_latency_mean_ms" json:"sync_latency_mean_ms"`
	SyncLatencyStdMs   float64 `yaml:"sync_latency_std_ms" json:"sync_latency_std_ms"`
	AsyncLatencyMeanMs float64 `yaml:"async_latency_mean_ms" json:"async_latency_mean_ms"`
	AsyncLatencyStdMs  float64 `yaml:"async_latency_std_ms" json:"async_latency_std_ms"`

	// Trust
	TrustThreshold        int     `yaml:"trust_threshold" json:"trust_threshold"`
	SettlementFailureRate float64 `yaml:"settlement_failure_rate" json:"settlement_failure_rate"`

	// Population and workload
	NumUsers             int     `yaml:"num_users" json:"num_users"`
	RequestsPerUser      int     `yaml:"requests_per_user" json:"requests_per_user"`
	UserPatienceMs       float64 `yaml:"user_patience_ms" json:"user_patience_ms"`
	UserRetryProbability float64 `yaml:"user_retry_probability" json:"user_retry_probability"`
	AvgRequestIntervalMs float64 `yaml:"avg_request_interval_ms" json:"avg_request_interval_ms"`
	LoadMultiplier       float64 `yaml:"load_multiplier" json:"load_multiplier"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		TokenCapacity:         4,
		RefillRate:            1.0,
		TokensPerRequest:      1,
		PricePerPaymentUSD:    0.001,
		TokensPerPayment:      4,
		SyncLatencyMeanMs:     3000,
		SyncLatencyStdMs:      800,
		AsyncLatencyMeanMs:    300,
		AsyncLatencyStdMs:     50,
		TrustThreshold:        3,
		SettlementFailureRate: 0.02,
		NumUsers:              100,
		RequestsPerUser:       50,
		UserPatienceMs:        5000,
		UserRetryProbability:  0.9,
		AvgRequestIntervalMs:  200,
		LoadMultiplier:        1.0,
	}
}

// EffectiveRequestIntervalMs is the mean inter-arrival time after load scaling.
func (c SimulationConfig) EffectiveRequestIntervalMs() float64 {
	return c.AvgRequestIntervalMs / c.LoadMultiplier
}

// Validate rejects configurations whose statistics would be meaningless.
func (c SimulationConfig) Validate() error {
	checks := []struct {
		ok    bool
		field string
		msg   string
	}{
		{c.TokenCapacity > 0, "token_capacity", "must be positive"},
		{c.RefillRate > 0, "refill_rate", "must be positive"},
		{c.TokensPerRequest > 0, "tokens_per_request", "must be positive"},
		{c.TokensPerRequest <= c.TokenCapacity, "tokens_per_request", "must not exceed token_capacity"},
		{c.PricePerPaymentUSD >= 0, "price_per_payment", "must be non-negative"},
		{c.TokensPerPayment >= c.TokensPerRequest, "tokens_per_payment", "must cover at least one request"},
		{c.SyncLatencyMeanMs >= 0, "sync_latency_mean_ms", "must be non-negative"},
		{c.SyncLatencyStdMs >= 0, "sync_latency_std_ms", "must be non-negative"},
		{c.AsyncLatencyMeanMs >= 0, "async_latency_mean_ms", "must be non-negative"},
		{c.AsyncLatencyStdMs >= 0, "async_latency_std_ms", "must be non-negative"},
		{c.TrustThreshold >= 0, "trust_threshold", "must be non-negative"},
		{isProbability(c.SettlementFailureRate), "settlement_failure_rate", "must be in [0,1]"},
		{c.NumUsers > 0, "num_users", "must be positive"},
		{c.RequestsPerUser > 0, "requests_per_user", "must be positive"},
		{c.UserPatienceMs >= 0, "user_patience_ms", "must be non-negative"},
		{isProbability(c.UserRetryProbability), "user_retry_probability", "must be in [0,1]"},
		{c.AvgRequestIntervalMs > 0, "avg_request_interval_ms", "must be positive"},
		{c.LoadMultiplier > 0, "load_multiplier", "must be positive"},
	}

	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("%w: %s %s", ErrInvalidConfig, ch.field, ch.msg)
		}
	}

	// NumUsers is positive here; dividing avoids overflowing the product.
	if c.RequestsPerUser > MaxTotalRequests/c.NumUsers {
		return fmt.Errorf("%w: num_users*requests_per_user must not exceed %d", ErrInvalidConfig, MaxTotalRequests)
	}
	return nil
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}

// ParamNames lists the parameters accepted by WithParam.
func ParamNames() []string {
	return []string{
		"token_capacity", "refill_rate", "tokens_per_request",
		"price_per_payment", "tokens_per_payment",
		"sync_latency_mean_ms", "sync_latency_std_ms",
		"async_latency_mean_ms", "async_latency_std_ms",
		"trust_threshold", "settlement_failure_rate",
		"num_users", "requests_per_user",
		"user_patience_ms", "user_retry_probability",
		"avg_request_interval_ms", "load_multiplier",
	}
}

// WithParam returns a copy of c with one named parameter replaced.
// Integer parameters are truncated toward zero.
func (c SimulationConfig) WithParam(name string, value float64) (SimulationConfig, error) {
	out := c
	switch name {
	case "token_capacity":
		out.TokenCapacity = value
	case "refill_rate":
		out.RefillRate = value
	case "tokens_per_request":
		out.TokensPerRequest = value
	case "price_per_payment":
		out.PricePerPaymentUSD = value
	case "tokens_per_payment":
		out.TokensPerPayment = value
	case "sync_latency_mean_ms":
		out.SyncLatencyMeanMs = value
	case "sync_latency_std_ms":
		out.SyncLatencyStdMs = value
	case "async_latency_mean_ms":
		out.AsyncLatencyMeanMs = value
	case "async_latency_std_ms":
		out.AsyncLatencyStdMs = value
	case "trust_threshold":
		out.TrustThreshold = int(value)
	case "settlement_failure_rate":
		out.SettlementFailureRate = value
	case "num_users":
		out.NumUsers = int(value)
	case "requests_per_user":
		out.RequestsPerUser = int(value)
	case "user_patience_ms":
		out.UserPatienceMs = value
	case "user_retry_probability":
		out.UserRetryProbability = value
	case "avg_request_interval_ms":
		out.AvgRequestIntervalMs = value
	case "load_multiplier":
		out.LoadMultiplier = value
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return out, nil
}
