package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"x402-lab/internal/domain"
)

// ComputeConfigFingerprint hashes every simulation parameter.
// Formula: SHA256(name=value|...) in domain.ParamNames order.
// Floats use the shortest exact representation, so two configs share a
// fingerprint iff they are field-for-field equal.
func ComputeConfigFingerprint(cfg domain.SimulationConfig) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	fields := []string{
		"token_capacity=" + f(cfg.TokenCapacity),
		"refill_rate=" + f(cfg.RefillRate),
		"tokens_per_request=" + f(cfg.TokensPerRequest),
		"price_per_payment=" + f(cfg.PricePerPaymentUSD),
		"tokens_per_payment=" + f(cfg.TokensPerPayment),
		"sync_latency_mean_ms=" + f(cfg.SyncLatencyMeanMs),
		"sync_latency_std_ms=" + f(cfg.SyncLatencyStdMs),
		"async_latency_mean_ms=" + f(cfg.AsyncLatencyMeanMs),
		"async_latency_std_ms=" + f(cfg.AsyncLatencyStdMs),
		"trust_threshold=" + strconv.Itoa(cfg.TrustThreshold),
		"settlement_failure_rate=" + f(cfg.SettlementFailureRate),
		"num_users=" + strconv.Itoa(cfg.NumUsers),
		"requests_per_user=" + strconv.Itoa(cfg.RequestsPerUser),
		"user_patience_ms=" + f(cfg.UserPatienceMs),
		"user_retry_probability=" + f(cfg.UserRetryProbability),
		"avg_request_interval_ms=" + f(cfg.AvgRequestIntervalMs),
		"load_multiplier=" + f(cfg.LoadMultiplier),
	}

	hash := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(hash[:])
}
