package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"

	"x402-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(preset|config_fingerprint|scheme|seed)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(preset, fingerprint string, scheme domain.Scheme, seed int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", preset, fingerprint, string(scheme), seed)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeCacheKey keys a result by its inputs only; the preset name is
// irrelevant to the outcome and is left out.
// Formula: SHA256(config_fingerprint|scheme|seed)
func ComputeCacheKey(fingerprint string, scheme domain.Scheme, seed int64) string {
	data := fmt.Sprintf("%s|%s|%d", fingerprint, string(scheme), seed)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortID renders the first 8 bytes of a hex id in base58 for display.
// Ids that are not valid hex are returned unchanged.
func ShortID(id string) string {
	raw, err := hex.DecodeString(id)
	if err != nil || len(raw) == 0 {
		return id
	}
	if len(raw) > 8 {
		raw = raw[:8]
	}
	return base58.Encode(raw)
}
