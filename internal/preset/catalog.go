// Package preset provides ready-made configurations modelled on public API rate limits.
package preset

import (
	"errors"
	"fmt"
	"sort"

	"x402-lab/internal/domain"
)

// ErrUnknownPreset is returned by Lookup for names not in the catalog.
var ErrUnknownPreset = errors.New("unknown preset")

// Kind groups presets.
type Kind string

// Preset kinds
const (
	KindAPI        Kind = "api"        // published limits of a real API
	KindExperiment Kind = "experiment" // workload built for a specific comparison
)

// Preset is a named configuration.
type Preset struct {
	Name        string
	Kind        Kind
	Description string
	Config      domain.SimulationConfig
}

// apiConfig builds a config where one payment refills the whole bucket.
func apiConfig(capacity, refill, price float64, users, requests int, intervalMs float64) domain.SimulationConfig {
	cfg := domain.DefaultConfig()
	cfg.TokenCapacity = capacity
	cfg.RefillRate = refill
	cfg.TokensPerRequest = 1
	cfg.PricePerPaymentUSD = price
	cfg.TokensPerPayment = capacity
	cfg.NumUsers = users
	cfg.RequestsPerUser = requests
	cfg.AvgRequestIntervalMs = intervalMs
	return cfg
}

// patientConfig is apiConfig for users who never give up.
func patientConfig(capacity, refill, price float64, users, requests int, intervalMs float64) domain.SimulationConfig {
	cfg := apiConfig(capacity, refill, price, users, requests, intervalMs)
	cfg.TrustThreshold = 3
	cfg.UserPatienceMs = 999999999
	return cfg
}

var catalog = []Preset{
	{
		Name:        "openai",
		Kind:        KindAPI,
		Description: "OpenAI standard tier, 500 RPM (~8.3 req/s)",
		Config:      apiConfig(50, 8.3, 0.03, 1000, 100, 500),
	},
	{
		Name:        "stripe",
		Kind:        KindAPI,
		Description: "Stripe live mode, 100 req/s",
		Config:      apiConfig(100, 100.0, 0.10, 1000, 500, 10),
	},
	{
		Name:        "github",
		Kind:        KindAPI,
		Description: "GitHub REST authenticated, 5000 req/hour",
		Config:      apiConfig(83, 1.4, 0.01, 1000, 200, 500),
	},
	{
		Name:        "twitter",
		Kind:        KindAPI,
		Description: "X (Twitter) reads, ~300 req per 15 min",
		Config:      apiConfig(20, 0.33, 0.05, 1000, 100, 300),
	},
	{
		Name:        "cloudflare",
		Kind:        KindAPI,
		Description: "Cloudflare API, 1200 req per 5 min",
		Config:      apiConfig(40, 4.0, 0.02, 1000, 150, 250),
	},
	{
		Name:        "bursty",
		Kind:        KindExperiment,
		Description: "X free tier under a 100 req/s burst, patient users",
		Config:      patientConfig(15, 0.017, 0.10, 100, 1000, 10),
	},
	{
		Name:        "x_paid",
		Kind:        KindExperiment,
		Description: "X paid tier, 450 req per 15 min",
		Config:      patientConfig(450, 0.5, 0.10, 1000, 1000, 50),
	},
	{
		Name:        "reddit",
		Kind:        KindExperiment,
		Description: "Reddit API, 100 req/min at $0.24 per 1000",
		Config:      patientConfig(100, 1.67, 0.024, 1000, 1000, 50),
	},
	{
		Name:        "instagram",
		Kind:        KindExperiment,
		Description: "Instagram Graph API, 200 req/hour",
		Config:      patientConfig(200, 0.056, 0.05, 1000, 1000, 50),
	},
	{
		Name:        "trust_lab",
		Kind:        KindExperiment,
		Description: "Strict limits at 5x load for trust threshold sweeps",
		Config: func() domain.SimulationConfig {
			cfg := apiConfig(20, 0.5, 0.05, 500, 100, 100)
			cfg.LoadMultiplier = 5.0
			return cfg
		}(),
	},
}

// Lookup returns the named preset.
func Lookup(name string) (Preset, error) {
	for _, p := range catalog {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// All returns every preset in catalog order.
func All() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// OfKind returns presets of kind k in catalog order.
func OfKind(k Kind) []Preset {
	var out []Preset
	for _, p := range catalog {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}

// APIPresets returns the real-world API presets, the set compared by "all".
func APIPresets() []Preset {
	return OfKind(KindAPI)
}

// Names returns all preset names sorted alphabetically.
func Names() []string {
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// Resolve expands "all" into the API presets, otherwise looks each name up.
func Resolve(names []string) ([]Preset, error) {
	if len(names) == 1 && names[0] == "all" {
		return APIPresets(), nil
	}
	out := make([]Preset, 0, len(names))
	for _, n := range names {
		p, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
