package domain

import (
	"errors"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_RejectsOutOfDomain(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SimulationConfig)
	}{
		{"zero refill", func(c *SimulationConfig) { c.RefillRate = 0 }},
		{"zero capacity", func(c *SimulationConfig) { c.TokenCapacity = 0 }},
		{"request above capacity", func(c *SimulationConfig) { c.TokensPerRequest = 10 }},
		{"payment below request", func(c *SimulationConfig) { c.TokensPerPayment = 0.5 }},
		{"negative price", func(c *SimulationConfig) { c.PricePerPaymentUSD = -1 }},
		{"failure rate above one", func(c *SimulationConfig) { c.SettlementFailureRate = 1.5 }},
		{"negative retry", func(c *SimulationConfig) { c.UserRetryProbability = -0.1 }},
		{"no users", func(c *SimulationConfig) { c.NumUsers = 0 }},
		{"zero load", func(c *SimulationConfig) { c.LoadMultiplier = 0 }},
		{"negative patience", func(c *SimulationConfig) { c.UserPatienceMs = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidate_AllowsZeroPatience(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UserPatienceMs = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero patience should be valid: %v", err)
	}
}

func TestValidate_BoundsTotalRequests(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumUsers = 1000
	cfg.RequestsPerUser = MaxTotalRequests / 1000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("product at the limit should be valid: %v", err)
	}

	cfg.RequestsPerUser++
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("product above the limit: expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate_RejectsOverflowingWorkload(t *testing.T) {
	cfg, err := DefaultConfig().WithParam("num_users", 5e9)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err = cfg.WithParam("requests_per_user", 5e9)
	if err != nil {
		t.Fatal(err)
	}

	// The int product wraps to a positive value; Validate must still reject it.
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEffectiveRequestInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AvgRequestIntervalMs = 200
	cfg.LoadMultiplier = 4
	if got := cfg.EffectiveRequestIntervalMs(); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
}

func TestWithParam_ReturnsCopy(t *testing.T) {
	base := DefaultConfig()

	got, err := base.WithParam("trust_threshold", 7)
	if err != nil {
		t.Fatalf("WithParam: %v", err)
	}
	if got.TrustThreshold != 7 {
		t.Errorf("expected threshold 7, got %d", got.TrustThreshold)
	}
	if base.TrustThreshold != 3 {
		t.Errorf("base config mutated: threshold %d", base.TrustThreshold)
	}

	if _, err := base.WithParam("bogus", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestWithParam_CoversParamNames(t *testing.T) {
	base := DefaultConfig()
	for _, name := range ParamNames() {
		if _, err := base.WithParam(name, 1); err != nil {
			t.Errorf("param %s: %v", name, err)
		}
	}
}

func TestParseScheme(t *testing.T) {
	for _, s := range AllSchemes() {
		got, err := ParseScheme(string(s))
		if err != nil || got != s {
			t.Errorf("ParseScheme(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseScheme("lightning"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("expected ErrUnknownScheme, got %v", err)
	}
	if SchemeAsync.Order() != 2 {
		t.Errorf("expected async order 2, got %d", SchemeAsync.Order())
	}
}

func TestSimulationResult_Derived(t *testing.T) {
	r := &SimulationResult{
		Users:              10,
		TotalRequests:      100,
		SuccessfulRequests: 80,
		ChurnedUsers:       2,
		TotalTimeMs:        20000,
	}

	if got := r.ThroughputRPS(); got != 4 {
		t.Errorf("expected 4 rps, got %v", got)
	}
	if got := r.SuccessRate(); got != 0.8 {
		t.Errorf("expected 0.8, got %v", got)
	}
	if got := r.ChurnRate(); got != 0.2 {
		t.Errorf("expected 0.2, got %v", got)
	}

	empty := &SimulationResult{}
	if empty.ThroughputRPS() != 0 || empty.SuccessRate() != 0 || empty.ChurnRate() != 0 {
		t.Error("empty result should have zero derived values")
	}
}

func TestDurationString(t *testing.T) {
	tests := []struct {
		ms   float64
		want string
	}{
		{1500, "1.5s"},
		{59000, "59.0s"},
		{90000, "1.5m"},
		{3600000, "1.0h"},
		{5400000, "1.5h"},
	}
	for _, tt := range tests {
		r := &SimulationResult{TotalTimeMs: tt.ms}
		if got := r.DurationString(); got != tt.want {
			t.Errorf("DurationString(%v) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
