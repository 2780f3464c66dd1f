package domain

// RunRecord is a persisted simulation run.
// RunID is deterministic: sha256(preset|fingerprint|scheme|seed).
type RunRecord struct {
	RunID             string
	Preset            string
	Scheme            Scheme
	Seed              int64
	ConfigFingerprint string
	Config            SimulationConfig
	Result            SimulationResult // Latencies are not stored here
	CreatedAt         int64            // Unix ms
}

// Comparison holds the results of every scheme for one configuration.
type Comparison struct {
	Preset  string
	Config  SimulationConfig
	Results []*SimulationResult // in AllSchemes order
}

// Get returns the result for scheme s, or nil.
func (c *Comparison) Get(s Scheme) *SimulationResult {
	for _, r := range c.Results {
		if r != nil && r.Scheme == s {
			return r
		}
	}
	return nil
}

// SensitivityPoint is one (parameter value, scheme) cell of a sensitivity sweep.
type SensitivityPoint struct {
	Param        string  `json:"param"`
	Value        float64 `json:"value"`
	Scheme       Scheme  `json:"scheme"`
	RevenueUSD   float64 `json:"revenue_usd"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	SuccessRate  float64 `json:"success_rate"`
	ChurnRate    float64 `json:"churn_rate"`
}
