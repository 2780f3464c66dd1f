package reporting

import (
	"context"
	"fmt"
	"time"

	"x402-lab/internal/domain"
	"x402-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore    storage.RunStore
	sampleStore storage.LatencySampleStore // optional
	now         func() time.Time           // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. sampleStore may be nil.
func NewGenerator(runStore storage.RunStore, sampleStore storage.LatencySampleStore) *Generator {
	return &Generator{
		runStore:    runStore,
		sampleStore: sampleStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report over every stored run.
// Runs are grouped by (preset, config fingerprint, seed); the store's
// ordering gives presets alphabetically and schemes in order.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	runs, err := g.runStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	return g.build(ctx, runs)
}

// GenerateForPresets builds a report over the named presets only.
func (g *Generator) GenerateForPresets(ctx context.Context, presets []string) (*Report, error) {
	var runs []*domain.RunRecord
	for _, p := range presets {
		rs, err := g.runStore.GetByPreset(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("load runs for %s: %w", p, err)
		}
		runs = append(runs, rs...)
	}
	return g.build(ctx, runs)
}

func (g *Generator) build(ctx context.Context, runs []*domain.RunRecord) (*Report, error) {
	type groupKey struct {
		preset string
		fp     string
		seed   int64
	}

	var order []groupKey
	groups := make(map[groupKey]*domain.Comparison)
	var seed int64

	for _, run := range runs {
		k := groupKey{run.Preset, run.ConfigFingerprint, run.Seed}
		c, ok := groups[k]
		if !ok {
			c = &domain.Comparison{Preset: run.Preset, Config: run.Config}
			groups[k] = c
			order = append(order, k)
		}
		res := run.Result
		res.Scheme = run.Scheme
		c.Results = append(c.Results, &res)
		seed = run.Seed
	}

	report := &Report{GeneratedAt: g.now(), Seed: seed}
	for _, k := range order {
		report.Presets = append(report.Presets, newPresetSection(groups[k]))
	}

	if g.sampleStore != nil {
		for _, run := range runs {
			samples, err := g.sampleStore.GetByRunID(ctx, run.RunID)
			if err != nil {
				return nil, fmt.Errorf("load samples for %s: %w", run.RunID, err)
			}
			if h, ok := newHistogram(run.Preset, run.Scheme, samples); ok {
				report.Histograms = append(report.Histograms, h)
			}
		}
	}

	return report, nil
}
