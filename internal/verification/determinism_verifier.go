package verification

import (
	"context"
	"errors"
	"fmt"

	"x402-lab/internal/simulation"
	"x402-lab/internal/storage"
)

// ErrRunNotFound is returned when run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// DeterminismVerifier implements Verifier by re-running the simulation.
type DeterminismVerifier struct {
	runStore    storage.RunStore
	sampleStore storage.LatencySampleStore
}

// DeterminismVerifierOptions contains configuration for creating a DeterminismVerifier.
type DeterminismVerifierOptions struct {
	RunStore    storage.RunStore
	SampleStore storage.LatencySampleStore // optional; enables latency sequence checks
}

// NewDeterminismVerifier creates a new DeterminismVerifier.
func NewDeterminismVerifier(opts DeterminismVerifierOptions) *DeterminismVerifier {
	return &DeterminismVerifier{
		runStore:    opts.RunStore,
		sampleStore: opts.SampleStore,
	}
}

var _ Verifier = (*DeterminismVerifier)(nil)

// VerifyRun verifies a single run by replaying it with its stored seed.
func (v *DeterminismVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	// 2. Replay simulation
	runner := simulation.NewRunner(simulation.RunnerOptions{Seed: stored.Seed})
	replayed, err := runner.Run(ctx, stored.Config, stored.Scheme)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	// 3. Compare results
	divergences := CompareResults(&stored.Result, replayed)

	// 4. Compare latency samples when stored
	checked := 0
	if v.sampleStore != nil {
		samples, err := v.sampleStore.GetByRunID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load samples %s: %w", runID, err)
		}
		if len(samples) > 0 {
			checked = len(samples)
			divergences = append(divergences, CompareLatencies(samples, replayed.Latencies)...)
		}
	}

	return &VerificationResult{
		RunID:          runID,
		Preset:         stored.Preset,
		Scheme:         stored.Scheme,
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		SamplesChecked: checked,
	}, nil
}

// VerifyAll verifies all stored runs.
func (v *DeterminismVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	runs, err := v.runStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				RunID:  run.RunID,
				Preset: run.Preset,
				Scheme: run.Scheme,
				Match:  false,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}
