// Package orchestrator runs scheme comparisons end to end.
// It coordinates: result cache → simulation → run store → sample store → metrics
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"x402-lab/internal/domain"
	"x402-lab/internal/idhash"
	"x402-lab/internal/logging"
	"x402-lab/internal/observability"
	"x402-lab/internal/preset"
	"x402-lab/internal/simulation"
	"x402-lab/internal/storage"
)

// DefaultParallelism bounds CompareAll when Options.Parallelism is unset.
const DefaultParallelism = 4

// Orchestrator coordinates simulation runs with caching and persistence.
type Orchestrator struct {
	runner *simulation.Runner

	runStore    storage.RunStore
	sampleStore storage.LatencySampleStore
	cache       storage.ResultCache

	runBackend    string
	sampleBackend string

	parallelism int
	log         logrus.FieldLogger
	metrics     *observability.Metrics
	now         func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Stores. RunStore is required; the others are optional.
	RunStore    storage.RunStore
	SampleStore storage.LatencySampleStore
	Cache       storage.ResultCache

	// Backend names used as metric labels. Default "memory".
	RunBackend    string
	SampleBackend string

	Seed        int64 // 0 means domain.DefaultSeed
	Parallelism int   // CompareAll worker limit
	Logger      logrus.FieldLogger
	Metrics     *observability.Metrics // nil means observability.DefaultMetrics
	Now         func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		runner:        simulation.NewRunner(simulation.RunnerOptions{Seed: opts.Seed}),
		runStore:      opts.RunStore,
		sampleStore:   opts.SampleStore,
		cache:         opts.Cache,
		runBackend:    opts.RunBackend,
		sampleBackend: opts.SampleBackend,
		parallelism:   opts.Parallelism,
		log:           opts.Logger,
		metrics:       opts.Metrics,
		now:           opts.Now,
	}
	if o.runBackend == "" {
		o.runBackend = "memory"
	}
	if o.sampleBackend == "" {
		o.sampleBackend = "memory"
	}
	if o.parallelism <= 0 {
		o.parallelism = DefaultParallelism
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	if o.metrics == nil {
		o.metrics = observability.DefaultMetrics
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Seed returns the seed every run starts from.
func (o *Orchestrator) Seed() int64 {
	return o.runner.Seed()
}

// SchemeRun is the outcome of one scheme within a comparison.
type SchemeRun struct {
	RunID  string
	Result *domain.SimulationResult
	Cached bool // served from the result cache; Result has no latencies
}

// Simulate runs one scheme for a named configuration.
// Steps:
//  1. Look up the cache key; on a hit skip to 3
//  2. Simulate and cache the summary
//  3. Persist the run record (an existing record is not an error)
//  4. Persist latency samples when the run was simulated
//  5. Record metrics
func (o *Orchestrator) Simulate(ctx context.Context, presetName string, cfg domain.SimulationConfig, s domain.Scheme) (*SchemeRun, error) {
	if _, err := domain.ParseScheme(string(s)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := o.runner.Seed()
	fp := idhash.ComputeConfigFingerprint(cfg)
	runID := idhash.ComputeRunID(presetName, fp, s, seed)
	key := idhash.ComputeCacheKey(fp, s, seed)

	entry := o.log.WithFields(logrus.Fields{
		"preset": presetName,
		"scheme": s,
		"run_id": idhash.ShortID(runID),
	})

	run := &SchemeRun{RunID: runID}

	if res := o.lookupCache(ctx, key, entry); res != nil {
		run.Result = res
		run.Cached = true
	} else {
		start := time.Now()
		res, err := o.runner.Run(ctx, cfg, s)
		if err != nil {
			o.metrics.RecordRunError(s)
			return nil, fmt.Errorf("simulate %s/%s: %w", presetName, s, err)
		}
		o.metrics.RecordRun(res, time.Since(start).Seconds())
		run.Result = res

		if o.cache != nil {
			if err := o.cache.Set(ctx, key, res); err != nil {
				entry.WithError(err).Warn("cache result")
			}
		}
	}

	if err := o.persist(ctx, presetName, fp, cfg, run); err != nil {
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"cached":   run.Cached,
		"success":  run.Result.SuccessfulRequests,
		"payments": run.Result.TotalPayments,
		"churned":  run.Result.ChurnedUsers,
	}).Debug("scheme run complete")

	return run, nil
}

// Compare runs every scheme for cfg and returns them in scheme order.
func (o *Orchestrator) Compare(ctx context.Context, presetName string, cfg domain.SimulationConfig) (*domain.Comparison, error) {
	return o.CompareStream(ctx, presetName, cfg, nil)
}

// CompareStream is Compare with a callback invoked after each scheme.
// A callback error aborts the comparison.
func (o *Orchestrator) CompareStream(ctx context.Context, presetName string, cfg domain.SimulationConfig, fn func(*SchemeRun) error) (*domain.Comparison, error) {
	cmp := &domain.Comparison{Preset: presetName, Config: cfg}

	for _, s := range domain.AllSchemes() {
		run, err := o.Simulate(ctx, presetName, cfg, s)
		if err != nil {
			return nil, err
		}
		cmp.Results = append(cmp.Results, run.Result)

		if fn != nil {
			if err := fn(run); err != nil {
				return nil, err
			}
		}
	}

	o.log.WithFields(logrus.Fields{
		"preset": presetName,
		"load":   cfg.LoadMultiplier,
	}).Info("comparison complete")

	return cmp, nil
}

// CompareAll compares each preset concurrently, bounded by Parallelism.
// A positive load overrides every preset's load multiplier.
// Results keep the order of presets. The first error cancels the rest.
func (o *Orchestrator) CompareAll(ctx context.Context, presets []preset.Preset, load float64) ([]*domain.Comparison, error) {
	out := make([]*domain.Comparison, len(presets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	for i, p := range presets {
		i, p := i, p
		cfg := p.Config
		if load > 0 {
			cfg.LoadMultiplier = load
		}
		g.Go(func() error {
			cmp, err := o.Compare(gctx, p.Name, cfg)
			if err != nil {
				return fmt.Errorf("preset %s: %w", p.Name, err)
			}
			out[i] = cmp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Sensitivity sweeps one parameter of base across values.
func (o *Orchestrator) Sensitivity(ctx context.Context, base domain.SimulationConfig, param string, values []float64, schemes []domain.Scheme) ([]domain.SensitivityPoint, error) {
	o.log.WithFields(logrus.Fields{"param": param, "points": len(values)}).Info("sensitivity sweep")
	return simulation.Sensitivity(ctx, o.runner, base, param, values, schemes)
}

// TrustExperiment compares sync and async across trust thresholds.
func (o *Orchestrator) TrustExperiment(ctx context.Context, base domain.SimulationConfig, thresholds []int) ([]simulation.TrustSpeedupRow, error) {
	o.log.WithField("thresholds", thresholds).Info("trust experiment")
	return simulation.TrustSpeedup(ctx, o.runner, base, thresholds)
}

// lookupCache returns a cached summary, or nil on a miss.
// Cache errors are logged and treated as a miss.
func (o *Orchestrator) lookupCache(ctx context.Context, key string, entry logrus.FieldLogger) *domain.SimulationResult {
	if o.cache == nil {
		return nil
	}

	res, err := o.cache.Get(ctx, key)
	switch {
	case err == nil:
		o.metrics.RecordCacheLookup("hit")
		return res
	case errors.Is(err, storage.ErrNotFound):
		o.metrics.RecordCacheLookup("miss")
	default:
		o.metrics.RecordCacheLookup("error")
		entry.WithError(err).Warn("result cache lookup")
	}
	return nil
}

// persist stores the run record and, when present, its latency samples.
// Records that already exist are skipped.
func (o *Orchestrator) persist(ctx context.Context, presetName, fp string, cfg domain.SimulationConfig, run *SchemeRun) error {
	rec := &domain.RunRecord{
		RunID:             run.RunID,
		Preset:            presetName,
		Scheme:            run.Result.Scheme,
		Seed:              o.runner.Seed(),
		ConfigFingerprint: fp,
		Config:            cfg,
		Result:            *run.Result.Summary(),
		CreatedAt:         o.now().UnixMilli(),
	}

	if o.runStore != nil {
		start := time.Now()
		err := o.runStore.Insert(ctx, rec)
		o.metrics.RecordDBQuery(o.runBackend, "insert_run", time.Since(start).Seconds(), ignoreDuplicate(err))
		if err := ignoreDuplicate(err); err != nil {
			return fmt.Errorf("persist run %s: %w", run.RunID, err)
		}
	}

	if o.sampleStore != nil && len(run.Result.Latencies) > 0 {
		start := time.Now()
		err := o.sampleStore.InsertBulk(ctx, run.RunID, run.Result.Latencies)
		o.metrics.RecordDBQuery(o.sampleBackend, "insert_samples", time.Since(start).Seconds(), ignoreDuplicate(err))
		if err := ignoreDuplicate(err); err != nil {
			return fmt.Errorf("persist samples %s: %w", run.RunID, err)
		}
	}

	return nil
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}
