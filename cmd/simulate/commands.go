package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"x402-lab/internal/decision"
	"x402-lab/internal/domain"
	"x402-lab/internal/idhash"
	"x402-lab/internal/preset"
	"x402-lab/internal/reporting"
	"x402-lab/internal/verification"
)

// stdout is where command output goes. Replaced in tests.
var stdout io.Writer = os.Stdout

// RunCmd simulates one scheme.
type RunCmd struct {
	Preset    string             `help:"Preset name (default: simulation section of the config)."`
	Scheme    string             `short:"s" help:"Payment scheme." default:"async" enum:"no_x402,sync,async"`
	Load      float64            `help:"Load multiplier override."`
	Set       map[string]float64 `help:"Parameter overrides, e.g. --set num_users=50;refill_rate=2."`
	JSON      bool               `help:"Print the result as JSON."`
	Histogram bool               `help:"Print a latency histogram."`
}

func (c *RunCmd) Run(cli *CLI, ctx context.Context) error {
	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.stores.Close()

	name, cfg, err := e.resolve(c.Preset, c.Load, c.Set)
	if err != nil {
		return err
	}
	scheme, err := domain.ParseScheme(c.Scheme)
	if err != nil {
		return err
	}

	run, err := e.orch.Simulate(ctx, name, cfg, scheme)
	if err != nil {
		return err
	}

	if c.JSON {
		return writeJSON(run.Result)
	}

	fmt.Fprintf(stdout, "Preset: %s  Run: %s  Cached: %v\n\n", name, idhash.ShortID(run.RunID), run.Cached)
	fmt.Fprint(stdout, reporting.RenderResultSummary(run.Result))

	if c.Histogram {
		// Cached results carry no latencies; fall back to stored samples
		latencies := run.Result.Latencies
		if len(latencies) == 0 {
			latencies, err = e.stores.Samples.GetByRunID(ctx, run.RunID)
			if err != nil {
				return err
			}
		}
		report := reporting.FromComparisons([]*domain.Comparison{{
			Preset:  name,
			Config:  cfg,
			Results: []*domain.SimulationResult{{Scheme: scheme, Latencies: latencies}},
		}}, e.orch.Seed(), time.Now())
		for _, h := range report.Histograms {
			fmt.Fprintln(stdout)
			fmt.Fprint(stdout, reporting.RenderHistogram(h, 40))
		}
	}
	return nil
}

// CompareCmd compares every scheme.
type CompareCmd struct {
	Preset    []string           `help:"Preset names, or \"all\" for the API presets (default: simulation section of the config)."`
	Load      float64            `help:"Load multiplier override for every preset."`
	Set       map[string]float64 `help:"Parameter overrides; only with a single configuration."`
	OutputDir string             `name:"output-dir" help:"Write report.md, schemes.csv and decision.md here." type:"path"`
}

func (c *CompareCmd) Run(cli *CLI, ctx context.Context) error {
	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.stores.Close()

	var cmps []*domain.Comparison
	if len(c.Preset) == 0 {
		name, cfg, err := e.resolve("", c.Load, c.Set)
		if err != nil {
			return err
		}
		cmp, err := e.orch.Compare(ctx, name, cfg)
		if err != nil {
			return err
		}
		cmps = append(cmps, cmp)
	} else {
		if len(c.Set) > 0 {
			return fmt.Errorf("--set needs a single configuration; drop --preset")
		}
		presets, err := preset.Resolve(c.Preset)
		if err != nil {
			return err
		}
		cmps, err = e.orch.CompareAll(ctx, presets, c.Load)
		if err != nil {
			return err
		}
	}

	for _, cmp := range cmps {
		fmt.Fprintf(stdout, "=== %s (load %.1fx) ===\n", cmp.Preset, cmp.Config.LoadMultiplier)
		fmt.Fprintln(stdout, reporting.RenderComparison(cmp))
	}

	report := reporting.FromComparisons(cmps, e.orch.Seed(), time.Now().UTC())
	fmt.Fprint(stdout, reporting.RenderSummaryTable(report))

	eval, err := decision.NewEvaluator(decision.DefaultThresholds())
	if err != nil {
		return err
	}
	results := eval.EvaluateAll(decision.Build(report))
	fmt.Fprintf(stdout, "\nDecision: %s\n", decision.Overall(results))

	if c.OutputDir != "" {
		if err := writeReport(c.OutputDir, report, results); err != nil {
			return err
		}
		e.log.WithField("dir", c.OutputDir).Info("report written")
	}
	return nil
}

// PresetsCmd lists the preset catalog.
type PresetsCmd struct {
	Kind string `help:"Only presets of this kind (api, experiment)."`
}

func (c *PresetsCmd) Run() error {
	presets := preset.All()
	switch preset.Kind(c.Kind) {
	case "":
	case preset.KindAPI, preset.KindExperiment:
		presets = preset.OfKind(preset.Kind(c.Kind))
	default:
		return fmt.Errorf("unknown preset kind %q", c.Kind)
	}
	for _, p := range presets {
		fmt.Fprintf(stdout, "%-12s %-10s %s\n", p.Name, p.Kind, p.Description)
	}
	return nil
}

// SensitivityCmd sweeps one parameter.
type SensitivityCmd struct {
	Preset string    `help:"Base preset (default: simulation section of the config)."`
	Param  string    `required:"" help:"Parameter to sweep."`
	Values []float64 `required:"" sep:"," help:"Comma-separated values."`
	Scheme []string  `sep:"," help:"Schemes to run (default: all)."`
	Output string    `help:"Write a Markdown report to this file." type:"path"`
}

func (c *SensitivityCmd) Run(cli *CLI, ctx context.Context) error {
	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.stores.Close()

	_, base, err := e.resolve(c.Preset, 0, nil)
	if err != nil {
		return err
	}

	var schemes []domain.Scheme
	for _, s := range c.Scheme {
		parsed, err := domain.ParseScheme(s)
		if err != nil {
			return err
		}
		schemes = append(schemes, parsed)
	}

	points, err := e.orch.Sensitivity(ctx, base, c.Param, c.Values, schemes)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, reporting.RenderSensitivityTable(points))

	if c.Output != "" {
		report := &reporting.Report{GeneratedAt: time.Now().UTC(), Seed: e.orch.Seed(), Sensitivity: points}
		return os.WriteFile(c.Output, []byte(reporting.RenderMarkdown(report)), 0644)
	}
	return nil
}

// TrustCmd runs the trust threshold experiment.
type TrustCmd struct {
	Preset     string `help:"Base preset." default:"trust_lab"`
	Thresholds []int  `sep:"," default:"1,3,5,10,20" help:"Comma-separated trust thresholds."`
	Output     string `help:"Write a Markdown report to this file." type:"path"`
}

func (c *TrustCmd) Run(cli *CLI, ctx context.Context) error {
	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.stores.Close()

	_, base, err := e.resolve(c.Preset, 0, nil)
	if err != nil {
		return err
	}

	rows, err := e.orch.TrustExperiment(ctx, base, c.Thresholds)
	if err != nil {
		return err
	}

	report := &reporting.Report{GeneratedAt: time.Now().UTC(), Seed: e.orch.Seed()}
	report.AddTrust(rows)
	fmt.Fprint(stdout, reporting.RenderTrustTable(report.Trust))

	if c.Output != "" {
		return os.WriteFile(c.Output, []byte(reporting.RenderMarkdown(report)), 0644)
	}
	return nil
}

// VerifyCmd re-simulates stored runs.
type VerifyCmd struct {
	RunID string `arg:"" optional:"" name:"run-id" help:"Verify a single run (default: every stored run)."`
}

func (c *VerifyCmd) Run(cli *CLI, ctx context.Context) error {
	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.stores.Close()

	v := verification.NewDeterminismVerifier(verification.DeterminismVerifierOptions{
		RunStore:    e.stores.Runs,
		SampleStore: e.stores.Samples,
	})

	var results []verification.VerificationResult
	if c.RunID != "" {
		res, err := v.VerifyRun(ctx, c.RunID)
		if err != nil {
			return err
		}
		results = append(results, *res)
	} else {
		report, err := v.VerifyAll(ctx)
		if err != nil {
			return err
		}
		results = report.Results
	}

	divergent := 0
	for _, r := range results {
		status := "OK"
		if !r.Match {
			status = "DIVERGED"
			divergent++
		}
		fmt.Fprintf(stdout, "%-12s %-12s %-8s %s (%d samples)\n",
			idhash.ShortID(r.RunID), r.Preset, r.Scheme, status, r.SamplesChecked)
		for _, d := range r.Divergences {
			fmt.Fprintf(stdout, "    %s: stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
		}
	}
	fmt.Fprintf(stdout, "\n%d runs verified, %d diverged\n", len(results), divergent)

	if divergent > 0 {
		return fmt.Errorf("%d runs diverged", divergent)
	}
	return nil
}

// resolve picks the named preset, or the config file's simulation section
// when name is empty, then applies load and parameter overrides.
func (e *env) resolve(name string, load float64, params map[string]float64) (string, domain.SimulationConfig, error) {
	var cfg domain.SimulationConfig
	if name == "" {
		name = e.cfg.Simulation.Name()
		cfg = e.cfg.Simulation.Config
	} else {
		p, err := preset.Lookup(name)
		if err != nil {
			return "", cfg, err
		}
		cfg = p.Config
	}

	if load > 0 {
		cfg.LoadMultiplier = load
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		next, err := cfg.WithParam(k, params[k])
		if err != nil {
			return "", cfg, err
		}
		cfg = next
	}

	if err := cfg.Validate(); err != nil {
		return "", cfg, err
	}
	return name, cfg, nil
}

// writeReport writes the Markdown report, scheme CSV and decision gate.
func writeReport(dir string, report *reporting.Report, results []*decision.DecisionResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		"report.md":   reporting.RenderMarkdown(report),
		"schemes.csv": reporting.RenderCSV(report.Rows()),
		"decision.md": decision.RenderMarkdown(results),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
