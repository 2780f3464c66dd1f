// Command report renders stored simulation runs as a Markdown report,
// a scheme CSV and a decision gate.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"x402-lab/internal/config"
	"x402-lab/internal/decision"
	"x402-lab/internal/logging"
	"x402-lab/internal/observability"
	"x402-lab/internal/orchestrator"
	"x402-lab/internal/preset"
	"x402-lab/internal/reporting"
	"x402-lab/internal/storage/backends"
	"x402-lab/internal/verification"
)

// Output file names.
const (
	reportFile   = "REPORT.md"
	csvFile      = "SCHEMES.csv"
	decisionFile = "DECISION_GATE.md"
)

// CLI defines the command-line interface.
type CLI struct {
	Config    string   `short:"c" help:"Path to config file." type:"path"`
	OutputDir string   `name:"output-dir" default:"docs" help:"Output directory for generated files." type:"path"`
	Preset    []string `help:"Only these presets (default: every stored preset)."`
	Simulate  bool     `help:"Compare the presets before reporting (\"all\" when --preset is empty)."`
	Verify    bool     `help:"Re-simulate every stored run and fail on divergence."`
	Timestamp string   `help:"Fixed generation time (RFC 3339) for reproducible output."`
	UseMemory bool     `name:"use-memory" help:"Use in-memory storage regardless of configured DSNs."`
	LogLevel  string   `name:"log-level" help:"Log level (debug, info, warn, error)."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("report"),
		kong.Description("Generate scheme comparison reports from stored runs."),
		kong.UsageOnError(),
	)

	if err := run(context.Background(), &cli, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cli *CLI, out io.Writer) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.UseMemory {
		cfg.Storage.UseMemory = true
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if cli.Timestamp != "" {
		now, err = time.Parse(time.RFC3339, cli.Timestamp)
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
	}

	stores, err := backends.Open(ctx, cfg.BackendOptions())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	if cli.Simulate {
		if err := simulate(ctx, cli, cfg, stores, logger); err != nil {
			return err
		}
	}

	// Generate report
	gen := reporting.NewGenerator(stores.Runs, stores.Samples).WithClock(func() time.Time { return now })
	var report *reporting.Report
	if len(cli.Preset) > 0 && !(len(cli.Preset) == 1 && cli.Preset[0] == "all") {
		report, err = gen.GenerateForPresets(ctx, cli.Preset)
	} else {
		report, err = gen.Generate(ctx)
	}
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	eval, err := decision.NewEvaluator(decision.DefaultThresholds())
	if err != nil {
		return err
	}
	results := eval.EvaluateAll(decision.Build(report))

	if err := os.MkdirAll(cli.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := []struct {
		name    string
		content string
	}{
		{reportFile, reporting.RenderMarkdown(report)},
		{csvFile, reporting.RenderCSV(report.Rows())},
		{decisionFile, decision.RenderMarkdown(results)},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(cli.OutputDir, f.name), []byte(f.content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	observability.RecordReportGenerated()

	fmt.Fprintln(out, "Report generated successfully:")
	for _, f := range files {
		fmt.Fprintf(out, "  - %s\n", filepath.Join(cli.OutputDir, f.name))
	}
	fmt.Fprintf(out, "Decision: %s (%d presets)\n", decision.Overall(results), len(results))

	if cli.Verify {
		return verify(ctx, stores, out)
	}
	return nil
}

// simulate runs the requested presets so the report has data to render.
func simulate(ctx context.Context, cli *CLI, cfg *config.Config, stores *backends.Stores, logger *logrus.Logger) error {
	names := cli.Preset
	if len(names) == 0 {
		names = []string{"all"}
	}
	presets, err := preset.Resolve(names)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		RunStore:      stores.Runs,
		SampleStore:   stores.Samples,
		Cache:         stores.Cache,
		RunBackend:    stores.RunBackend,
		SampleBackend: stores.SampleBackend,
		Seed:          cfg.Seed,
		Logger:        logger,
	})
	_, err = orch.CompareAll(ctx, presets, 0)
	return err
}

func verify(ctx context.Context, stores *backends.Stores, out io.Writer) error {
	v := verification.NewDeterminismVerifier(verification.DeterminismVerifierOptions{
		RunStore:    stores.Runs,
		SampleStore: stores.Samples,
	})
	report, err := v.VerifyAll(ctx)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	fmt.Fprintf(out, "Verified %d runs: %d matched, %d diverged\n",
		report.TotalRuns, report.MatchedRuns, report.DivergentRuns)
	if report.DivergentRuns > 0 {
		return fmt.Errorf("%d runs diverged", report.DivergentRuns)
	}
	return nil
}
