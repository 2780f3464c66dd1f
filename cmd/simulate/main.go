// Command simulate runs x402 scheme simulations from the command line.
//
// Usage:
//
//	simulate run --preset openai --scheme async
//	simulate compare --preset all --load 2
//	simulate sensitivity --param refill_rate --values 0.5,1,2,4
//	simulate trust --thresholds 1,3,5,10
//	simulate verify
//	simulate watch --server http://localhost:8080 --preset github
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"x402-lab/internal/config"
	"x402-lab/internal/logging"
	"x402-lab/internal/orchestrator"
	"x402-lab/internal/storage/backends"
)

// CLI defines the command-line interface.
type CLI struct {
	Run         RunCmd         `cmd:"" help:"Simulate one scheme."`
	Compare     CompareCmd     `cmd:"" help:"Compare every scheme for one or more presets."`
	Presets     PresetsCmd     `cmd:"" help:"List available presets."`
	Sensitivity SensitivityCmd `cmd:"" help:"Sweep one parameter across values."`
	Trust       TrustCmd       `cmd:"" help:"Compare sync and async across trust thresholds."`
	Verify      VerifyCmd      `cmd:"" help:"Re-simulate stored runs and check they reproduce."`
	Watch       WatchCmd       `cmd:"" help:"Stream a comparison from a running server."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	Seed      int64  `help:"Seed override (0 keeps the configured seed)."`
	UseMemory bool   `name:"use-memory" help:"Use in-memory storage regardless of configured DSNs."`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFormat string `name:"log-format" help:"Log format (text, json)."`
}

// env is the runtime shared by every subcommand.
type env struct {
	cfg    *config.Config
	log    *logrus.Logger
	stores *backends.Stores
	orch   *orchestrator.Orchestrator
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("simulate"),
		kong.Description("x402 micropayment rate-limit simulator."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	if err := kctx.Run(&cli); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, the logger and storage. The caller closes env.stores.
func (cli *CLI) setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.Seed > 0 {
		cfg.Seed = cli.Seed
	}
	if cli.UseMemory {
		cfg.Storage.UseMemory = true
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	stores, err := backends.Open(ctx, cfg.BackendOptions())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
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

	logger.WithFields(logrus.Fields{
		"seed":    orch.Seed(),
		"runs":    stores.RunBackend,
		"samples": stores.SampleBackend,
		"cache":   stores.CacheBackend,
	}).Debug("simulator ready")

	return &env{cfg: cfg, log: logger, stores: stores, orch: orch}, nil
}
