// Package main runs the HTTP service:
// - /simulate and /stream run comparisons on demand
// - an optional scheduler reruns the configured presets
// - /health, /status and /metrics expose service state
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"x402-lab/internal/config"
	"x402-lab/internal/logging"
	"x402-lab/internal/orchestrator"
	"x402-lab/internal/preset"
	"x402-lab/internal/storage/backends"
)

// CLI defines the command-line interface.
type CLI struct {
	Config    string        `short:"c" help:"Path to config file." type:"path"`
	Addr      string        `help:"Listen address (overrides server.addr)."`
	Interval  time.Duration `help:"Scheduled comparison interval (overrides server.compare_interval)."`
	UseMemory bool          `name:"use-memory" help:"Use in-memory storage regardless of configured DSNs."`
	LogLevel  string        `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFormat string        `name:"log-format" help:"Log format (text, json)."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("server"),
		kong.Description("x402 scheme comparison service."),
		kong.UsageOnError(),
	)

	if err := run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	cli.apply(cfg)

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	presets, err := preset.Resolve(cfg.Server.Presets)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := backends.Open(ctx, cfg.BackendOptions())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	logger.WithFields(logrus.Fields{
		"runs":    stores.RunBackend,
		"samples": stores.SampleBackend,
		"cache":   stores.CacheBackend,
	}).Info("storage ready")

	orch := orchestrator.New(orchestrator.Options{
		RunStore:      stores.Runs,
		SampleStore:   stores.Samples,
		Cache:         stores.Cache,
		RunBackend:    stores.RunBackend,
		SampleBackend: stores.SampleBackend,
		Seed:          cfg.Seed,
		Logger:        logger,
	})

	srv := NewServer(ServerOptions{
		Orchestrator:    orch,
		Stores:          stores,
		Presets:         presets,
		CompareInterval: cfg.Server.CompareInterval,
		Logger:          logger,
		Context:         ctx,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("addr", httpSrv.Addr).Info("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("scheduler: %w", err)
		}
	}()

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")
	case err = <-errCh:
		logger.WithError(err).Error("server failed")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		logger.WithError(serr).Warn("http shutdown")
	}

	logger.Info("shutdown complete")
	return err
}

// apply layers command-line flags over the loaded config.
func (cli *CLI) apply(cfg *config.Config) {
	if cli.Addr != "" {
		cfg.Server.Addr = cli.Addr
	}
	if cli.Interval > 0 {
		cfg.Server.CompareInterval = cli.Interval
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
}
