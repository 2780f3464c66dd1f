package main

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"x402-lab/internal/decision"
	"x402-lab/internal/domain"
	"x402-lab/internal/logging"
	"x402-lab/internal/observability"
	"x402-lab/internal/orchestrator"
	"x402-lab/internal/preset"
	"x402-lab/internal/reporting"
	"x402-lab/internal/storage/backends"
)

// uptimeTick is how often the uptime counter advances.
const uptimeTick = 15 * time.Second

// Server holds the service state shared by handlers and the scheduler.
type Server struct {
	orch            *orchestrator.Orchestrator
	stores          *backends.Stores
	presets         []preset.Preset
	compareInterval time.Duration
	log             logrus.FieldLogger
	metrics         *observability.Metrics
	now             func() time.Time
	lifetime        context.Context

	// State
	mu             sync.Mutex
	started        time.Time
	lastCompare    time.Time
	compareRuns    int
	compareRunning bool
	lastDecision   decision.Decision
	lastError      string
}

// ServerOptions contains configuration for creating a Server.
type ServerOptions struct {
	Orchestrator    *orchestrator.Orchestrator
	Stores          *backends.Stores
	Presets         []preset.Preset
	CompareInterval time.Duration // 0 disables the scheduler
	Logger          logrus.FieldLogger
	Metrics         *observability.Metrics
	Now             func() time.Time
	// Context bounds work started by handlers; nil means never cancelled.
	Context context.Context
}

// NewServer creates a new Server.
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		orch:            opts.Orchestrator,
		stores:          opts.Stores,
		presets:         opts.Presets,
		compareInterval: opts.CompareInterval,
		log:             opts.Logger,
		metrics:         opts.Metrics,
		now:             opts.Now,
		lifetime:        opts.Context,
	}
	if s.lifetime == nil {
		s.lifetime = context.Background()
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.metrics == nil {
		s.metrics = observability.DefaultMetrics
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.started = s.now()
	return s
}

// Run drives the comparison scheduler and the uptime counter until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	uptime := time.NewTicker(uptimeTick)
	defer uptime.Stop()

	var compare <-chan time.Time
	if s.compareInterval > 0 {
		s.log.WithField("interval", s.compareInterval).Info("starting comparison scheduler")

		// Run immediately on start
		s.runCompare(ctx)

		ticker := time.NewTicker(s.compareInterval)
		defer ticker.Stop()
		compare = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-uptime.C:
			s.metrics.UptimeSeconds.Add(uptimeTick.Seconds())
		case <-compare:
			s.runCompare(ctx)
		}
	}
}

// runCompare compares every configured preset and evaluates the decision gate.
// Overlapping runs are skipped.
func (s *Server) runCompare(ctx context.Context) {
	s.mu.Lock()
	if s.compareRunning {
		s.mu.Unlock()
		s.log.Info("comparison already running, skipping")
		return
	}
	s.compareRunning = true
	s.mu.Unlock()

	start := time.Now()
	cmps, err := s.orch.CompareAll(ctx, s.presets, 0)

	var verdict decision.Decision
	if err == nil {
		verdict, err = s.evaluate(cmps)
	}

	s.mu.Lock()
	s.compareRunning = false
	s.lastCompare = s.now()
	s.compareRuns++
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.lastDecision = verdict
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("scheduled comparison failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"presets":  len(cmps),
		"decision": verdict,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("scheduled comparison complete")
}

// evaluate builds a report from the comparisons and runs the decision gate.
func (s *Server) evaluate(cmps []*domain.Comparison) (decision.Decision, error) {
	report := reporting.FromComparisons(cmps, s.orch.Seed(), s.now())
	eval, err := decision.NewEvaluator(decision.DefaultThresholds())
	if err != nil {
		return "", err
	}
	s.metrics.ReportsGenerated.Inc()
	return decision.Overall(eval.EvaluateAll(decision.Build(report))), nil
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string            `json:"status"`
	Uptime          string            `json:"uptime"`
	Started         time.Time         `json:"started"`
	Seed            int64             `json:"seed"`
	Presets         []string          `json:"presets"`
	Backends        map[string]string `json:"backends"`
	CompareInterval string            `json:"compare_interval"`
	LastCompare     time.Time         `json:"last_compare,omitempty"`
	CompareRuns     int               `json:"compare_runs"`
	CompareRunning  bool              `json:"compare_running"`
	LastDecision    string            `json:"last_decision,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
}

func (s *Server) status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.presets))
	for i, p := range s.presets {
		names[i] = p.Name
	}

	resp := StatusResponse{
		Status:          "running",
		Uptime:          s.now().Sub(s.started).Round(time.Second).String(),
		Started:         s.started,
		Seed:            s.orch.Seed(),
		Presets:         names,
		CompareInterval: s.compareInterval.String(),
		LastCompare:     s.lastCompare,
		CompareRuns:     s.compareRuns,
		CompareRunning:  s.compareRunning,
		LastDecision:    string(s.lastDecision),
		LastError:       s.lastError,
	}
	if s.stores != nil {
		resp.Backends = map[string]string{
			"runs":    s.stores.RunBackend,
			"samples": s.stores.SampleBackend,
			"cache":   s.stores.CacheBackend,
		}
	}
	return resp
}
