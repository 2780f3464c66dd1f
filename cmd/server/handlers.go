package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"x402-lab/internal/decision"
	"x402-lab/internal/domain"
	"x402-lab/internal/idhash"
	"x402-lab/internal/observability"
	"x402-lab/internal/orchestrator"
	"x402-lab/internal/preset"
	"x402-lab/internal/reporting"
	"x402-lab/internal/stream"
)

// streamWriteTimeout bounds each websocket write.
const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /presets", s.handlePresets)
	mux.HandleFunc("POST /simulate", s.handleSimulate)
	mux.HandleFunc("GET /stream", s.handleStream)
	mux.HandleFunc("GET /report", s.handleReport)

	return mux
}

// SimulateRequest is the body of POST /simulate.
type SimulateRequest struct {
	Preset string             `json:"preset"`           // empty means the default config
	Scheme string             `json:"scheme,omitempty"` // empty runs every scheme
	Load   float64            `json:"load,omitempty"`   // overrides load_multiplier when > 0
	Params map[string]float64 `json:"params,omitempty"` // named parameter overrides
}

// SimulateResponse is the JSON response for POST /simulate.
type SimulateResponse struct {
	Preset string                  `json:"preset"`
	Config domain.SimulationConfig `json:"config"`
	Runs   []stream.Run            `json:"runs"`
}

// PresetResponse describes one catalog entry.
type PresetResponse struct {
	Name        string                  `json:"name"`
	Kind        string                  `json:"kind"`
	Description string                  `json:"description"`
	Config      domain.SimulationConfig `json:"config"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	all := preset.All()
	out := make([]PresetResponse, len(all))
	for i, p := range all {
		out[i] = PresetResponse{
			Name:        p.Name,
			Kind:        string(p.Kind),
			Description: p.Description,
			Config:      p.Config,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	name, cfg, err := resolveConfig(req.Preset, req.Load, req.Params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := SimulateResponse{Preset: name, Config: cfg}

	if req.Scheme != "" {
		scheme, err := domain.ParseScheme(req.Scheme)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		run, err := s.orch.Simulate(r.Context(), name, cfg, scheme)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		resp.Runs = append(resp.Runs, newRun(run))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	_, err = s.orch.CompareStream(r.Context(), name, cfg, func(run *orchestrator.SchemeRun) error {
		resp.Runs = append(resp.Runs, newRun(run))
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStream upgrades to a websocket and pushes one message per scheme
// as it completes, then a "done" message carrying the preset's decision.
// Query: preset, load.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var load float64
	if v := r.URL.Query().Get("load"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("load: %w", err))
			return
		}
		load = parsed
	}

	name, cfg, err := resolveConfig(r.URL.Query().Get("preset"), load, nil)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	s.metrics.StreamClients.Inc()
	defer s.metrics.StreamClients.Dec()

	// Stops on server shutdown or when the request ends
	ctx, cancel := context.WithCancel(s.lifetime)
	defer cancel()
	stop := context.AfterFunc(r.Context(), cancel)
	defer stop()

	// Reader detects client disconnects
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg stream.Message) error {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(msg)
	}

	cmp, err := s.orch.CompareStream(ctx, name, cfg, func(run *orchestrator.SchemeRun) error {
		rr := newRun(run)
		return send(stream.Message{Type: stream.TypeResult, Preset: name, Run: &rr})
	})
	if err != nil {
		s.log.WithError(err).WithField("preset", name).Warn("stream comparison")
		send(stream.Message{Type: stream.TypeError, Preset: name, Error: err.Error()})
		return
	}

	verdict, err := s.evaluate([]*domain.Comparison{cmp})
	if err != nil {
		send(stream.Message{Type: stream.TypeError, Preset: name, Error: err.Error()})
		return
	}
	send(stream.Message{Type: stream.TypeDone, Preset: name, Decision: string(verdict)})

	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// handleReport renders stored runs and the decision gate as Markdown.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	gen := reporting.NewGenerator(s.stores.Runs, s.stores.Samples).WithClock(s.now)
	report, err := gen.Generate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	eval, err := decision.NewEvaluator(decision.DefaultThresholds())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	results := eval.EvaluateAll(decision.Build(report))
	s.metrics.ReportsGenerated.Inc()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(reporting.RenderMarkdown(report)))
	w.Write([]byte("\n"))
	w.Write([]byte(decision.RenderMarkdown(results)))
}

// resolveConfig starts from the named preset (or the defaults) and applies
// load and parameter overrides in name order.
func resolveConfig(name string, load float64, params map[string]float64) (string, domain.SimulationConfig, error) {
	cfg := domain.DefaultConfig()
	if name == "" {
		name = "custom"
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

func newRun(run *orchestrator.SchemeRun) stream.Run {
	return stream.Run{
		RunID:   run.RunID,
		ShortID: idhash.ShortID(run.RunID),
		Cached:  run.Cached,
		Result:  run.Result,
	}
}

// statusFor maps input errors to 400, everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, preset.ErrUnknownPreset),
		errors.Is(err, domain.ErrUnknownScheme),
		errors.Is(err, domain.ErrUnknownParameter),
		errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
