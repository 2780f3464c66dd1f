// Package stream defines the /stream websocket protocol and a client for it.
package stream

import "x402-lab/internal/domain"

// Message types.
const (
	TypeResult = "result" // one scheme finished
	TypeDone   = "done"   // every scheme finished; Decision is set
	TypeError  = "error"  // comparison aborted; Error is set
)

// Run is one scheme run.
type Run struct {
	RunID   string                   `json:"run_id"`
	ShortID string                   `json:"short_id"`
	Cached  bool                     `json:"cached"`
	Result  *domain.SimulationResult `json:"result"`
}

// Message is one websocket frame.
type Message struct {
	Type     string `json:"type"`
	Preset   string `json:"preset"`
	Run      *Run   `json:"run,omitempty"`
	Decision string `json:"decision,omitempty"`
	Error    string `json:"error,omitempty"`
}
