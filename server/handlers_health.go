package server

import (
	"encoding/json"
	"net/http"

	"github.com/onnwee/al/session"
)

// Handlers serves the health routes.
type Handlers struct {
	status Status
}

// HandleHealthz responds to liveness probes. The process is alive whenever
// it can answer.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz is ready only while the bot is joined to its channel.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	phase := h.status.Phase()
	w.Header().Set("Content-Type", "application/json")
	if phase != session.PhaseJoined {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready", "phase": phase.String()})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready", "phase": phase.String()})
}

// HandleStatus reports the current nick and phase.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"nick":  h.status.Nick(),
		"phase": h.status.Phase().String(),
	})
}
