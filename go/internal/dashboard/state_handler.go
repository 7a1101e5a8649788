package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mktsim/tickops/go/internal/countdown"
)

// StateHandler serves the countdown state over plain REST for clients
// that do not hold a WebSocket open.
type StateHandler struct {
	tracker *countdown.Tracker
	manager *ConnectionManager
}

// NewStateHandler creates a state handler.
func NewStateHandler(tracker *countdown.Tracker, manager *ConnectionManager) *StateHandler {
	return &StateHandler{tracker: tracker, manager: manager}
}

// countdownResponse is the GET /api/countdown body.
type countdownResponse struct {
	countdown.Snapshot
	Display     string `json:"display"`
	Connections int    `json:"connections"`
}

// HandleGetCountdown handles GET /api/countdown.
func (h *StateHandler) HandleGetCountdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.tracker.Snapshot()
	resp := countdownResponse{
		Snapshot:    snap,
		Display:     snap.Format(),
		Connections: h.manager.ConnectionCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode countdown response")
	}
}

// HandleHealthz handles GET /api/healthz.
func (h *StateHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
