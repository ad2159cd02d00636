package handlers

import (
	"net/http"
	"time"

	"github.com/onnwee/nbody-sim/internal/session"
)

// StatusHandler reports a service-level summary.
type StatusHandler struct {
	manager   *session.Manager
	startedAt time.Time
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(m *session.Manager) *StatusHandler {
	return &StatusHandler{manager: m, startedAt: time.Now()}
}

// Get handles GET /api/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	infos := h.manager.List()

	running := 0
	bodies := 0
	steps := uint64(0)
	for _, info := range infos {
		if info.Running {
			running++
		}
		bodies += info.Bodies
		steps += info.StepCount
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":   int64(time.Since(h.startedAt).Seconds()),
		"sessions":         len(infos),
		"sessions_running": running,
		"total_bodies":     bodies,
		"total_steps":      steps,
	})
}
