package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/onnwee/nbody-sim/internal/apierr"
	"github.com/onnwee/nbody-sim/internal/cache"
	"github.com/onnwee/nbody-sim/internal/db"
	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/session"
	"github.com/onnwee/nbody-sim/internal/tracing"
)

// DiagnosticsHandler serves conservation diagnostics, live and historical.
type DiagnosticsHandler struct {
	manager  *session.Manager
	cache    cache.Cache
	recorder *db.Recorder // nil when recording is disabled
}

// NewDiagnosticsHandler creates a diagnostics handler. recorder may be nil.
func NewDiagnosticsHandler(m *session.Manager, c cache.Cache, recorder *db.Recorder) *DiagnosticsHandler {
	return &DiagnosticsHandler{manager: m, cache: c, recorder: recorder}
}

// Get handles GET /sessions/{id}/diagnostics. The O(n^2) potential sum
// makes this the most expensive read, so responses are cached keyed on
// the session revision.
func (h *DiagnosticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.manager.Get(id)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SessionNotFound(id))
		return
	}

	cacheKey := fmt.Sprintf("diag:%s:%d", id, s.Revision())
	if cached, found := h.cache.Get(cacheKey); found {
		metrics.APICacheHits.WithLabelValues("diagnostics").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(cached)
		return
	}
	metrics.APICacheMisses.WithLabelValues("diagnostics").Inc()

	data, err := json.Marshal(s.Diagnostics())
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		return
	}
	h.cache.Set(cacheKey, data, 30*time.Second)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(data)
}

// History handles GET /sessions/{id}/diagnostics/history?limit=N.
// Returns 503 when recording is not configured.
func (h *DiagnosticsHandler) History(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.manager.Get(id); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SessionNotFound(id))
		return
	}

	if h.recorder == nil {
		apierr.WriteErrorWithContext(w, r,
			apierr.SystemUnavailable("diagnostics recording is not configured"))
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			apierr.WriteErrorWithContext(w, r,
				apierr.ValidationInvalidValue("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	rows, err := h.recorder.History(r.Context(), id, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to fetch diagnostics history",
			"session_id", id, "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemDatabase(""))
		return
	}
	if rows == nil {
		rows = []db.DiagnosticsRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": rows})
}

// Forces handles GET /sessions/{id}/forces: recompute per-body
// accelerations without advancing time.
func (h *DiagnosticsHandler) Forces(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.manager.Get(id)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SessionNotFound(id))
		return
	}
	_, span := tracing.StartSpan(r.Context(), "session.forces")
	defer span.End()
	info := s.Info()
	span.SetAttributes(tracing.SessionAttrs(info.ID, info.StepCount, info.Bodies)...)
	writeJSON(w, http.StatusOK, map[string]any{"forces": s.Forces()})
}
