package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/onnwee/nbody-sim/internal/apierr"
	"github.com/onnwee/nbody-sim/internal/cache"
	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/middleware"
	"github.com/onnwee/nbody-sim/internal/scenario"
	"github.com/onnwee/nbody-sim/internal/session"
	"github.com/onnwee/nbody-sim/internal/sim"
)

// ScenarioHandler serves the scenario catalog and loads presets into sessions.
type ScenarioHandler struct {
	manager   *session.Manager
	cache     cache.Cache
	sanitizer *middleware.SanitizeInput
}

// NewScenarioHandler creates a scenario handler.
func NewScenarioHandler(m *session.Manager, c cache.Cache) *ScenarioHandler {
	return &ScenarioHandler{
		manager:   m,
		cache:     c,
		sanitizer: &middleware.SanitizeInput{},
	}
}

// List handles GET /scenarios. The catalog is static, so the serialized
// response is cached.
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	cacheKey := "scenarios:list"
	if cached, found := h.cache.Get(cacheKey); found {
		metrics.APICacheHits.WithLabelValues("scenarios").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(cached)
		return
	}
	metrics.APICacheMisses.WithLabelValues("scenarios").Inc()

	data, err := json.Marshal(map[string]any{"scenarios": scenario.List()})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to marshal scenario list", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		return
	}

	h.cache.Set(cacheKey, data, 5*time.Minute)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(data)
}

type loadScenarioRequest struct {
	Name string `json:"name"`
}

// Load handles POST /sessions/{id}/scenario: replace the session's world
// with a named preset.
func (h *ScenarioHandler) Load(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.manager.Get(id)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SessionNotFound(id))
		return
	}

	var req loadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}

	name := h.sanitizer.SanitizeString(req.Name, 64)
	if err := h.sanitizer.ValidateScenarioName(name); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("name", err.Error()))
		return
	}

	err = s.LoadScenario(name, func(world *sim.World, p *sim.StepParams) error {
		return scenario.Apply(name, world, p)
	})
	if err != nil {
		if errors.Is(err, scenario.ErrUnknown) {
			apierr.WriteErrorWithContext(w, r, apierr.UnknownScenario(name))
			return
		}
		logger.ErrorContext(r.Context(), "failed to load scenario",
			"session_id", id, "scenario", name, "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		return
	}

	logger.InfoContext(r.Context(), "scenario loaded", "session_id", id, "scenario", name)
	writeJSON(w, http.StatusOK, s.Info())
}
