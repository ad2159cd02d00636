package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/onnwee/nbody-sim/internal/apierr"
	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/scenario"
	"github.com/onnwee/nbody-sim/internal/session"
	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/tracing"
)

// SessionHandler serves the session lifecycle endpoints.
type SessionHandler struct {
	manager     *session.Manager
	maxSessions int
	maxBodies   int
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(m *session.Manager, maxSessions, maxBodies int) *SessionHandler {
	return &SessionHandler{manager: m, maxSessions: maxSessions, maxBodies: maxBodies}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// lookup resolves the {id} path variable to a session, writing the
// error response itself when the session does not exist.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) *session.Session {
	id := mux.Vars(r)["id"]
	s, err := h.manager.Get(id)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SessionNotFound(id))
		return nil
	}
	return s
}

type createSessionRequest struct {
	Scenario string             `json:"scenario,omitempty"`
	Params   json.RawMessage    `json:"params,omitempty"`
	Bodies   []session.BodySpec `json:"bodies,omitempty"`
}

// Create handles POST /sessions. The optional body seeds the session
// with a scenario, parameter overrides, and initial bodies.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
			return
		}
	}

	s, err := h.manager.Create()
	if err != nil {
		if err == session.ErrSessionLimit {
			apierr.WriteErrorWithContext(w, r, apierr.SessionLimit(h.maxSessions))
			return
		}
		logger.ErrorContext(r.Context(), "failed to create session", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		return
	}

	if aerr := h.seed(s, req); aerr != nil {
		_ = h.manager.Delete(s.ID)
		apierr.WriteErrorWithContext(w, r, aerr)
		return
	}
	writeJSON(w, http.StatusCreated, s.Info())
}

// seed applies the optional creation payload: scenario first, then
// parameter overrides, then extra bodies.
func (h *SessionHandler) seed(s *session.Session, req createSessionRequest) *apierr.Error {
	if req.Scenario != "" {
		err := s.LoadScenario(req.Scenario, func(world *sim.World, p *sim.StepParams) error {
			return scenario.Apply(req.Scenario, world, p)
		})
		if err != nil {
			if errors.Is(err, scenario.ErrUnknown) {
				return apierr.UnknownScenario(req.Scenario)
			}
			return apierr.SystemInternal("")
		}
	}

	if len(req.Params) > 0 {
		params := s.Params()
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return apierr.ValidationInvalidJSON()
		}
		if err := s.SetParams(params); err != nil {
			return apierr.ValidationInvalidValue("params", err.Error())
		}
	}

	for _, spec := range req.Bodies {
		if verr := validateSpec(spec); verr != nil {
			return verr
		}
		if _, err := s.AddBody(spec); err != nil {
			if err == session.ErrBodyLimit {
				return apierr.BodyLimit(h.maxBodies)
			}
			return apierr.SystemInternal("")
		}
	}
	return nil
}

// List handles GET /sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": h.manager.List()})
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.Info())
}

// Delete handles DELETE /sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.manager.Delete(id); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SessionNotFound(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stepRequest struct {
	DT *float64 `json:"dt,omitempty"`
}

// Step handles POST /sessions/{id}/step: advance one logical frame,
// with an optional one-shot dt override in the body.
func (h *SessionHandler) Step(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}

	var req stepRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
			return
		}
	}

	_, span := tracing.StartSpan(r.Context(), "session.step")
	defer span.End()

	var info session.Info
	if req.DT != nil {
		dt := *req.DT
		if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
			apierr.WriteErrorWithContext(w, r,
				apierr.ValidationInvalidValue("dt", "dt must be positive and finite"))
			return
		}
		info = s.StepDT(dt)
	} else {
		info = s.Step()
	}
	span.SetAttributes(tracing.SessionAttrs(info.ID, info.StepCount, info.Bodies)...)
	writeJSON(w, http.StatusOK, info)
}

// Run handles POST /sessions/{id}/run: start automatic stepping.
func (h *SessionHandler) Run(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	diag := s.Diagnostics()
	if !diag.OK {
		apierr.WriteErrorWithContext(w, r, apierr.SimNotFinite("cannot run a session whose state is non-finite; reset it first"))
		return
	}
	s.Run()
	writeJSON(w, http.StatusOK, s.Info())
}

// Pause handles POST /sessions/{id}/pause.
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	s.Pause()
	writeJSON(w, http.StatusOK, s.Info())
}

// Reset handles POST /sessions/{id}/reset: clear bodies and counters.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, s.Info())
}

// GetParams handles GET /sessions/{id}/params.
func (h *SessionHandler) GetParams(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.Params())
}

// UpdateParams handles PUT /sessions/{id}/params. The body is a full
// parameter block; partial updates start from the current values.
func (h *SessionHandler) UpdateParams(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}

	params := s.Params()
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}
	if err := s.SetParams(params); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("params", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, s.Params())
}
