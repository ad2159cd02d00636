package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/onnwee/nbody-sim/internal/apierr"
	"github.com/onnwee/nbody-sim/internal/session"
	"github.com/onnwee/nbody-sim/internal/sim"
)

// BodyHandler serves per-session body CRUD.
type BodyHandler struct {
	manager   *session.Manager
	maxBodies int
}

// NewBodyHandler creates a body handler.
func NewBodyHandler(m *session.Manager, maxBodies int) *BodyHandler {
	return &BodyHandler{manager: m, maxBodies: maxBodies}
}

func (h *BodyHandler) lookup(w http.ResponseWriter, r *http.Request) *session.Session {
	id := mux.Vars(r)["id"]
	s, err := h.manager.Get(id)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.SessionNotFound(id))
		return nil
	}
	return s
}

func parseBodyID(w http.ResponseWriter, r *http.Request) (sim.BodyID, bool) {
	raw := mux.Vars(r)["bodyID"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierr.WriteErrorWithContext(w, r,
			apierr.ValidationInvalidValue("bodyID", "body ID must be an unsigned integer"))
		return 0, false
	}
	return sim.BodyID(id), true
}

func validateSpec(spec session.BodySpec) *apierr.Error {
	if spec.Mass <= 0 {
		return apierr.ValidationInvalidValue("mass", "mass must be positive")
	}
	if math.IsNaN(spec.Mass) || math.IsInf(spec.Mass, 0) {
		return apierr.ValidationInvalidValue("mass", "mass must be finite")
	}
	if !spec.Pos.IsFinite() {
		return apierr.ValidationInvalidValue("pos", "position must be finite")
	}
	if !spec.Vel.IsFinite() {
		return apierr.ValidationInvalidValue("vel", "velocity must be finite")
	}
	if spec.Radius < 0 || math.IsNaN(spec.Radius) || math.IsInf(spec.Radius, 0) {
		return apierr.ValidationInvalidValue("radius", "radius must be non-negative and finite")
	}
	return nil
}

// List handles GET /sessions/{id}/bodies.
func (h *BodyHandler) List(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bodies": s.Bodies()})
}

// Get handles GET /sessions/{id}/bodies/{bodyID}.
func (h *BodyHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	id, ok := parseBodyID(w, r)
	if !ok {
		return
	}
	b, err := s.Body(id)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.BodyNotFound(uint64(id)))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Create handles POST /sessions/{id}/bodies.
func (h *BodyHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}

	var spec session.BodySpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}
	if verr := validateSpec(spec); verr != nil {
		apierr.WriteErrorWithContext(w, r, verr)
		return
	}

	id, err := s.AddBody(spec)
	if err != nil {
		if err == session.ErrBodyLimit {
			apierr.WriteErrorWithContext(w, r, apierr.BodyLimit(h.maxBodies))
			return
		}
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		return
	}

	b, _ := s.Body(id)
	writeJSON(w, http.StatusCreated, b)
}

// Update handles PUT /sessions/{id}/bodies/{bodyID}.
func (h *BodyHandler) Update(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	id, ok := parseBodyID(w, r)
	if !ok {
		return
	}

	var spec session.BodySpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}
	if verr := validateSpec(spec); verr != nil {
		apierr.WriteErrorWithContext(w, r, verr)
		return
	}

	if err := s.UpdateBody(id, spec); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.BodyNotFound(uint64(id)))
		return
	}
	b, _ := s.Body(id)
	writeJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /sessions/{id}/bodies/{bodyID}.
func (h *BodyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	id, ok := parseBodyID(w, r)
	if !ok {
		return
	}
	if err := s.RemoveBody(id); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.BodyNotFound(uint64(id)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
