// Package session manages independent simulation sessions, each with its
// own world, step parameters, and run state.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/onnwee/nbody-sim/internal/errorreporting"
	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/physics"
	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

var (
	// ErrBodyNotFound is returned when a body ID does not exist in the session.
	ErrBodyNotFound = errors.New("body not found")
	// ErrBodyLimit is returned when adding a body would exceed the session limit.
	ErrBodyLimit = errors.New("body limit reached")
)

// Session is one independently stepped simulation.
type Session struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	mu         sync.Mutex
	world      *sim.World
	params     sim.StepParams
	stepCount  uint64
	rev        uint64
	running    bool
	lastActive time.Time
	maxBodies  int
}

// BodySpec is the caller-facing shape for creating or updating a body.
type BodySpec struct {
	Pos    vec.V2  `json:"pos"`
	Vel    vec.V2  `json:"vel"`
	Mass   float64 `json:"mass"`
	Radius float64 `json:"radius,omitempty"`
	Pinned bool    `json:"pinned"`
}

// Info is a point-in-time summary of a session.
type Info struct {
	ID        string         `json:"id"`
	Scenario  string         `json:"scenario,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	StepCount uint64         `json:"step_count"`
	Running   bool           `json:"running"`
	Bodies    int            `json:"bodies"`
	Params    sim.StepParams `json:"params"`
}

func newSession(id string, params sim.StepParams, maxBodies int) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		world:      sim.NewWorld(),
		params:     params,
		lastActive: now,
		maxBodies:  maxBodies,
	}
}

// Info returns a snapshot of the session's state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.ID,
		Scenario:  s.Scenario,
		CreatedAt: s.CreatedAt,
		StepCount: s.stepCount,
		Running:   s.running,
		Bodies:    s.world.Len(),
		Params:    s.params,
	}
}

// Params returns the session's current step parameters.
func (s *Session) Params() sim.StepParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams replaces the session's step parameters.
func (s *Session) SetParams(p sim.StepParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	s.rev++
	s.lastActive = time.Now()
	return nil
}

// Step advances the simulation by one logical frame. If the resulting
// state is no longer finite the session pauses itself so the poison
// does not spread further.
func (s *Session) Step() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepLocked()
	return Info{
		ID:        s.ID,
		Scenario:  s.Scenario,
		CreatedAt: s.CreatedAt,
		StepCount: s.stepCount,
		Running:   s.running,
		Bodies:    s.world.Len(),
		Params:    s.params,
	}
}

func (s *Session) stepLocked() {
	start := time.Now()
	physics.Step(s.world, s.params)
	s.stepCount++
	s.rev++
	s.lastActive = time.Now()

	metrics.SimStepsTotal.WithLabelValues(string(s.params.Integrator)).Inc()
	metrics.SimStepDuration.WithLabelValues(string(s.params.Integrator)).
		Observe(time.Since(start).Seconds())

	diag := physics.Compute(s.world, s.params.G, s.params.Eps2())
	if !diag.OK {
		metrics.SimNonFiniteDiagnostics.Inc()
		if s.running {
			s.running = false
			metrics.SessionAutoPauses.Inc()
			logger.Warn("session auto-paused on non-finite state",
				"session_id", s.ID, "step", s.stepCount)
			errorreporting.CaptureErrorWithContext(
				errors.New("simulation state became non-finite"),
				map[string]string{"session_id": s.ID},
				map[string]interface{}{"step": s.stepCount})
		}
	}
}

// Running reports whether the session is advancing automatically.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run marks the session for automatic stepping by the runner.
func (s *Session) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.lastActive = time.Now()
}

// Pause stops automatic stepping.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastActive = time.Now()
}

// Reset clears all bodies and the step counter, keeping parameters.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = sim.NewWorld()
	s.stepCount = 0
	s.rev++
	s.running = false
	s.Scenario = ""
	s.lastActive = time.Now()
}

// StepDT advances one frame with an explicit dt, leaving the configured
// DT untouched for future steps.
func (s *Session) StepDT(dt float64) Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.params.DT
	s.params.DT = dt
	s.stepLocked()
	s.params.DT = saved
	return Info{
		ID:        s.ID,
		Scenario:  s.Scenario,
		CreatedAt: s.CreatedAt,
		StepCount: s.stepCount,
		Running:   s.running,
		Bodies:    s.world.Len(),
		Params:    s.params,
	}
}

// Revision is a counter bumped on every state mutation. Cache layers key
// responses on it so stale snapshots are never served.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// StepCount returns the number of logical frames stepped so far.
func (s *Session) StepCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepCount
}

// Bodies returns copies of all bodies in the session.
func (s *Session) Bodies() []sim.Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.world.Bodies()
	out := make([]sim.Body, len(src))
	for i, b := range src {
		out[i] = *b
	}
	return out
}

// Body returns a copy of one body by ID.
func (s *Session) Body(id sim.BodyID) (sim.Body, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.world.Get(id)
	if b == nil {
		return sim.Body{}, ErrBodyNotFound
	}
	return *b, nil
}

// AddBody adds a body and returns its assigned ID.
func (s *Session) AddBody(spec BodySpec) (sim.BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxBodies > 0 && s.world.Len() >= s.maxBodies {
		return 0, ErrBodyLimit
	}
	id := s.world.Add(sim.Body{
		Pos:    spec.Pos,
		Vel:    spec.Vel,
		Mass:   spec.Mass,
		Radius: spec.Radius,
		Pinned: spec.Pinned,
	})
	s.rev++
	s.lastActive = time.Now()
	return id, nil
}

// UpdateBody overwrites the mutable fields of an existing body.
func (s *Session) UpdateBody(id sim.BodyID, spec BodySpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.world.Get(id)
	if b == nil {
		return ErrBodyNotFound
	}
	b.Pos = spec.Pos
	b.Vel = spec.Vel
	b.Mass = spec.Mass
	b.Radius = spec.Radius
	b.Pinned = spec.Pinned
	s.rev++
	s.lastActive = time.Now()
	return nil
}

// RemoveBody deletes a body by ID.
func (s *Session) RemoveBody(id sim.BodyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.world.Get(id) == nil {
		return ErrBodyNotFound
	}
	s.world.Remove(id)
	s.rev++
	s.lastActive = time.Now()
	return nil
}

// Diagnostics computes conservation diagnostics for the current state.
func (s *Session) Diagnostics() physics.Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return physics.Compute(s.world, s.params.G, s.params.Eps2())
}

// BodyAccel holds a body's current acceleration.
type BodyAccel struct {
	ID   sim.BodyID `json:"id"`
	Acc  vec.V2     `json:"acc"`
	Mass float64    `json:"mass"`
}

// Forces recomputes gravitational accelerations without advancing time
// and returns them per body.
func (s *Session) Forces() []BodyAccel {
	s.mu.Lock()
	defer s.mu.Unlock()
	physics.ComputeAccelerations(s.world, s.params)
	src := s.world.Bodies()
	out := make([]BodyAccel, len(src))
	for i, b := range src {
		out[i] = BodyAccel{ID: b.ID, Acc: b.Acc, Mass: b.Mass}
	}
	return out
}

// LoadScenario resets the world and applies the named scenario via fn.
// The scenario builder may adjust step parameters.
func (s *Session) LoadScenario(name string, fn func(w *sim.World, p *sim.StepParams) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := sim.NewWorld()
	p := s.params
	if err := fn(w, &p); err != nil {
		return err
	}
	s.world = w
	s.params = p
	s.stepCount = 0
	s.rev++
	s.Scenario = name
	s.lastActive = time.Now()
	return nil
}

// idleSince reports the last time the session was touched.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func generateSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// A constant fallback would collide on the next call and trap
		// Manager.Create in its uniqueness retry loop.
		panic(fmt.Sprintf("session id generation: %v", err))
	}
	return hex.EncodeToString(b)
}
