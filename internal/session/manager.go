package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/sim"
)

var (
	// ErrNotFound is returned when a session ID does not exist.
	ErrNotFound = errors.New("session not found")
	// ErrSessionLimit is returned when creating a session would exceed the cap.
	ErrSessionLimit = errors.New("session limit reached")
)

// Manager owns the set of live sessions.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	maxBodies   int
	defaults    sim.StepParams
	idleTimeout time.Duration
}

// ManagerConfig bundles the session limits and defaults.
type ManagerConfig struct {
	MaxSessions int
	MaxBodies   int
	Defaults    sim.StepParams
	IdleTimeout time.Duration
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxSessions: cfg.MaxSessions,
		maxBodies:   cfg.MaxBodies,
		defaults:    cfg.Defaults,
		idleTimeout: cfg.IdleTimeout,
	}
}

// Create makes a new empty session with the default parameters.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrSessionLimit
	}
	id := generateSessionID()
	for m.sessions[id] != nil {
		id = generateSessionID()
	}
	s := newSession(id, m.defaults, m.maxBodies)
	m.sessions[id] = s
	metrics.SessionsCreatedTotal.Inc()
	logger.Info("session created", "session_id", id)
	return s, nil
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	logger.Info("session deleted", "session_id", id)
	return nil
}

// List returns infos for all sessions, sorted by creation time.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// running returns all sessions currently marked for automatic stepping.
func (m *Manager) running() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.Running() {
			out = append(out, s)
		}
	}
	return out
}

// reapIdle deletes sessions that have been untouched past the idle timeout.
func (m *Manager) reapIdle() {
	if m.idleTimeout <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			logger.Info("idle session reaped", "session_id", id)
		}
	}
}

// SessionStats implements metrics.StatsSource.
func (m *Manager) SessionStats() []metrics.SessionStat {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]metrics.SessionStat, 0, len(sessions))
	for _, s := range sessions {
		info := s.Info()
		out = append(out, metrics.SessionStat{ID: info.ID, Bodies: info.Bodies})
	}
	return out
}
