package session

import (
	"context"
	"time"

	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/physics"
	"github.com/onnwee/nbody-sim/internal/sim"
)

// Recorder persists periodic diagnostics snapshots for a session.
type Recorder interface {
	RecordDiagnostics(ctx context.Context, sessionID string, step uint64, params sim.StepParams, diag physics.Diagnostics) error
}

// Runner drives all running sessions forward on a fixed tick and
// periodically records diagnostics and reaps idle sessions.
type Runner struct {
	manager        *Manager
	tick           time.Duration
	recorder       Recorder
	recordInterval uint64
	stop           chan struct{}
}

// NewRunner creates a runner for the given manager. recorder may be nil
// to disable diagnostics recording.
func NewRunner(m *Manager, tick time.Duration, recorder Recorder, recordInterval int) *Runner {
	if tick <= 0 {
		tick = 8 * time.Millisecond
	}
	if recordInterval < 1 {
		recordInterval = 60
	}
	return &Runner{
		manager:        m,
		tick:           tick,
		recorder:       recorder,
		recordInterval: uint64(recordInterval),
		stop:           make(chan struct{}),
	}
}

// Start begins the stepping loop and blocks until the context is
// cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	logger.Info("session runner started", "tick", r.tick.String())
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	reap := time.NewTicker(time.Minute)
	defer reap.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("session runner stopped by context")
			return
		case <-r.stop:
			logger.Info("session runner stopped")
			return
		case <-reap.C:
			r.manager.reapIdle()
		case <-ticker.C:
			r.stepRunning(ctx)
		}
	}
}

// Stop gracefully stops the runner.
func (r *Runner) Stop() {
	close(r.stop)
}

func (r *Runner) stepRunning(ctx context.Context) {
	for _, s := range r.manager.running() {
		info := s.Step()
		if r.recorder == nil {
			continue
		}
		if info.StepCount%r.recordInterval != 0 {
			continue
		}
		diag := s.Diagnostics()
		if err := r.recorder.RecordDiagnostics(ctx, info.ID, info.StepCount, info.Params, diag); err != nil {
			logger.WarnContext(ctx, "failed to record diagnostics",
				"session_id", info.ID, "step", info.StepCount, "error", err)
		}
	}
}
