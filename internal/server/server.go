// Package server assembles the simulation service: session manager,
// background runner, metrics collector, and the HTTP router.
package server

import (
	"context"
	"database/sql"
	"time"

	"github.com/gorilla/mux"

	"github.com/onnwee/nbody-sim/internal/api"
	"github.com/onnwee/nbody-sim/internal/cache"
	"github.com/onnwee/nbody-sim/internal/config"
	"github.com/onnwee/nbody-sim/internal/db"
	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/session"
	"github.com/onnwee/nbody-sim/internal/sim"
)

// Server owns the long-lived pieces of the service.
type Server struct {
	Manager *session.Manager

	cfg       *config.Config
	runner    *session.Runner
	collector *metrics.Collector
	cache     cache.Cache
	conn      *sql.DB
	recorder  *db.Recorder
}

// New builds a server from configuration. When cfg.DatabaseURL is empty
// diagnostics recording is disabled and no database connection is made.
func New(cfg *config.Config) (*Server, error) {
	manager := session.NewManager(session.ManagerConfig{
		MaxSessions: cfg.MaxSessions,
		MaxBodies:   cfg.MaxBodies,
		Defaults:    defaultParams(cfg),
		IdleTimeout: cfg.SessionIdle,
	})

	var (
		conn     *sql.DB
		recorder *db.Recorder
	)
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		recorder = db.NewRecorder(conn, cfg.DBStatementTimeout)
		logger.Info("diagnostics recording enabled", "interval_steps", cfg.RecordInterval)
	} else {
		logger.Info("diagnostics recording disabled (no DATABASE_URL)")
	}

	c, err := cache.NewLRU(64, 10_000, time.Minute)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, err
	}

	var rec session.Recorder
	if recorder != nil {
		rec = recorder
	}

	return &Server{
		Manager:   manager,
		cfg:       cfg,
		runner:    session.NewRunner(manager, cfg.RunnerTick, rec, cfg.RecordInterval),
		collector: metrics.NewCollector(manager, 15*time.Second).WithCache(c),
		cache:     c,
		conn:      conn,
		recorder:  recorder,
	}, nil
}

func defaultParams(cfg *config.Config) sim.StepParams {
	p := sim.DefaultStepParams()
	p.G = cfg.GravityConstant
	p.Softening = cfg.Softening
	p.MaxSpeed = cfg.MaxSpeed
	p.BHTheta = cfg.BHTheta
	p.BHThreshold = cfg.BHThreshold
	p.DT = cfg.FrameDT
	p.TimeScale = cfg.TimeScale
	p.MaxSubstep = cfg.MaxSubstep
	p.MaxSubstepsPerFrame = cfg.MaxSubstepsPerFrame
	return p
}

// Router builds the HTTP router over the server's dependencies.
func (s *Server) Router() *mux.Router {
	return api.NewRouter(api.Deps{
		Manager:     s.Manager,
		Cache:       s.cache,
		Recorder:    s.recorder,
		MaxSessions: s.cfg.MaxSessions,
		MaxBodies:   s.cfg.MaxBodies,
	})
}

// Start launches the background loops. They stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.runner.Start(ctx)
	go s.collector.Start(ctx)
}

// Close releases held resources.
func (s *Server) Close() {
	s.runner.Stop()
	s.collector.Stop()
	if c, ok := s.cache.(*cache.LRUCache); ok {
		c.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
