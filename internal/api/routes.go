package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/nbody-sim/internal/api/handlers"
	"github.com/onnwee/nbody-sim/internal/cache"
	"github.com/onnwee/nbody-sim/internal/db"
	"github.com/onnwee/nbody-sim/internal/middleware"
	"github.com/onnwee/nbody-sim/internal/session"
)

// Deps bundles everything the router needs. Recorder may be nil when
// diagnostics recording is disabled.
type Deps struct {
	Manager     *session.Manager
	Cache       cache.Cache
	Recorder    *db.Recorder
	MaxSessions int
	MaxBodies   int
}

// NewRouter wires every HTTP endpoint.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestMetrics)

	sessions := handlers.NewSessionHandler(deps.Manager, deps.MaxSessions, deps.MaxBodies)
	bodies := handlers.NewBodyHandler(deps.Manager, deps.MaxBodies)
	diagnostics := handlers.NewDiagnosticsHandler(deps.Manager, deps.Cache, deps.Recorder)
	scenarios := handlers.NewScenarioHandler(deps.Manager, deps.Cache)
	status := handlers.NewStatusHandler(deps.Manager)
	ws := handlers.NewWebSocketHandler(deps.Manager)

	// Health and observability
	r.HandleFunc("/health", handlers.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api/status", status.Get).Methods("GET")

	// Sessions
	r.HandleFunc("/api/sessions", sessions.Create).Methods("POST")
	r.HandleFunc("/api/sessions", sessions.List).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", sessions.Get).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", sessions.Delete).Methods("DELETE")

	// Session control
	r.HandleFunc("/api/sessions/{id}/step", sessions.Step).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/run", sessions.Run).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/pause", sessions.Pause).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/reset", sessions.Reset).Methods("POST")

	// Step parameters
	r.HandleFunc("/api/sessions/{id}/params", sessions.GetParams).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/params", sessions.UpdateParams).Methods("PUT", "PATCH")

	// Bodies
	r.HandleFunc("/api/sessions/{id}/bodies", bodies.List).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/bodies", bodies.Create).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/bodies/{bodyID}", bodies.Get).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/bodies/{bodyID}", bodies.Update).Methods("PUT")
	r.HandleFunc("/api/sessions/{id}/bodies/{bodyID}", bodies.Delete).Methods("DELETE")

	// Diagnostics and forces
	r.HandleFunc("/api/sessions/{id}/diagnostics", diagnostics.Get).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/diagnostics/history", diagnostics.History).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/forces", diagnostics.Forces).Methods("GET")

	// Scenarios
	r.HandleFunc("/api/scenarios", scenarios.List).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/scenario", scenarios.Load).Methods("POST")

	// Streaming
	r.HandleFunc("/api/ws", ws.HandleWebSocket)
	r.HandleFunc("/ws/sessions/{id}", ws.HandleWebSocket)

	// Runtime profiling, access-logged for auditing
	debug := r.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			handlers.LogPprofAccess(req.Context(), req.URL.Path, req.RemoteAddr)
			next.ServeHTTP(w, req)
		})
	})
	debug.HandleFunc("", pprof.Index)
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("/").Handler(http.HandlerFunc(pprof.Index))

	return r
}
