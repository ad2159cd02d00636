package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulation step metrics
	SimStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_steps_total",
			Help: "Total number of simulation steps executed",
		},
		[]string{"integrator"}, // integrator: euler, verlet
	)

	SimStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sim_step_duration_seconds",
			Help:    "Duration of simulation steps in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"integrator"},
	)

	SimSubstepsPerStep = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sim_substeps_per_step",
			Help:    "Number of substeps taken per logical step",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16},
		},
	)

	SimBodies = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sim_bodies",
			Help: "Current number of bodies per session",
		},
		[]string{"session"},
	)

	SimMergesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_merges_total",
			Help: "Total number of body merges from collisions",
		},
	)

	SimElasticBouncesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_elastic_bounces_total",
			Help: "Total number of elastic collision resolutions",
		},
	)

	SimTreeBuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_tree_builds_total",
			Help: "Total number of quadtree builds",
		},
	)

	SimTreeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sim_tree_build_duration_seconds",
			Help:    "Duration of quadtree builds in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	SimNonFiniteDiagnostics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_nonfinite_diagnostics_total",
			Help: "Total number of diagnostics computations that found non-finite values",
		},
	)

	// Session metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of active simulation sessions",
		},
	)

	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of simulation sessions created",
		},
	)

	SessionAutoPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_auto_pauses_total",
			Help: "Total number of sessions auto-paused on non-finite state",
		},
	)

	// Database operation metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	DBOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"component"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"component"},
	)

	// API cache metrics
	APICacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_hits_total",
			Help: "Total number of API cache hits",
		},
		[]string{"endpoint"},
	)

	APICacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_misses_total",
			Help: "Total number of API cache misses",
		},
		[]string{"endpoint"},
	)

	APICacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"endpoint"},
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)
)
