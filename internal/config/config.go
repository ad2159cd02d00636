package config

import (
	"os"
	"strings"
	"time"

	"github.com/onnwee/nbody-sim/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// HTTP server settings
	Port            string
	ShutdownTimeout time.Duration
	// Simulation defaults (per-session params may override)
	GravityConstant     float64 // gravitational constant G
	Softening           float64 // softening length, metres
	MaxSpeed            float64 // velocity cap, <= 0 disables
	BHTheta             float64 // Barnes-Hut opening angle
	BHThreshold         int     // body count above which the tree is used
	FrameDT             float64 // base frame timestep, seconds
	TimeScale           float64 // default time scale multiplier
	MaxSubstep          float64 // max substep duration, seconds
	MaxSubstepsPerFrame int     // substep cap per frame
	// Session runner settings
	MaxSessions   int           // maximum concurrent simulation sessions
	MaxBodies     int           // maximum bodies per session
	RunnerTick    time.Duration // interval between auto-run frames
	SessionIdle   time.Duration // idle duration after which sessions are reaped
	// Diagnostics recording
	DatabaseURL        string        // Postgres DSN; empty disables recording
	RecordInterval     int           // record diagnostics every N steps
	DBStatementTimeout time.Duration // statement timeout for recorder queries
	// Security settings
	RateLimitGlobal      float64  // requests per second globally
	RateLimitGlobalBurst int      // burst size for global rate limit
	RateLimitPerIP       float64  // requests per second per IP
	RateLimitPerIPBurst  int      // burst size for per-IP rate limit
	CORSAllowedOrigins   []string // allowed CORS origins
	EnableRateLimit      bool     // enable rate limiting middleware
	// Observability settings
	LogLevel          string  // log level: debug, info, warn, error
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string  // Sentry DSN for error reporting
	SentryEnvironment string  // Sentry environment (dev, staging, production)
	SentryRelease     string  // Sentry release version
	SentrySampleRate  float64 // Sentry error sampling rate (0.0 to 1.0)
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		Port:            utils.GetEnv("PORT", "8000"),
		ShutdownTimeout: utils.GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		// Simulation defaults
		GravityConstant:     utils.GetEnvAsFloat("SIM_G", 6.6743e-11),
		Softening:           utils.GetEnvAsFloat("SIM_SOFTENING", 2.0),
		MaxSpeed:            utils.GetEnvAsFloat("SIM_MAX_SPEED", 0),
		BHTheta:             utils.GetEnvAsFloat("SIM_BH_THETA", 0.7),
		BHThreshold:         utils.GetEnvAsInt("SIM_BH_THRESHOLD", 64),
		FrameDT:             utils.GetEnvAsFloat("SIM_FRAME_DT", 1.0/120.0),
		TimeScale:           utils.GetEnvAsFloat("SIM_TIME_SCALE", 1.0),
		MaxSubstep:          utils.GetEnvAsFloat("SIM_MAX_SUBSTEP", 1.0/120.0),
		MaxSubstepsPerFrame: utils.GetEnvAsInt("SIM_MAX_SUBSTEPS_PER_FRAME", 8),
		// Session runner
		MaxSessions: utils.GetEnvAsInt("MAX_SESSIONS", 16),
		MaxBodies:   utils.GetEnvAsInt("MAX_BODIES", 20000),
		RunnerTick:  utils.GetEnvAsDuration("RUNNER_TICK", 8*time.Millisecond),
		SessionIdle: utils.GetEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		// Diagnostics recording
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RecordInterval:     utils.GetEnvAsInt("DIAGNOSTICS_RECORD_INTERVAL", 60),
		DBStatementTimeout: utils.GetEnvAsDuration("DB_STATEMENT_TIMEOUT", 25*time.Second),
		// Security settings with sensible defaults
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		// Observability settings
		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
		SentrySampleRate:  utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	// Parse CORS allowed origins
	corsOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if corsOrigins == "" {
		// Default to common development origins
		cached.CORSAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	} else {
		cached.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i := range cached.CORSAllowedOrigins {
			cached.CORSAllowedOrigins[i] = strings.TrimSpace(cached.CORSAllowedOrigins[i])
		}
	}

	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
