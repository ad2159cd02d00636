// Package db persists periodic diagnostics snapshots to Postgres.
// Recording is optional: when no DATABASE_URL is configured the rest of
// the service runs without it.
package db

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/secrets"
)

const schema = `
CREATE TABLE IF NOT EXISTS diagnostics_history (
    id           BIGSERIAL PRIMARY KEY,
    session_id   TEXT NOT NULL,
    step         BIGINT NOT NULL,
    recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    kinetic      DOUBLE PRECISION NOT NULL,
    potential    DOUBLE PRECISION NOT NULL,
    energy       DOUBLE PRECISION NOT NULL,
    momentum_x   DOUBLE PRECISION NOT NULL,
    momentum_y   DOUBLE PRECISION NOT NULL,
    com_x        DOUBLE PRECISION NOT NULL,
    com_y        DOUBLE PRECISION NOT NULL,
    total_mass   DOUBLE PRECISION NOT NULL,
    ok           BOOLEAN NOT NULL,
    params       JSONB
);
CREATE INDEX IF NOT EXISTS idx_diagnostics_history_session
    ON diagnostics_history (session_id, step);
`

// Open connects to Postgres, verifies the connection, and ensures the
// diagnostics schema exists.
func Open(connStr string) (*sql.DB, error) {
	if err := secrets.ValidateRequired(map[string]string{"DATABASE_URL": connStr}); err != nil {
		return nil, err
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("database connected", "dsn", secrets.MaskURL(connStr))
	return conn, nil
}
