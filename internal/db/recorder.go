package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/onnwee/nbody-sim/internal/circuitbreaker"
	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/physics"
	"github.com/onnwee/nbody-sim/internal/sim"
)

// DiagnosticsRow is one persisted diagnostics snapshot.
type DiagnosticsRow struct {
	ID         int64           `json:"id"`
	SessionID  string          `json:"session_id"`
	Step       uint64          `json:"step"`
	RecordedAt time.Time       `json:"recorded_at"`
	Kinetic    float64         `json:"kinetic"`
	Potential  float64         `json:"potential"`
	Energy     float64         `json:"energy"`
	MomentumX  float64         `json:"momentum_x"`
	MomentumY  float64         `json:"momentum_y"`
	COMX       float64         `json:"com_x"`
	COMY       float64         `json:"com_y"`
	TotalMass  float64         `json:"total_mass"`
	OK         bool            `json:"ok"`
	Params     json.RawMessage `json:"params,omitempty"`
}

// Recorder writes diagnostics snapshots through a circuit breaker so a
// failing database cannot stall the stepping loop.
type Recorder struct {
	conn    *sql.DB
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// NewRecorder creates a diagnostics recorder over an open connection.
func NewRecorder(conn *sql.DB, statementTimeout time.Duration) *Recorder {
	if statementTimeout <= 0 {
		statementTimeout = 25 * time.Second
	}
	return &Recorder{
		conn: conn,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "diagnostics_recorder",
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
		}),
		timeout: statementTimeout,
	}
}

// RecordDiagnostics persists one snapshot. Implements session.Recorder.
func (r *Recorder) RecordDiagnostics(ctx context.Context, sessionID string, step uint64, params sim.StepParams, diag physics.Diagnostics) error {
	return r.breaker.Call(func() error {
		start := time.Now()
		err := r.insert(ctx, sessionID, step, params, diag)
		metrics.DBOperationDuration.WithLabelValues("insert_diagnostics").
			Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.DBOperationErrors.WithLabelValues("insert_diagnostics").Inc()
		}
		return err
	})
}

func (r *Recorder) insert(ctx context.Context, sessionID string, step uint64, params sim.StepParams, diag physics.Diagnostics) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var paramsJSON pqtype.NullRawMessage
	if raw, err := json.Marshal(params); err == nil {
		paramsJSON = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	_, err := r.conn.ExecContext(ctx, `
INSERT INTO diagnostics_history
    (session_id, step, kinetic, potential, energy,
     momentum_x, momentum_y, com_x, com_y, total_mass, ok, params)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		sessionID, int64(step), diag.Kinetic, diag.Potential, diag.Energy,
		diag.Momentum.X, diag.Momentum.Y,
		diag.CenterOfMass.X, diag.CenterOfMass.Y,
		diag.TotalMass, diag.OK, paramsJSON)
	if err != nil {
		return fmt.Errorf("insert diagnostics: %w", err)
	}
	return nil
}

// History returns the most recent snapshots for a session, newest first.
func (r *Recorder) History(ctx context.Context, sessionID string, limit int) ([]DiagnosticsRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	rows, err := r.conn.QueryContext(ctx, `
SELECT id, session_id, step, recorded_at, kinetic, potential, energy,
       momentum_x, momentum_y, com_x, com_y, total_mass, ok, params
FROM diagnostics_history
WHERE session_id = $1
ORDER BY step DESC
LIMIT $2`, sessionID, limit)
	metrics.DBOperationDuration.WithLabelValues("list_diagnostics").
		Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DBOperationErrors.WithLabelValues("list_diagnostics").Inc()
		return nil, fmt.Errorf("query diagnostics history: %w", err)
	}
	defer rows.Close()

	var out []DiagnosticsRow
	for rows.Next() {
		var row DiagnosticsRow
		var step int64
		var params pqtype.NullRawMessage
		if err := rows.Scan(
			&row.ID, &row.SessionID, &step, &row.RecordedAt,
			&row.Kinetic, &row.Potential, &row.Energy,
			&row.MomentumX, &row.MomentumY, &row.COMX, &row.COMY,
			&row.TotalMass, &row.OK, &params,
		); err != nil {
			return nil, fmt.Errorf("scan diagnostics row: %w", err)
		}
		row.Step = uint64(step)
		if params.Valid {
			row.Params = params.RawMessage
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Prune deletes snapshots older than the retention window.
func (r *Recorder) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.conn.ExecContext(ctx,
		`DELETE FROM diagnostics_history WHERE recorded_at < $1`,
		time.Now().Add(-retention))
	if err != nil {
		metrics.DBOperationErrors.WithLabelValues("prune_diagnostics").Inc()
		return 0, fmt.Errorf("prune diagnostics: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
