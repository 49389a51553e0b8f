// Package store - run-history repository
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/airfreight/cargoplan/internal/planning"
)

// DBPool is an interface for database connections (supports both
// pgxpool.Pool and pgxmock)
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Close()
}

// RunRecord is a persisted pipeline execution.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	Seed        int64     `json:"seed"`
	InputHash   string    `json:"input_hash"`
	TotalMargin float64   `json:"total_margin"`
	Delivered   int       `json:"delivered"`
	Rolled      int       `json:"rolled"`
	Denied      int       `json:"denied"`
	Generations int       `json:"generations"`
	CreatedAt   time.Time `json:"created_at"`

	Assignments []AssignmentRecord `json:"assignments"`
	Alerts      []AlertRecord      `json:"alerts"`
}

// AssignmentRecord is one cargo outcome inside a persisted run.
type AssignmentRecord struct {
	CargoID string  `json:"cargo_id"`
	Status  string  `json:"status"`
	Flights string  `json:"flights"` // space-delimited flight ids, or DENIED
	Margin  float64 `json:"margin"`
	Reason  string  `json:"reason,omitempty"`
}

// AlertRecord is one alert inside a persisted run.
type AlertRecord struct {
	AlertType   string   `json:"alert_type"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	CargoID     string   `json:"cargo_id,omitempty"`
	FlightID    string   `json:"flight_id,omitempty"`
	MarginDelta *float64 `json:"margin_delta,omitempty"`
}

// RunRepository persists and retrieves pipeline executions.
type RunRepository struct {
	db DBPool
}

// NewRunRepository creates a new run-history repository
func NewRunRepository(db DBPool) *RunRepository {
	return &RunRepository{db: db}
}

// batchSize bounds how many rows one pgx.Batch carries; large cargo sets
// are chunked to keep batch memory flat.
const batchSize = 1000

// SaveRun persists a finished plan: the run row, every assignment, and
// every alert, all inside one transaction. Run ids are deterministic, so
// re-planning identical inputs names an already-recorded run; that save
// is a no-op rather than a duplicate-key failure.
func (r *RunRepository) SaveRun(ctx context.Context, res *planning.PlanResult, inputHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO plan_runs (run_id, seed, input_hash, total_margin, delivered, rolled, denied, generations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO NOTHING
	`, res.RunID, res.Seed, inputHash, res.Summary.TotalMargin,
		res.Summary.Delivered, res.Summary.Rolled, res.Summary.Denied, res.Generations)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already recorded with the same assignments and alerts.
		return nil
	}

	if err := r.insertAssignments(ctx, tx, res); err != nil {
		return err
	}
	if err := r.insertAlerts(ctx, tx, res); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *RunRepository) insertAssignments(ctx context.Context, tx pgx.Tx, res *planning.PlanResult) error {
	query := `
		INSERT INTO plan_assignments (run_id, cargo_id, status, flights, margin, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	batch := &pgx.Batch{}
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := sendBatch(ctx, tx, batch); err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}
		batch = &pgx.Batch{}
		return nil
	}

	for _, c := range res.Cargo {
		asg := res.Assignments[c.ID]
		flights := "DENIED"
		if ids := asg.Route.FlightIDs(); len(ids) > 0 {
			flights = strings.Join(ids, " ")
		}
		batch.Queue(query, res.RunID, c.ID, asg.Status.String(), flights, asg.Margin, asg.Reason)
		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (r *RunRepository) insertAlerts(ctx context.Context, tx pgx.Tx, res *planning.PlanResult) error {
	query := `
		INSERT INTO plan_alerts (run_id, alert_type, severity, message, cargo_id, flight_id, margin_delta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	batch := &pgx.Batch{}
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := sendBatch(ctx, tx, batch); err != nil {
			return fmt.Errorf("failed to insert alerts: %w", err)
		}
		batch = &pgx.Batch{}
		return nil
	}

	for _, a := range res.Alerts {
		batch.Queue(query, res.RunID, a.Kind.String(), a.Severity.String(), a.Message,
			nullable(a.CargoID), nullable(a.FlightID), a.MarginDelta)
		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// sendBatch ships one batch and drains every result before returning.
func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("batch exec failed at index %d: %w", i, err)
		}
	}
	return results.Close()
}

// ErrRunNotFound is returned when a run id has no persisted record.
var ErrRunNotFound = fmt.Errorf("run not found")

// GetRun loads a persisted run with its assignments and alerts.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	rec := &RunRecord{RunID: runID}
	err := r.db.QueryRow(ctx, `
		SELECT seed, input_hash, total_margin, delivered, rolled, denied, generations, created_at
		FROM plan_runs WHERE run_id = $1
	`, runID).Scan(&rec.Seed, &rec.InputHash, &rec.TotalMargin,
		&rec.Delivered, &rec.Rolled, &rec.Denied, &rec.Generations, &rec.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT cargo_id, status, flights, margin, reason
		FROM plan_assignments WHERE run_id = $1 ORDER BY cargo_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a AssignmentRecord
		if err := rows.Scan(&a.CargoID, &a.Status, &a.Flights, &a.Margin, &a.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		rec.Assignments = append(rec.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}

	alertRows, err := r.db.Query(ctx, `
		SELECT alert_type, severity, message, cargo_id, flight_id, margin_delta
		FROM plan_alerts WHERE run_id = $1 ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer alertRows.Close()
	for alertRows.Next() {
		var a AlertRecord
		var cargoID, flightID *string
		if err := alertRows.Scan(&a.AlertType, &a.Severity, &a.Message, &cargoID, &flightID, &a.MarginDelta); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if cargoID != nil {
			a.CargoID = *cargoID
		}
		if flightID != nil {
			a.FlightID = *flightID
		}
		rec.Alerts = append(rec.Alerts, a)
	}
	if err := alertRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}

	return rec, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
