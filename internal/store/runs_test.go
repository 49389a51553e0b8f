//go:build unit || !integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning"
)

func sampleResult() *planning.PlanResult {
	dep := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	route := models.RouteOption{
		CargoID: "C1",
		Legs: []models.Leg{{
			FlightID: "AI101", Origin: "DEL", Destination: "BOM",
			Departure: dep, Arrival: dep.Add(2 * time.Hour),
		}},
		Margin: 79000, OnTime: true,
	}
	return &planning.PlanResult{
		RunID: "run-1",
		Seed:  42,
		Cargo: []models.Cargo{{ID: "C1", RevenueINR: 100000}},
		Assignments: map[string]models.CargoAssignment{
			"C1": {CargoID: "C1", Status: models.StatusDelivered, Route: route, Margin: 79000},
		},
		Alerts: []models.Alert{
			models.NewAlert(models.AlertCapacityBreach, models.SeverityCritical, "over capacity").WithFlight("AI101"),
		},
		Summary:     models.PlanSummary{TotalMargin: 79000, Delivered: 1},
		Generations: 40,
	}
}

func TestRunRepository_SaveRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	res := sampleResult()
	flightID := "AI101"

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO plan_runs`).
		WithArgs("run-1", int64(42), "hash-1", 79000.0, 1, 0, 0, 40).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assignments := mock.ExpectBatch()
	assignments.ExpectExec(`INSERT INTO plan_assignments`).
		WithArgs("run-1", "C1", "delivered", "AI101", 79000.0, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	alerts := mock.ExpectBatch()
	alerts.ExpectExec(`INSERT INTO plan_alerts`).
		WithArgs("run-1", "capacity_breach", "critical", "over capacity", (*string)(nil), &flightID, (*float64)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectCommit()

	repo := NewRunRepository(mock)
	require.NoError(t, repo.SaveRun(context.Background(), res, "hash-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_SaveRun_AlreadyRecordedIsNoOp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO plan_runs`).
		WithArgs("run-1", int64(42), "hash-1", 79000.0, 1, 0, 0, 40).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectRollback()

	repo := NewRunRepository(mock)
	require.NoError(t, repo.SaveRun(context.Background(), sampleResult(), "hash-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_SaveRun_RunInsertFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO plan_runs`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewRunRepository(mock)
	err = repo.SaveRun(context.Background(), sampleResult(), "hash-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert run")
}

func TestRunRepository_GetRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cargoID := "C2"

	mock.ExpectQuery(`SELECT seed, input_hash, total_margin, delivered, rolled, denied, generations, created_at\s+FROM plan_runs`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"seed", "input_hash", "total_margin", "delivered", "rolled", "denied", "generations", "created_at",
		}).AddRow(int64(42), "hash-1", 79000.0, 1, 0, 1, 40, created))

	mock.ExpectQuery(`SELECT cargo_id, status, flights, margin, reason\s+FROM plan_assignments`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"cargo_id", "status", "flights", "margin", "reason"}).
			AddRow("C1", "delivered", "AI101", 79000.0, "").
			AddRow("C2", "denied", "DENIED", -10000.0, "no feasible itinerary"))

	mock.ExpectQuery(`SELECT alert_type, severity, message, cargo_id, flight_id, margin_delta\s+FROM plan_alerts`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"alert_type", "severity", "message", "cargo_id", "flight_id", "margin_delta"}).
			AddRow("baseline_exception", "warning", "no feasible itinerary for cargo C2", &cargoID, nil, nil))

	repo := NewRunRepository(mock)
	rec, err := repo.GetRun(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, int64(42), rec.Seed)
	assert.Equal(t, 79000.0, rec.TotalMargin)
	require.Len(t, rec.Assignments, 2)
	assert.Equal(t, "C1", rec.Assignments[0].CargoID)
	assert.Equal(t, "DENIED", rec.Assignments[1].Flights)
	require.Len(t, rec.Alerts, 1)
	assert.Equal(t, "C2", rec.Alerts[0].CargoID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_GetRun_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT seed, input_hash`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"seed", "input_hash", "total_margin", "delivered", "rolled", "denied", "generations", "created_at",
		}))

	repo := NewRunRepository(mock)
	_, err = repo.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
