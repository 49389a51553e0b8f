//go:build unit || !integration

package simulate

import (
	"testing"
	"time"

	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWorld(t *testing.T, flights []models.Flight, cargo []models.Cargo, rules []models.ConnectionRule) *World {
	t.Helper()
	cfg := config.Default()
	fm := models.NewFlightMap(flights)
	idx := models.NewConnectionIndex(rules)
	enum := routes.New(fm, idx, cfg.MaxLegs, cfg.DenialFactor)

	catalog := make([][]models.RouteOption, len(cargo))
	for i, c := range cargo {
		catalog[i] = enum.Enumerate(c)
		require.NotEmpty(t, catalog[i])
	}
	return &World{
		Flights:        fm,
		Cargo:          cargo,
		Rules:          idx,
		Catalog:        catalog,
		Weights:        cfg.KnapsackWeights,
		OverrideFactor: cfg.OverrideFactor,
		DenialFactor:   cfg.DenialFactor,
	}
}

func ts(hour, minute int) time.Time {
	return time.Date(2026, 3, 1, hour, minute, 0, 0, time.UTC)
}

func TestRun_SingleCargoSingleFlightDelivered(t *testing.T) {
	flights := []models.Flight{{
		ID: "AI101", Origin: "DEL", Destination: "BOM",
		Departure: ts(8, 0), Arrival: ts(10, 0),
		WeightCapacityKg: 10000, VolumeCapacityM3: 50, CostPerKg: 10,
	}}
	cargo := []models.Cargo{{
		ID: "C1", Origin: "DEL", Destination: "BOM",
		WeightKg: 2000, VolumeM3: 8, RevenueINR: 100000,
		Priority: models.PriorityLow, MaxTransitHours: 24,
		ReadyTime: ts(6, 0), DueBy: ts(15, 0),
	}}

	w := buildWorld(t, flights, cargo, nil)
	res := Run(w, []int{0})

	asg := res.Assignments["C1"]
	assert.Equal(t, models.StatusDelivered, asg.Status)
	assert.Greater(t, asg.Margin, 0.0)
	assert.Equal(t, []string{"AI101"}, asg.Route.FlightIDs())

	require.Len(t, res.FlightLoads, 1)
	assert.Equal(t, []string{"C1"}, res.FlightLoads[0].BoardedCargo)
	assert.InDelta(t, 20.0, res.FlightLoads[0].WeightUtilizationPct, 1e-9)
	assert.InDelta(t, res.TotalMargin, asg.Margin, 1e-9)
}

func TestRun_OversubscriptionRollsLowPriority(t *testing.T) {
	flights := []models.Flight{{
		ID: "AI101", Origin: "DEL", Destination: "BOM",
		Departure: ts(8, 0), Arrival: ts(10, 0),
		WeightCapacityKg: 1000, VolumeCapacityM3: 100, CostPerKg: 10,
	}}
	mk := func(id string, p models.Priority) models.Cargo {
		return models.Cargo{
			ID: id, Origin: "DEL", Destination: "BOM",
			WeightKg: 600, VolumeM3: 3, RevenueINR: 60000,
			Priority: p, MaxTransitHours: 24,
			ReadyTime: ts(6, 0), DueBy: ts(15, 0),
		}
	}
	cargo := []models.Cargo{mk("H1", models.PriorityHigh), mk("L1", models.PriorityLow), mk("M1", models.PriorityMedium)}

	w := buildWorld(t, flights, cargo, nil)
	res := Run(w, []int{0, 0, 0})

	assert.Equal(t, models.StatusDelivered, res.Assignments["H1"].Status)
	assert.Equal(t, models.StatusDelivered, res.Assignments["M1"].Status)
	assert.Equal(t, models.StatusRolled, res.Assignments["L1"].Status)
	assert.Contains(t, res.Assignments["L1"].Reason, "AI101")
	assert.Less(t, res.Assignments["L1"].Margin, 0.0)

	var breach bool
	for _, a := range res.Alerts {
		if a.Kind == models.AlertCapacityBreach && a.Severity == models.SeverityCritical {
			breach = true
		}
	}
	assert.True(t, breach, "1200kg on a 1000kg flight must raise capacity_breach")
}

func TestRun_TwoLegItinerary(t *testing.T) {
	flights := []models.Flight{
		{ID: "F1", Origin: "AAA", Destination: "BBB", Departure: ts(8, 0), Arrival: ts(10, 0),
			WeightCapacityKg: 5000, VolumeCapacityM3: 20, CostPerKg: 5},
		{ID: "F2", Origin: "BBB", Destination: "CCC", Departure: ts(11, 30), Arrival: ts(14, 0),
			WeightCapacityKg: 5000, VolumeCapacityM3: 20, CostPerKg: 5},
	}
	rules := []models.ConnectionRule{{
		Origin: "AAA", Destination: "CCC", ConnectionAirport: "BBB",
		MinConnectionMinutes: 60, MaxConnectionMinutes: 180, HandlingFee: 500,
	}}
	cargo := []models.Cargo{{
		ID: "C1", Origin: "AAA", Destination: "CCC",
		WeightKg: 1000, VolumeM3: 5, RevenueINR: 80000,
		Priority: models.PriorityMedium, MaxTransitHours: 24,
		ReadyTime: ts(6, 0), DueBy: ts(15, 0),
	}}

	w := buildWorld(t, flights, cargo, rules)
	res := Run(w, []int{0})

	asg := res.Assignments["C1"]
	require.Equal(t, models.StatusDelivered, asg.Status)
	assert.Equal(t, []string{"F1", "F2"}, asg.Route.FlightIDs())
	assert.Equal(t, 90*time.Minute, asg.Route.Legs[0].DwellAfter)
	assert.True(t, asg.Route.OnTime)
	assert.Zero(t, asg.Route.SLAPenalty)
}

func TestRun_DeniedCargoEmitsBaselineException(t *testing.T) {
	flights := []models.Flight{{
		ID: "AI101", Origin: "DEL", Destination: "BOM",
		Departure: ts(8, 0), Arrival: ts(10, 0),
		WeightCapacityKg: 1000, VolumeCapacityM3: 10, CostPerKg: 10,
	}}
	cargo := []models.Cargo{{
		ID: "C1", Origin: "MAA", Destination: "CCU", // no flights serve this pair
		WeightKg: 100, VolumeM3: 1, RevenueINR: 40000,
		Priority: models.PriorityLow, MaxTransitHours: 24,
		ReadyTime: ts(6, 0), DueBy: ts(20, 0),
	}}

	w := buildWorld(t, flights, cargo, nil)
	res := Run(w, []int{0})

	asg := res.Assignments["C1"]
	assert.Equal(t, models.StatusDenied, asg.Status)
	assert.InDelta(t, -10000, asg.Margin, 1e-9) // -revenue * denial factor 0.25

	var exception bool
	for _, a := range res.Alerts {
		if a.Kind == models.AlertBaselineException && a.CargoID == "C1" {
			exception = true
		}
	}
	assert.True(t, exception)
}

func TestRun_HighPriorityDeniedGetsViolationAlert(t *testing.T) {
	flights := []models.Flight{{
		ID: "AI101", Origin: "DEL", Destination: "BOM",
		Departure: ts(8, 0), Arrival: ts(10, 0),
		WeightCapacityKg: 1000, VolumeCapacityM3: 10, CostPerKg: 10,
	}}
	cargo := []models.Cargo{{
		ID: "H1", Origin: "MAA", Destination: "CCU",
		WeightKg: 100, VolumeM3: 1, RevenueINR: 40000,
		Priority: models.PriorityHigh, MaxTransitHours: 24,
		ReadyTime: ts(6, 0), DueBy: ts(20, 0),
	}}

	w := buildWorld(t, flights, cargo, nil)
	res := Run(w, []int{0})

	var violation bool
	for _, a := range res.Alerts {
		if a.Kind == models.AlertPriorityGuaranteeViolation && a.CargoID == "H1" {
			violation = true
			assert.Equal(t, models.SeverityCritical, a.Severity)
		}
	}
	assert.True(t, violation)
}

func TestRun_MarginSumMatchesTotal(t *testing.T) {
	flights := []models.Flight{
		{ID: "F1", Origin: "DEL", Destination: "BOM", Departure: ts(8, 0), Arrival: ts(10, 0),
			WeightCapacityKg: 3000, VolumeCapacityM3: 20, CostPerKg: 8},
		{ID: "F2", Origin: "DEL", Destination: "BOM", Departure: ts(9, 0), Arrival: ts(11, 0),
			WeightCapacityKg: 3000, VolumeCapacityM3: 20, CostPerKg: 12},
	}
	var cargo []models.Cargo
	for _, id := range []string{"C1", "C2", "C3"} {
		cargo = append(cargo, models.Cargo{
			ID: id, Origin: "DEL", Destination: "BOM",
			WeightKg: 1500, VolumeM3: 6, RevenueINR: 50000,
			Priority: models.PriorityLow, MaxTransitHours: 24,
			ReadyTime: ts(6, 0), DueBy: ts(15, 0),
		})
	}

	w := buildWorld(t, flights, cargo, nil)
	res := Run(w, []int{0, 0, 0})

	var sum float64
	for _, asg := range res.Assignments {
		sum += asg.Margin
	}
	assert.InDelta(t, sum, res.TotalMargin, 1e-9)

	s := Summarize(res)
	assert.InDelta(t, sum, s.TotalMargin, 1e-9)
	assert.Equal(t, len(cargo), s.Delivered+s.Rolled+s.Denied)
}

func TestRun_Deterministic(t *testing.T) {
	flights := []models.Flight{{
		ID: "AI101", Origin: "DEL", Destination: "BOM",
		Departure: ts(8, 0), Arrival: ts(10, 0),
		WeightCapacityKg: 2000, VolumeCapacityM3: 10, CostPerKg: 10,
	}}
	var cargo []models.Cargo
	for _, id := range []string{"C1", "C2", "C3", "C4"} {
		cargo = append(cargo, models.Cargo{
			ID: id, Origin: "DEL", Destination: "BOM",
			WeightKg: 700, VolumeM3: 3, RevenueINR: 30000,
			Priority: models.PriorityLow, MaxTransitHours: 24,
			ReadyTime: ts(6, 0), DueBy: ts(15, 0),
		})
	}

	w := buildWorld(t, flights, cargo, nil)
	first := Run(w, []int{0, 0, 0, 0})
	for i := 0; i < 5; i++ {
		again := Run(w, []int{0, 0, 0, 0})
		assert.Equal(t, first.Assignments, again.Assignments)
		assert.Equal(t, first.FlightLoads, again.FlightLoads)
		assert.InDelta(t, first.TotalMargin, again.TotalMargin, 1e-12)
	}
}
