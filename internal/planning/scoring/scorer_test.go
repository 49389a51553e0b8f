//go:build unit || !integration

package scoring

import (
	"testing"
	"time"

	"github.com/airfreight/cargoplan/internal/models"
	"github.com/stretchr/testify/assert"
)

func ts(hour, minute int) time.Time {
	return time.Date(2026, 3, 1, hour, minute, 0, 0, time.UTC)
}

func twoLegWorld() (*models.FlightMap, *models.ConnectionIndex, models.RouteOption) {
	flights := []models.Flight{
		{ID: "F1", Origin: "AAA", Destination: "BBB", Departure: ts(8, 0), Arrival: ts(10, 0),
			WeightCapacityKg: 5000, VolumeCapacityM3: 20, CostPerKg: 5},
		{ID: "F2", Origin: "BBB", Destination: "CCC", Departure: ts(11, 30), Arrival: ts(14, 0),
			WeightCapacityKg: 5000, VolumeCapacityM3: 20, CostPerKg: 7},
	}
	rules := []models.ConnectionRule{{
		Origin: "AAA", Destination: "CCC", ConnectionAirport: "BBB",
		MinConnectionMinutes: 60, MaxConnectionMinutes: 180, HandlingFee: 500,
	}}
	route := models.RouteOption{
		CargoID: "C1",
		Legs: []models.Leg{
			{FlightID: "F1", Origin: "AAA", Destination: "BBB", Departure: ts(8, 0), Arrival: ts(10, 0), DwellAfter: 90 * time.Minute},
			{FlightID: "F2", Origin: "BBB", Destination: "CCC", Departure: ts(11, 30), Arrival: ts(14, 0)},
		},
	}
	return models.NewFlightMap(flights), models.NewConnectionIndex(rules), route
}

func TestScore_OnTimeTwoLeg(t *testing.T) {
	fm, idx, route := twoLegWorld()
	c := models.Cargo{
		ID: "C1", Origin: "AAA", Destination: "CCC",
		WeightKg: 1000, VolumeM3: 5, RevenueINR: 80000,
		MaxTransitHours: 24, ReadyTime: ts(6, 0), DueBy: ts(15, 0),
		HandlingCostPerKg: 2, SLAPenaltyPerHour: 1000,
	}

	scored := Score(c, route, fm, idx, 0.25)

	// operating = (5 + 7) * 1000; handling = 2*1000 + 500 fee
	assert.InDelta(t, 12000, scored.OperatingCost, 1e-9)
	assert.InDelta(t, 2500, scored.HandlingCost, 1e-9)
	assert.Zero(t, scored.SLAPenalty)
	assert.Zero(t, scored.SLAPenaltyHours)
	assert.InDelta(t, 6.0, scored.TransitHours, 1e-9)
	assert.InDelta(t, 80000-12000-2500, scored.Margin, 1e-9)
	assert.True(t, scored.OnTime)
}

func TestScore_LateArrivalIncursSLAPenalty(t *testing.T) {
	fm, idx, route := twoLegWorld()
	c := models.Cargo{
		ID: "C1", Origin: "AAA", Destination: "CCC",
		WeightKg: 1000, VolumeM3: 5, RevenueINR: 80000,
		MaxTransitHours: 24, ReadyTime: ts(6, 0), DueBy: ts(12, 0), // arrival 14:00, 2h late
		SLAPenaltyPerHour: 1500,
	}

	scored := Score(c, route, fm, idx, 0.25)

	assert.InDelta(t, 2.0, scored.SLAPenaltyHours, 1e-9)
	assert.InDelta(t, 3000, scored.SLAPenalty, 1e-9)
	assert.False(t, scored.OnTime)
	assert.InDelta(t, 80000-12000-500-3000, scored.Margin, 1e-9)
}

func TestScore_DueByExactlyAtArrivalHasNoPenalty(t *testing.T) {
	fm, idx, route := twoLegWorld()
	c := models.Cargo{
		ID: "C1", Origin: "AAA", Destination: "CCC",
		WeightKg: 1000, VolumeM3: 5, RevenueINR: 80000,
		MaxTransitHours: 24, ReadyTime: ts(6, 0), DueBy: ts(14, 0),
		SLAPenaltyPerHour: 1500,
	}

	scored := Score(c, route, fm, idx, 0.25)
	assert.Zero(t, scored.SLAPenalty)
	assert.True(t, scored.OnTime)
}

func TestScore_DeniedRouteUsesDenialFactor(t *testing.T) {
	fm, idx, _ := twoLegWorld()
	c := models.Cargo{ID: "C1", RevenueINR: 40000}

	scored := Score(c, models.DeniedRoute("C1"), fm, idx, 0.25)
	assert.InDelta(t, -10000, scored.Margin, 1e-9)

	scored = Score(c, models.DeniedRoute("C1"), fm, idx, 0.5)
	assert.InDelta(t, -20000, scored.Margin, 1e-9)
}

func TestRevenueDensity_GuardsZeroWeight(t *testing.T) {
	assert.InDelta(t, 50, RevenueDensity(50000, 1000), 1e-9)
	assert.Greater(t, RevenueDensity(50000, 0), 0.0)
}

func TestScoreAll_PreservesOrder(t *testing.T) {
	fm, idx, route := twoLegWorld()
	c := models.Cargo{
		ID: "C1", Origin: "AAA", Destination: "CCC",
		WeightKg: 1000, RevenueINR: 80000,
		MaxTransitHours: 24, ReadyTime: ts(6, 0), DueBy: ts(15, 0),
	}

	scored := ScoreAll(c, []models.RouteOption{route, models.DeniedRoute("C1")}, fm, idx, 0.25)
	assert.Len(t, scored, 2)
	assert.False(t, scored[0].Denied)
	assert.True(t, scored[1].Denied)
}
