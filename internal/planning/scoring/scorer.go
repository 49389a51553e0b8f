// Package scoring implements C2, the deterministic route scorer: turns a
// route's legs into operating cost, handling cost, SLA penalty, and margin.
// Money arithmetic uses shopspring/decimal internally so thousands of
// route/cargo combinations never accumulate float64 cent-level drift; the
// public RouteOption fields remain float64 for compatibility with the rest
// of the pipeline, converted back at the end of Score.
package scoring

import (
	"github.com/airfreight/cargoplan/internal/models"
	"github.com/shopspring/decimal"
)

const epsilon = 1e-6

// Score computes the full cost/penalty/margin breakdown for route against
// cargo, per spec.md §4.2. flights resolves per-leg cost_per_kg; rules
// resolves per-connection handling fees. The returned RouteOption is a copy
// of route with all derived fields populated.
func Score(cargo models.Cargo, route models.RouteOption, flights *models.FlightMap, rules *models.ConnectionIndex, denialFactor float64) models.RouteOption {
	if route.Denied {
		route.Margin = -cargo.RevenueINR * denialFactor
		return route
	}

	weight := decimal.NewFromFloat(cargo.WeightKg)

	operating := decimal.Zero
	for _, leg := range route.Legs {
		fl := flights.Get(leg.FlightID)
		if fl == nil {
			continue
		}
		operating = operating.Add(decimal.NewFromFloat(fl.CostPerKg).Mul(weight))
	}

	handling := decimal.NewFromFloat(cargo.HandlingCostPerKg).Mul(weight)
	for i := 0; i < len(route.Legs)-1; i++ {
		rule := rules.Lookup(cargo.Origin, cargo.Destination, route.Legs[i].Destination)
		handling = handling.Add(decimal.NewFromFloat(rule.HandlingFee))
	}

	last := route.LastArrival()
	first := route.FirstDeparture()

	latenessHours := 0.0
	if last.After(cargo.DueBy) {
		latenessHours = last.Sub(cargo.DueBy).Hours()
	}
	slaPenalty := decimal.NewFromFloat(latenessHours).Mul(decimal.NewFromFloat(cargo.SLAPenaltyPerHour))

	revenue := decimal.NewFromFloat(cargo.RevenueINR)
	margin := revenue.Sub(operating).Sub(handling).Sub(slaPenalty)

	route.OperatingCost, _ = operating.Round(2).Float64()
	route.HandlingCost, _ = handling.Round(2).Float64()
	route.SLAPenaltyHours = latenessHours
	route.SLAPenalty, _ = slaPenalty.Round(2).Float64()
	route.TransitHours = last.Sub(first).Hours()
	route.Margin, _ = margin.Round(2).Float64()
	route.OnTime = latenessHours <= 0

	return route
}

// RevenueDensity returns revenue per kilogram, treating a weight below
// epsilon as epsilon so a zero weight does not divide by zero.
func RevenueDensity(revenue, weight float64) float64 {
	w := weight
	if w < epsilon {
		w = epsilon
	}
	return revenue / w
}

// ScoreAll scores every route in options for cargo, preserving order.
func ScoreAll(cargo models.Cargo, options []models.RouteOption, flights *models.FlightMap, rules *models.ConnectionIndex, denialFactor float64) []models.RouteOption {
	scored := make([]models.RouteOption, len(options))
	for i, r := range options {
		scored[i] = Score(cargo, r, flights, rules, denialFactor)
	}
	return scored
}
