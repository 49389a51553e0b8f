// Package routes implements C1, the route enumerator: depth-first search
// over the temporal flight graph bounded by leg count and transit time,
// producing a cargo's on-time itineraries, one relaxed late itinerary for
// high/medium cargo when none is on time, and a DENIED option only when
// no itinerary is left.
package routes

import (
	"sort"
	"time"

	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning/scoring"
)

// Enumerator holds the read-only world views C1 needs: the flight map (for
// origin-indexed expansion) and the connection rule index (for dwell
// windows). Both are safe to share across concurrent callers once built.
type Enumerator struct {
	flights      *models.FlightMap
	rules        *models.ConnectionIndex
	maxLegs      int
	denialFactor float64
}

// New builds an Enumerator bound to a maxLegs cap (spec.md default: 4).
func New(flights *models.FlightMap, rules *models.ConnectionIndex, maxLegs int, denialFactor float64) *Enumerator {
	if maxLegs <= 0 {
		maxLegs = 4
	}
	return &Enumerator{flights: flights, rules: rules, maxLegs: maxLegs, denialFactor: denialFactor}
}

// Enumerate returns an ordered, non-empty list of RouteOptions for cargo,
// per spec.md §4.1. It never raises: a DENIED RouteOption is always a
// legal fallback.
func (e *Enumerator) Enumerate(cargo models.Cargo) []models.RouteOption {
	var onTime, late []models.RouteOption

	var walk func(legs []models.Leg, current string, lastArrival time.Time, isFirst bool)
	walk = func(legs []models.Leg, current string, lastArrival time.Time, isFirst bool) {
		if len(legs) >= e.maxLegs {
			return
		}
		for _, fl := range e.flights.FromOrigin(current) {
			var earliestDeparture time.Time
			if isFirst {
				earliestDeparture = cargo.ReadyTime
			} else {
				rule := e.rules.Lookup(cargo.Origin, cargo.Destination, current)
				earliestDeparture = lastArrival.Add(time.Duration(rule.MinConnectionMinutes) * time.Minute)
				latestDeparture := lastArrival.Add(time.Duration(rule.MaxConnectionMinutes) * time.Minute)
				if fl.Departure.After(latestDeparture) {
					continue
				}
			}
			if fl.Departure.Before(earliestDeparture) {
				continue
			}

			elapsed := fl.Arrival.Sub(legs0Departure(legs, fl.Departure)).Hours()
			if elapsed > cargo.MaxTransitHours {
				continue
			}

			leg := models.Leg{
				FlightID:    fl.ID,
				Origin:      fl.Origin,
				Destination: fl.Destination,
				Departure:   fl.Departure,
				Arrival:     fl.Arrival,
			}
			extended := append(append([]models.Leg{}, legs...), leg)

			if fl.Destination == cargo.Destination {
				onTimeRoute, lateRoute := classify(cargo, extended)
				if onTimeRoute != nil {
					onTime = append(onTime, *onTimeRoute)
				} else if lateRoute != nil {
					late = append(late, *lateRoute)
				}
			}

			// Extend legs that stop short of the destination; an itinerary
			// that has reached the destination is not extended further.
			if fl.Destination != cargo.Destination {
				walk(extended, fl.Destination, fl.Arrival, false)
			}
		}
	}

	walk(nil, cargo.Origin, time.Time{}, true)

	// Fill in dwell times now that each leg's successor is fixed, then score
	// every candidate so on-time options can be ordered by ascending
	// operating+handling cost per spec.md §4.1.
	for i := range onTime {
		fillDwell(onTime[i].Legs)
		onTime[i] = scoring.Score(cargo, onTime[i], e.flights, e.rules, e.denialFactor)
	}
	for i := range late {
		fillDwell(late[i].Legs)
		late[i] = scoring.Score(cargo, late[i], e.flights, e.rules, e.denialFactor)
	}

	sort.SliceStable(onTime, func(i, j int) bool {
		ci := onTime[i].OperatingCost + onTime[i].HandlingCost
		cj := onTime[j].OperatingCost + onTime[j].HandlingCost
		return ci < cj
	})

	var options []models.RouteOption
	options = append(options, onTime...)

	if len(options) == 0 && (cargo.Priority == models.PriorityHigh || cargo.Priority == models.PriorityMedium) && len(late) > 0 {
		sort.SliceStable(late, func(i, j int) bool {
			return late[i].TransitHours < late[j].TransitHours
		})
		options = append(options, late[0])
	}

	if len(options) == 0 {
		options = append(options, scoring.Score(cargo, models.DeniedRoute(cargo.ID), e.flights, e.rules, e.denialFactor))
	}

	return options
}

// legs0Departure returns the first leg's departure time for transit-hours
// accounting, or the candidate flight's own departure when legs is empty
// (single-leg itinerary).
func legs0Departure(legs []models.Leg, fallback time.Time) time.Time {
	if len(legs) == 0 {
		return fallback
	}
	return legs[0].Departure
}

// classify builds a RouteOption for a completed itinerary and decides
// whether it is on-time (no SLA penalty) or late (arrives after due_by).
// Cost/margin fields are left for the scorer; only the fields the
// enumerator itself needs to order and select by are set here.
func classify(cargo models.Cargo, legs []models.Leg) (onTime, late *models.RouteOption) {
	last := legs[len(legs)-1]
	transitHours := last.Arrival.Sub(legs[0].Departure).Hours()

	route := models.RouteOption{
		CargoID:      cargo.ID,
		Legs:         legs,
		TransitHours: transitHours,
	}

	if !last.Arrival.After(cargo.DueBy) {
		route.OnTime = true
		return &route, nil
	}
	route.OnTime = false
	return nil, &route
}

// fillDwell sets DwellAfter on every leg but the last.
func fillDwell(legs []models.Leg) {
	for i := 0; i < len(legs)-1; i++ {
		legs[i].DwellAfter = legs[i+1].Departure.Sub(legs[i].Arrival)
	}
}
