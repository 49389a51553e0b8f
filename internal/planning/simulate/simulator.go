// Package simulate implements C5: given one route choice per cargo, walk
// the flights in departure order, run the knapsack selector on each, and
// materialize the full assignment, flight loads, and margin total.
package simulate

import (
	"sort"

	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning/knapsack"
)

// World is the read-only input shared by every simulation of a run: the
// flight map, the cargo list in canonical (ascending ID) order, the
// connection rules, and the route catalog parallel to the cargo list.
// Safe to share across concurrent evaluator workers once built.
type World struct {
	Flights        *models.FlightMap
	Cargo          []models.Cargo
	Rules          *models.ConnectionIndex
	Catalog        [][]models.RouteOption
	Weights        config.KnapsackWeights
	OverrideFactor float64
	DenialFactor   float64
}

// Result is the outcome of simulating one individual.
type Result struct {
	Assignments map[string]models.CargoAssignment
	FlightLoads []models.FlightLoad
	Alerts      []models.Alert
	TotalMargin float64
}

// progress tracks one cargo's walk through its chosen route.
type progress struct {
	route  models.RouteOption
	nextLeg int
	rolled bool
}

// Run simulates the plan encoded by genes (one route index per cargo, in
// canonical cargo order). Out-of-range genes clamp to the last option so a
// mutated individual can never index past its catalog entry.
func Run(w *World, genes []int) Result {
	res := Result{Assignments: make(map[string]models.CargoAssignment, len(w.Cargo))}

	states := make([]progress, len(w.Cargo))
	for i, c := range w.Cargo {
		options := w.Catalog[i]
		gene := 0
		if i < len(genes) {
			gene = genes[i]
		}
		if gene < 0 {
			gene = 0
		}
		if gene >= len(options) {
			gene = len(options) - 1
		}
		route := options[gene]
		states[i] = progress{route: route}

		if route.Denied {
			res.Assignments[c.ID] = models.CargoAssignment{
				CargoID: c.ID,
				Status:  models.StatusDenied,
				Route:   route,
				Margin:  route.Margin,
				Reason:  "no feasible itinerary",
			}
			res.Alerts = append(res.Alerts, models.NewAlert(
				models.AlertBaselineException, models.SeverityWarning,
				"no feasible itinerary for cargo "+c.ID,
			).WithCargo(c.ID).WithStatus(models.StatusDenied))
		}
	}

	flights := w.Flights.All()
	sort.Slice(flights, func(i, j int) bool {
		if !flights[i].Departure.Equal(flights[j].Departure) {
			return flights[i].Departure.Before(flights[j].Departure)
		}
		return flights[i].ID < flights[j].ID
	})

	for _, fl := range flights {
		var candidates []knapsack.Candidate
		var indices []int
		for i := range w.Cargo {
			st := &states[i]
			if st.route.Denied || st.rolled || st.nextLeg >= len(st.route.Legs) {
				continue
			}
			leg := st.route.Legs[st.nextLeg]
			if leg.FlightID != fl.ID {
				continue
			}
			candidates = append(candidates, knapsack.Candidate{
				Cargo:      w.Cargo[i],
				DwellHours: leg.DwellAfter.Hours(),
			})
			indices = append(indices, i)
		}

		sel := knapsack.Select(*fl, candidates, w.Weights, w.OverrideFactor)
		res.Alerts = append(res.Alerts, sel.Alerts...)

		boarded := make(map[string]bool, len(sel.Boarded))
		for _, id := range sel.Boarded {
			boarded[id] = true
		}
		load := models.FlightLoad{
			FlightID:         fl.ID,
			Origin:           fl.Origin,
			Destination:      fl.Destination,
			Departure:        fl.Departure,
			Arrival:          fl.Arrival,
			WeightCapacityKg: fl.WeightCapacityKg,
			VolumeCapacityM3: fl.VolumeCapacityM3,
			BoardedCargo:     sel.Boarded,
		}

		for _, i := range indices {
			c := w.Cargo[i]
			st := &states[i]
			if boarded[c.ID] {
				st.nextLeg++
				load.BoardedWeightKg += c.WeightKg
				load.BoardedVolumeM3 += c.VolumeM3
				load.RevenueINR += c.RevenueINR
				continue
			}
			// Lost the capacity contest: all later legs of this plan are
			// unreachable. Capacity already granted on earlier flights is
			// not re-optimized downstream.
			st.rolled = true
			reason := sel.NotBoarded[c.ID]
			if reason == "" {
				reason = "lost capacity contest on flight " + fl.ID
			}
			res.Assignments[c.ID] = models.CargoAssignment{
				CargoID: c.ID,
				Status:  models.StatusRolled,
				Route:   st.route,
				Margin:  -c.RevenueINR * w.DenialFactor,
				Reason:  reason,
			}
		}

		load.WeightUtilizationPct = pct(load.BoardedWeightKg, fl.WeightCapacityKg)
		load.VolumeUtilizationPct = pct(load.BoardedVolumeM3, fl.VolumeCapacityM3)
		res.FlightLoads = append(res.FlightLoads, load)
	}

	for i, c := range w.Cargo {
		st := &states[i]
		if st.route.Denied || st.rolled {
			continue
		}
		if st.nextLeg == len(st.route.Legs) {
			res.Assignments[c.ID] = models.CargoAssignment{
				CargoID: c.ID,
				Status:  models.StatusDelivered,
				Route:   st.route,
				Margin:  st.route.Margin,
			}
		} else {
			// A route whose first leg never departed in this flight set,
			// e.g. after a cancel disruption invalidated the catalog.
			res.Assignments[c.ID] = models.CargoAssignment{
				CargoID: c.ID,
				Status:  models.StatusRolled,
				Route:   st.route,
				Margin:  -c.RevenueINR * w.DenialFactor,
				Reason:  "itinerary incomplete in current flight set",
			}
		}
	}

	// Priority guarantee: any high or medium cargo that did not deliver
	// must carry a violation alert explaining why.
	alerted := make(map[string]bool)
	for _, a := range res.Alerts {
		if a.Kind == models.AlertPriorityGuaranteeViolation {
			alerted[a.CargoID] = true
		}
	}
	for _, c := range w.Cargo {
		if c.Priority == models.PriorityLow {
			continue
		}
		asg := res.Assignments[c.ID]
		if asg.Status == models.StatusDelivered || alerted[c.ID] {
			continue
		}
		res.Alerts = append(res.Alerts, models.NewAlert(
			models.AlertPriorityGuaranteeViolation, models.SeverityCritical,
			c.Priority.String()+" priority cargo "+c.ID+" was not delivered: "+asg.Reason,
		).WithCargo(c.ID).WithStatus(asg.Status))
	}

	// Canonical cargo order keeps the float sum identical across runs.
	for _, c := range w.Cargo {
		res.TotalMargin += res.Assignments[c.ID].Margin
	}
	return res
}

// Summarize folds a result into the run-level totals.
func Summarize(res Result) models.PlanSummary {
	s := models.PlanSummary{TotalMargin: res.TotalMargin, AlertCounts: make(map[string]int)}
	for _, asg := range res.Assignments {
		switch asg.Status {
		case models.StatusDelivered:
			s.Delivered++
		case models.StatusRolled:
			s.Rolled++
		case models.StatusDenied:
			s.Denied++
		}
	}
	for _, a := range res.Alerts {
		s.AlertCounts[a.Kind.String()]++
	}
	if n := len(res.FlightLoads); n > 0 {
		for _, l := range res.FlightLoads {
			s.AvgWeightUtilizationPct += l.WeightUtilizationPct
			s.AvgVolumeUtilizationPct += l.VolumeUtilizationPct
		}
		s.AvgWeightUtilizationPct /= float64(n)
		s.AvgVolumeUtilizationPct /= float64(n)
	}
	return s
}

func pct(used, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return used / capacity * 100
}
