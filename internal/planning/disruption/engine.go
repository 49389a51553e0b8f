// Package disruption implements C6: apply delay/cancel/swap events to a
// baseline flight set, re-run the planning pipeline on the mutated world,
// and diff the new plan against the baseline into alerts.
package disruption

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/metrics"
	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning"
	"github.com/airfreight/cargoplan/pkg/logger"
)

// seedSalt is XORed into the baseline seed for the re-optimization so the
// disrupted search does not retrace the baseline's random walk.
const seedSalt int64 = 0x5DEECE66D

// Result bundles the re-optimized plan with the diff alerts. Plan.Alerts
// already contains the combined list (re-optimization alerts, one
// disruption_applied per event, and the baseline diff).
type Result struct {
	Plan   *planning.PlanResult
	Events []models.DisruptionEvent
}

// Engine applies events and re-optimizes.
type Engine struct {
	cfg      config.Config
	pipeline *planning.Pipeline
	log      *logger.Logger
}

// New builds an Engine sharing the pipeline's configuration.
func New(cfg config.Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.New()
	}
	return &Engine{cfg: cfg, pipeline: planning.New(cfg, log), log: log}
}

// Disrupt mutates the flight set per events, re-runs the pipeline with a
// derived seed, and diffs the outcome against baseline. An empty event
// list returns the baseline unchanged, with no alerts added. It never
// fails on optimization-level conditions; only context cancellation and
// malformed events surface as errors.
func (e *Engine) Disrupt(ctx context.Context, in planning.Inputs, baseline *planning.PlanResult, events []models.DisruptionEvent) (*Result, error) {
	if len(events) == 0 {
		return &Result{Plan: baseline}, nil
	}

	mutated, applied, err := applyEvents(in.Flights, events)
	if err != nil {
		return nil, err
	}

	plan, err := e.pipeline.PlanSeeded(ctx, planning.Inputs{
		Flights: mutated,
		Cargo:   in.Cargo,
		Rules:   in.Rules,
	}, baseline.Seed^seedSalt)
	if err != nil {
		return nil, err
	}

	diff := diffPlans(baseline, plan, e.cfg.DisruptionMarginAbs, e.cfg.DisruptionMarginRelative)
	plan.Alerts = append(plan.Alerts, applied...)
	plan.Alerts = append(plan.Alerts, diff...)
	plan.Summary.AlertCounts = countAlerts(plan.Alerts)

	e.log.Info("disruption analyzed",
		"events", len(events),
		"diff_alerts", len(diff),
		"total_margin", plan.Summary.TotalMargin,
	)
	return &Result{Plan: plan, Events: events}, nil
}

// applyEvents clones the flight list and applies each event in input
// order, emitting one disruption_applied info alert per event. An event
// naming an unknown flight is reported with warning severity and skipped
// rather than failing the run.
func applyEvents(flights []models.Flight, events []models.DisruptionEvent) ([]models.Flight, []models.Alert, error) {
	fm := models.NewFlightMap(flights).Clone()
	var alerts []models.Alert

	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return nil, nil, err
		}
		fl := fm.Get(ev.FlightID)
		if fl == nil {
			alerts = append(alerts, models.NewAlert(
				models.AlertDisruptionApplied, models.SeverityWarning,
				fmt.Sprintf("%s event ignored: flight %s not in baseline", ev.Kind, ev.FlightID),
			).WithFlight(ev.FlightID))
			continue
		}

		switch ev.Kind {
		case models.EventDelay:
			shift := time.Duration(ev.DelayMinutes * float64(time.Minute))
			fl.Departure = fl.Departure.Add(shift)
			fl.Arrival = fl.Arrival.Add(shift)
			alerts = append(alerts, models.NewAlert(
				models.AlertDisruptionApplied, models.SeverityInfo,
				fmt.Sprintf("flight %s delayed by %.0f minutes", ev.FlightID, ev.DelayMinutes),
			).WithFlight(ev.FlightID))
		case models.EventCancel:
			fm.Delete(ev.FlightID)
			alerts = append(alerts, models.NewAlert(
				models.AlertDisruptionApplied, models.SeverityInfo,
				"flight "+ev.FlightID+" cancelled",
			).WithFlight(ev.FlightID))
		case models.EventSwap:
			if ev.NewWeightCapacityKg != nil {
				fl.WeightCapacityKg = *ev.NewWeightCapacityKg
			}
			if ev.NewVolumeCapacityM3 != nil {
				fl.VolumeCapacityM3 = *ev.NewVolumeCapacityM3
			}
			alerts = append(alerts, models.NewAlert(
				models.AlertDisruptionApplied, models.SeverityInfo,
				fmt.Sprintf("flight %s capacity swapped to %.0fkg/%.1fm3", ev.FlightID, fl.WeightCapacityKg, fl.VolumeCapacityM3),
			).WithFlight(ev.FlightID))
		}
		metrics.DisruptionEventsApplied.WithLabelValues(ev.Kind.String()).Inc()
	}

	mutated := make([]models.Flight, 0)
	for _, f := range fm.All() {
		mutated = append(mutated, *f)
	}
	sort.Slice(mutated, func(i, j int) bool { return mutated[i].ID < mutated[j].ID })
	return mutated, alerts, nil
}

// diffPlans compares the re-optimized plan to the baseline cargo by cargo
// in canonical order.
func diffPlans(baseline, next *planning.PlanResult, marginAbs, marginRel float64) []models.Alert {
	var alerts []models.Alert

	for _, c := range baseline.Cargo {
		before, okBefore := baseline.Assignments[c.ID]
		after, okAfter := next.Assignments[c.ID]

		if okBefore && !okAfter {
			alerts = append(alerts, models.NewAlert(
				models.AlertCargoMissing, models.SeverityWarning,
				"cargo "+c.ID+" present in baseline but missing after disruption",
			).WithCargo(c.ID))
			continue
		}
		if !okBefore {
			continue
		}

		if before.Status != after.Status {
			alerts = append(alerts, models.NewAlert(
				models.AlertStatusChange, statusChangeSeverity(before.Status, after.Status),
				fmt.Sprintf("cargo %s changed from %s to %s", c.ID, before.Status, after.Status),
			).WithCargo(c.ID).WithStatus(after.Status))
		} else if before.Status == models.StatusDelivered && !sameRoute(before.Route, after.Route) {
			alerts = append(alerts, models.NewAlert(
				models.AlertReroute, models.SeverityInfo,
				fmt.Sprintf("cargo %s rerouted from %v to %v", c.ID, before.Route.FlightIDs(), after.Route.FlightIDs()),
			).WithCargo(c.ID))
		}

		delta := after.Margin - before.Margin
		threshold := marginAbs
		if rel := marginRel * abs(before.Margin); rel > threshold {
			threshold = rel
		}
		if abs(delta) > threshold {
			alerts = append(alerts, models.NewAlert(
				models.AlertMarginChange, models.SeverityInfo,
				fmt.Sprintf("cargo %s margin moved by %.2f", c.ID, delta),
			).WithCargo(c.ID).WithMarginDelta(delta))
		}
	}
	return alerts
}

// statusChangeSeverity follows the diff rules: losing a delivery is
// critical, degrading to rolled is a warning, recovering is info.
func statusChangeSeverity(before, after models.Status) models.Severity {
	switch {
	case before == models.StatusDelivered && after == models.StatusDenied:
		return models.SeverityCritical
	case before == models.StatusDelivered && after == models.StatusRolled:
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

func sameRoute(a, b models.RouteOption) bool {
	ai, bi := a.FlightIDs(), b.FlightIDs()
	if len(ai) != len(bi) {
		return false
	}
	for i := range ai {
		if ai[i] != bi[i] {
			return false
		}
	}
	return true
}

func countAlerts(alerts []models.Alert) map[string]int {
	counts := make(map[string]int)
	for _, a := range alerts {
		counts[a.Kind.String()]++
	}
	return counts
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
