// Package planning wires the optimization core together: route
// enumeration, the genetic search, and the simulation of the winning
// individual, producing the assignment, flight loads, alerts and summary
// a single run emits.
package planning

import (
	"context"
	"sort"
	"time"

	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/metrics"
	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning/ga"
	"github.com/airfreight/cargoplan/internal/planning/routes"
	"github.com/airfreight/cargoplan/internal/planning/simulate"
	"github.com/airfreight/cargoplan/pkg/logger"
)

// Inputs is one run's worth of validated planning data.
type Inputs struct {
	Flights []models.Flight
	Cargo   []models.Cargo
	Rules   []models.ConnectionRule
}

// PlanResult is everything a finished run produces. Assignments is keyed
// by cargo ID; Cargo carries the canonical order the run used.
type PlanResult struct {
	RunID       string
	Seed        int64
	Cargo       []models.Cargo
	Assignments map[string]models.CargoAssignment
	FlightLoads []models.FlightLoad
	Alerts      []models.Alert
	Summary     models.PlanSummary
	BestGenes   []int
	Generations int
}

// Pipeline runs the full C1->C4->C5 chain.
type Pipeline struct {
	cfg config.Config
	log *logger.Logger
}

// New builds a Pipeline. A nil logger falls back to the package default.
func New(cfg config.Config, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.New()
	}
	return &Pipeline{cfg: cfg, log: log}
}

// Plan executes one full planning run with the configured seed.
func (p *Pipeline) Plan(ctx context.Context, in Inputs) (*PlanResult, error) {
	return p.PlanSeeded(ctx, in, p.cfg.Seed)
}

// PlanSeeded executes one full planning run with an explicit seed (the
// disruption engine reruns with a derived seed).
func (p *Pipeline) PlanSeeded(ctx context.Context, in Inputs, seed int64) (*PlanResult, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	if err := validate(in); err != nil {
		return nil, err
	}

	world := p.buildWorld(in)

	cfg := p.cfg
	cfg.Seed = seed
	out, err := ga.New(world, cfg).Optimize(ctx)
	if err != nil {
		return nil, err
	}
	metrics.GAGenerations.Set(float64(out.Generations))
	metrics.GABestFitness.Set(out.BestFitness)

	res := out.Best
	if out.TimedOut {
		res.Alerts = append(res.Alerts, models.NewAlert(
			models.AlertPartialOptimization, models.SeverityInfo,
			"optimization budget exhausted; returning best plan found so far",
		))
	}
	for _, a := range res.Alerts {
		metrics.AlertsEmitted.WithLabelValues(a.Kind.String(), a.Severity.String()).Inc()
	}

	summary := simulate.Summarize(res)
	p.log.Info("plan complete",
		"cargo", len(world.Cargo),
		"delivered", summary.Delivered,
		"rolled", summary.Rolled,
		"denied", summary.Denied,
		"total_margin", summary.TotalMargin,
		"generations", out.Generations,
	)

	// The run id is derived from the inputs and seed so identical runs
	// produce byte-identical artifacts; the random id is only a fallback
	// for the unreachable fingerprint failure path.
	runID := models.NewRunID()
	if fp, err := Fingerprint(in, seed); err == nil {
		runID = "run-" + fp[:16]
	}

	return &PlanResult{
		RunID:       runID,
		Seed:        seed,
		Cargo:       world.Cargo,
		Assignments: res.Assignments,
		FlightLoads: res.FlightLoads,
		Alerts:      res.Alerts,
		Summary:     summary,
		BestGenes:   out.BestGenes,
		Generations: out.Generations,
	}, nil
}

// buildWorld canonicalizes the inputs and enumerates the route catalog.
func (p *Pipeline) buildWorld(in Inputs) *simulate.World {
	cargo := make([]models.Cargo, len(in.Cargo))
	copy(cargo, in.Cargo)
	sort.Slice(cargo, func(i, j int) bool { return cargo[i].ID < cargo[j].ID })

	fm := models.NewFlightMap(in.Flights)
	idx := models.NewConnectionIndex(in.Rules)
	enum := routes.New(fm, idx, p.cfg.MaxLegs, p.cfg.DenialFactor)

	catalog := make([][]models.RouteOption, len(cargo))
	for i, c := range cargo {
		catalog[i] = enum.Enumerate(c)
	}

	return &simulate.World{
		Flights:        fm,
		Cargo:          cargo,
		Rules:          idx,
		Catalog:        catalog,
		Weights:        p.cfg.KnapsackWeights,
		OverrideFactor: p.cfg.OverrideFactor,
		DenialFactor:   p.cfg.DenialFactor,
	}
}

func validate(in Inputs) error {
	seenF := make(map[string]bool, len(in.Flights))
	for _, f := range in.Flights {
		if err := f.Validate(); err != nil {
			return err
		}
		if seenF[f.ID] {
			return &models.DataValidationError{Field: "flight_id", Reason: "duplicate flight id " + f.ID}
		}
		seenF[f.ID] = true
	}
	seenC := make(map[string]bool, len(in.Cargo))
	for _, c := range in.Cargo {
		if err := c.Validate(); err != nil {
			return err
		}
		if seenC[c.ID] {
			return &models.DataValidationError{Field: "cargo_id", Reason: "duplicate cargo id " + c.ID}
		}
		seenC[c.ID] = true
	}
	for _, r := range in.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
