// Package main is the batch planner CLI: load the CSV/JSON inputs, run
// the planning pipeline (optionally followed by a disruption re-plan),
// and write the four output artifacts.
//
// Exit codes: 0 on success, 2 on data validation failure, 1 on any other
// error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/loader"
	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/output"
	"github.com/airfreight/cargoplan/internal/planning"
	"github.com/airfreight/cargoplan/internal/planning/disruption"
	applogger "github.com/airfreight/cargoplan/pkg/logger"
)

const (
	exitOK         = 0
	exitError      = 1
	exitValidation = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		flightsPath = flag.String("flights", "flights.csv", "path to flights.csv")
		cargoPath   = flag.String("cargo", "cargo.csv", "path to cargo.csv")
		connPath    = flag.String("connections", "", "path to connections.csv (optional)")
		eventsPath  = flag.String("events", "", "path to a disruption events JSON file (optional)")
		outDir      = flag.String("out", "out", "directory for the output artifacts")
		seed        = flag.Int64("seed", 0, "optimizer seed (0 uses the configured default)")
	)
	flag.Parse()

	cfg := config.FromEnv()
	if *seed != 0 {
		cfg.Seed = *seed
	}
	log := applogger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := loadInputs(*flightsPath, *cargoPath, *connPath)
	if err != nil {
		return report(log, err)
	}

	pipeline := planning.New(cfg, log)
	baseline, err := pipeline.Plan(ctx, in)
	if err != nil {
		return report(log, err)
	}
	result := baseline

	if *eventsPath != "" {
		events, err := loader.LoadDisruptionEvents(*eventsPath)
		if err != nil {
			return report(log, err)
		}
		out, err := disruption.New(cfg, log).Disrupt(ctx, in, baseline, events)
		if err != nil {
			return report(log, err)
		}
		result = out.Plan
	}

	if err := output.WritePlan(*outDir, result); err != nil {
		return report(log, err)
	}

	fmt.Printf("run %s: margin %.2f, delivered %d, rolled %d, denied %d -> %s\n",
		result.RunID, result.Summary.TotalMargin,
		result.Summary.Delivered, result.Summary.Rolled, result.Summary.Denied,
		*outDir)
	return exitOK
}

func loadInputs(flightsPath, cargoPath, connPath string) (planning.Inputs, error) {
	var in planning.Inputs
	var err error

	if in.Flights, err = loader.LoadFlights(flightsPath); err != nil {
		return in, err
	}
	if in.Cargo, err = loader.LoadCargo(cargoPath); err != nil {
		return in, err
	}
	if connPath != "" {
		if in.Rules, err = loader.LoadConnections(connPath); err != nil {
			return in, err
		}
	}
	return in, nil
}

func report(log *applogger.Logger, err error) int {
	var vErr *models.DataValidationError
	if errors.As(err, &vErr) {
		log.Error("input validation failed", "error", err)
		return exitValidation
	}
	log.Error("planner failed", "error", err)
	return exitError
}
