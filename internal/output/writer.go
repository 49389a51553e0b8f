// Package output serializes a finished plan into the four artifact files:
// plan_routes.csv, flight_loads.csv, alerts.csv and plan_summary.json.
// Rows are emitted in canonical (cargo/flight) order so identical plans
// produce byte-identical files.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning"
)

// File names of the emitted artifacts.
const (
	RoutesFile  = "plan_routes.csv"
	LoadsFile   = "flight_loads.csv"
	AlertsFile  = "alerts.csv"
	SummaryFile = "plan_summary.json"
)

// WritePlan writes all four artifacts into dir, creating it if needed.
func WritePlan(dir string, res *planning.PlanResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	writers := []struct {
		name  string
		write func(io.Writer, *planning.PlanResult) error
	}{
		{RoutesFile, WriteRoutes},
		{LoadsFile, WriteFlightLoads},
		{AlertsFile, WriteAlerts},
		{SummaryFile, WriteSummary},
	}
	for _, w := range writers {
		f, err := os.Create(filepath.Join(dir, w.name))
		if err != nil {
			return fmt.Errorf("creating %s: %w", w.name, err)
		}
		if err := w.write(f, res); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", w.name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", w.name, err)
		}
	}
	return nil
}

// WriteRoutes emits one row per cargo in canonical order.
func WriteRoutes(w io.Writer, res *planning.PlanResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"cargo_id", "status", "reason", "flights", "etd", "eta",
		"total_cost", "revenue_inr", "margin", "transit_hours",
		"sla_penalty", "handling_cost", "notes",
	}); err != nil {
		return err
	}

	for _, c := range res.Cargo {
		asg := res.Assignments[c.ID]
		route := asg.Route

		flightsCol := "DENIED"
		etd, eta := "", ""
		if !route.Denied && len(route.Legs) > 0 {
			flightsCol = strings.Join(route.FlightIDs(), " ")
			etd = route.FirstDeparture().Format(time.RFC3339)
			eta = route.LastArrival().Format(time.RFC3339)
		}

		var notes []string
		for i := 0; i < len(route.Legs)-1; i++ {
			notes = append(notes, fmt.Sprintf("dwell %s %.0fm", route.Legs[i].Destination, route.Legs[i].DwellAfter.Minutes()))
		}

		if err := cw.Write([]string{
			c.ID,
			asg.Status.String(),
			asg.Reason,
			flightsCol,
			etd,
			eta,
			formatMoney(route.OperatingCost + route.HandlingCost + route.SLAPenalty),
			formatMoney(c.RevenueINR),
			formatMoney(asg.Margin),
			strconv.FormatFloat(route.TransitHours, 'f', 2, 64),
			formatMoney(route.SLAPenalty),
			formatMoney(route.HandlingCost),
			strings.Join(notes, "; "),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFlightLoads emits one row per flight in departure order, as the
// simulator produced them.
func WriteFlightLoads(w io.Writer, res *planning.PlanResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"flight_id", "origin", "destination", "departure", "arrival",
		"weight_capacity_kg", "volume_capacity_m3", "boarded_cargo",
		"boarded_weight_kg", "boarded_volume_m3",
		"weight_utilization_pct", "volume_utilization_pct", "revenue_inr",
	}); err != nil {
		return err
	}

	for _, l := range res.FlightLoads {
		if err := cw.Write([]string{
			l.FlightID,
			l.Origin,
			l.Destination,
			l.Departure.Format(time.RFC3339),
			l.Arrival.Format(time.RFC3339),
			strconv.FormatFloat(l.WeightCapacityKg, 'f', 2, 64),
			strconv.FormatFloat(l.VolumeCapacityM3, 'f', 2, 64),
			strings.Join(l.BoardedCargo, " "),
			strconv.FormatFloat(l.BoardedWeightKg, 'f', 2, 64),
			strconv.FormatFloat(l.BoardedVolumeM3, 'f', 2, 64),
			strconv.FormatFloat(l.WeightUtilizationPct, 'f', 2, 64),
			strconv.FormatFloat(l.VolumeUtilizationPct, 'f', 2, 64),
			formatMoney(l.RevenueINR),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAlerts emits alerts in the order they were raised.
func WriteAlerts(w io.Writer, res *planning.PlanResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"alert_type", "severity", "message", "cargo_id", "flight_id", "status", "margin_delta",
	}); err != nil {
		return err
	}

	for _, a := range res.Alerts {
		status := ""
		if a.Status != nil {
			status = a.Status.String()
		}
		delta := ""
		if a.MarginDelta != nil {
			delta = formatMoney(*a.MarginDelta)
		}
		if err := cw.Write([]string{
			a.Kind.String(),
			a.Severity.String(),
			a.Message,
			a.CargoID,
			a.FlightID,
			status,
			delta,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// summaryDoc is the plan_summary.json shape: the run-level totals plus
// run identity fields.
type summaryDoc struct {
	RunID       string `json:"run_id"`
	Seed        int64  `json:"seed"`
	Generations int    `json:"generations"`
	models.PlanSummary
}

// WriteSummary emits plan_summary.json.
func WriteSummary(w io.Writer, res *planning.PlanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaryDoc{
		RunID:       res.RunID,
		Seed:        res.Seed,
		Generations: res.Generations,
		PlanSummary: res.Summary,
	})
}

func formatMoney(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
