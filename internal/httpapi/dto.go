// Package httpapi exposes the planning pipeline over Fiber: run a plan,
// run the bundled sample, apply disruptions, and fetch past runs.
package httpapi

import (
	"time"

	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// FlightRequest mirrors one flights.csv row.
type FlightRequest struct {
	FlightID         string  `json:"flight_id"`
	Origin           string  `json:"origin"`
	Destination      string  `json:"destination"`
	Departure        string  `json:"departure"`
	Arrival          string  `json:"arrival"`
	WeightCapacityKg float64 `json:"weight_capacity_kg"`
	VolumeCapacityM3 float64 `json:"volume_capacity_m3"`
	CostPerKg        float64 `json:"cost_per_kg"`
}

// CargoRequest mirrors one cargo.csv row.
type CargoRequest struct {
	CargoID           string  `json:"cargo_id"`
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	WeightKg          float64 `json:"weight_kg"`
	VolumeM3          float64 `json:"volume_m3"`
	RevenueINR        float64 `json:"revenue_inr"`
	Priority          string  `json:"priority"`
	Perishable        bool    `json:"perishable"`
	MaxTransitHours   float64 `json:"max_transit_hours"`
	ReadyTime         string  `json:"ready_time"`
	DueBy             string  `json:"due_by"`
	HandlingCostPerKg float64 `json:"handling_cost_per_kg"`
	SLAPenaltyPerHour float64 `json:"sla_penalty_per_hour"`
}

// ConnectionRequest mirrors one connections.csv row.
type ConnectionRequest struct {
	Origin               string  `json:"origin"`
	Destination          string  `json:"destination"`
	ConnectionAirport    string  `json:"connection_airport"`
	MinConnectionMinutes float64 `json:"min_connection_minutes"`
	MaxConnectionMinutes float64 `json:"max_connection_minutes"`
	HandlingFee          float64 `json:"handling_fee"`
}

// EventRequest mirrors one disruption event.
type EventRequest struct {
	EventType           string   `json:"event_type"`
	FlightID            string   `json:"flight_id"`
	DelayMinutes        float64  `json:"delay_minutes,omitempty"`
	NewWeightCapacityKg *float64 `json:"new_weight_capacity_kg,omitempty"`
	NewVolumeCapacityM3 *float64 `json:"new_volume_capacity_m3,omitempty"`
}

// PlanRequest carries a full planning input set.
type PlanRequest struct {
	Flights     []FlightRequest     `json:"flights"`
	Cargo       []CargoRequest      `json:"cargo"`
	Connections []ConnectionRequest `json:"connections,omitempty"`
	Seed        *int64              `json:"seed,omitempty"`
}

// DisruptRequest carries a planning input set plus the events to apply to
// its baseline plan.
type DisruptRequest struct {
	PlanRequest
	Events []EventRequest `json:"events"`
}

// RouteResponse is one cargo outcome in a plan payload.
type RouteResponse struct {
	CargoID      string   `json:"cargo_id"`
	Status       string   `json:"status"`
	Reason       string   `json:"reason,omitempty"`
	Flights      []string `json:"flights"`
	ETD          string   `json:"etd,omitempty"`
	ETA          string   `json:"eta,omitempty"`
	Margin       float64  `json:"margin"`
	RevenueINR   float64  `json:"revenue_inr"`
	TransitHours float64  `json:"transit_hours"`
	SLAPenalty   float64  `json:"sla_penalty"`
	HandlingCost float64  `json:"handling_cost"`
}

// FlightLoadResponse is one flight's load in a plan payload.
type FlightLoadResponse struct {
	FlightID             string   `json:"flight_id"`
	Origin               string   `json:"origin"`
	Destination          string   `json:"destination"`
	Departure            string   `json:"departure"`
	Arrival              string   `json:"arrival"`
	WeightCapacityKg     float64  `json:"weight_capacity_kg"`
	VolumeCapacityM3     float64  `json:"volume_capacity_m3"`
	BoardedCargo         []string `json:"boarded_cargo"`
	BoardedWeightKg      float64  `json:"boarded_weight_kg"`
	BoardedVolumeM3      float64  `json:"boarded_volume_m3"`
	WeightUtilizationPct float64  `json:"weight_utilization_pct"`
	VolumeUtilizationPct float64  `json:"volume_utilization_pct"`
	RevenueINR           float64  `json:"revenue_inr"`
}

// AlertResponse is one alert in a plan payload.
type AlertResponse struct {
	AlertType   string   `json:"alert_type"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	CargoID     string   `json:"cargo_id,omitempty"`
	FlightID    string   `json:"flight_id,omitempty"`
	Status      string   `json:"status,omitempty"`
	MarginDelta *float64 `json:"margin_delta,omitempty"`
}

// PlanResponse is the structured equivalent of the four output files.
type PlanResponse struct {
	RunID       string               `json:"run_id"`
	Seed        int64                `json:"seed"`
	Routes      []RouteResponse      `json:"routes"`
	FlightLoads []FlightLoadResponse `json:"flight_loads"`
	Alerts      []AlertResponse      `json:"alerts"`
	Summary     models.PlanSummary   `json:"summary"`
	Airports    map[string]string    `json:"airports,omitempty"`
}

// toInputs converts a PlanRequest to domain inputs, reporting the first
// malformed field as a DataValidationError.
func (r PlanRequest) toInputs() (planning.Inputs, error) {
	var in planning.Inputs

	for _, f := range r.Flights {
		dep, err := parseTime("departure", f.Departure)
		if err != nil {
			return in, err
		}
		arr, err := parseTime("arrival", f.Arrival)
		if err != nil {
			return in, err
		}
		in.Flights = append(in.Flights, models.Flight{
			ID:               f.FlightID,
			Origin:           f.Origin,
			Destination:      f.Destination,
			Departure:        dep,
			Arrival:          arr,
			WeightCapacityKg: f.WeightCapacityKg,
			VolumeCapacityM3: f.VolumeCapacityM3,
			CostPerKg:        f.CostPerKg,
		})
	}

	for _, c := range r.Cargo {
		ready, err := parseTime("ready_time", c.ReadyTime)
		if err != nil {
			return in, err
		}
		due, err := parseTime("due_by", c.DueBy)
		if err != nil {
			return in, err
		}
		prio, err := models.ParsePriority(c.Priority)
		if err != nil {
			return in, err
		}
		in.Cargo = append(in.Cargo, models.Cargo{
			ID:                c.CargoID,
			Origin:            c.Origin,
			Destination:       c.Destination,
			WeightKg:          c.WeightKg,
			VolumeM3:          c.VolumeM3,
			RevenueINR:        c.RevenueINR,
			Priority:          prio,
			Perishable:        c.Perishable,
			MaxTransitHours:   c.MaxTransitHours,
			ReadyTime:         ready,
			DueBy:             due,
			HandlingCostPerKg: c.HandlingCostPerKg,
			SLAPenaltyPerHour: c.SLAPenaltyPerHour,
		})
	}

	for _, cr := range r.Connections {
		in.Rules = append(in.Rules, models.ConnectionRule{
			Origin:               cr.Origin,
			Destination:          cr.Destination,
			ConnectionAirport:    cr.ConnectionAirport,
			MinConnectionMinutes: cr.MinConnectionMinutes,
			MaxConnectionMinutes: cr.MaxConnectionMinutes,
			HandlingFee:          cr.HandlingFee,
		})
	}

	return in, nil
}

func (r DisruptRequest) toEvents() ([]models.DisruptionEvent, error) {
	var events []models.DisruptionEvent
	for _, e := range r.Events {
		var kind models.EventKind
		switch e.EventType {
		case "delay":
			kind = models.EventDelay
		case "cancel":
			kind = models.EventCancel
		case "swap":
			kind = models.EventSwap
		default:
			return nil, &models.DataValidationError{Field: "event_type", Reason: "unrecognized event_type " + e.EventType}
		}
		events = append(events, models.DisruptionEvent{
			Kind:                kind,
			FlightID:            e.FlightID,
			DelayMinutes:        e.DelayMinutes,
			NewWeightCapacityKg: e.NewWeightCapacityKg,
			NewVolumeCapacityM3: e.NewVolumeCapacityM3,
		})
	}
	return events, nil
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &models.DataValidationError{Field: field, Reason: "not an RFC 3339 timestamp: " + value}
	}
	return t, nil
}

// toResponse flattens a PlanResult into the wire payload.
func toResponse(res *planning.PlanResult) PlanResponse {
	resp := PlanResponse{
		RunID:   res.RunID,
		Seed:    res.Seed,
		Summary: res.Summary,
	}

	for _, c := range res.Cargo {
		asg := res.Assignments[c.ID]
		row := RouteResponse{
			CargoID:      c.ID,
			Status:       asg.Status.String(),
			Reason:       asg.Reason,
			Flights:      asg.Route.FlightIDs(),
			Margin:       asg.Margin,
			RevenueINR:   c.RevenueINR,
			TransitHours: asg.Route.TransitHours,
			SLAPenalty:   asg.Route.SLAPenalty,
			HandlingCost: asg.Route.HandlingCost,
		}
		if !asg.Route.Denied && len(asg.Route.Legs) > 0 {
			row.ETD = asg.Route.FirstDeparture().Format(time.RFC3339)
			row.ETA = asg.Route.LastArrival().Format(time.RFC3339)
		}
		resp.Routes = append(resp.Routes, row)
	}

	for _, l := range res.FlightLoads {
		resp.FlightLoads = append(resp.FlightLoads, FlightLoadResponse{
			FlightID:             l.FlightID,
			Origin:               l.Origin,
			Destination:          l.Destination,
			Departure:            l.Departure.Format(time.RFC3339),
			Arrival:              l.Arrival.Format(time.RFC3339),
			WeightCapacityKg:     l.WeightCapacityKg,
			VolumeCapacityM3:     l.VolumeCapacityM3,
			BoardedCargo:         l.BoardedCargo,
			BoardedWeightKg:      l.BoardedWeightKg,
			BoardedVolumeM3:      l.BoardedVolumeM3,
			WeightUtilizationPct: l.WeightUtilizationPct,
			VolumeUtilizationPct: l.VolumeUtilizationPct,
			RevenueINR:           l.RevenueINR,
		})
	}

	for _, a := range res.Alerts {
		row := AlertResponse{
			AlertType:   a.Kind.String(),
			Severity:    a.Severity.String(),
			Message:     a.Message,
			CargoID:     a.CargoID,
			FlightID:    a.FlightID,
			MarginDelta: a.MarginDelta,
		}
		if a.Status != nil {
			row.Status = a.Status.String()
		}
		resp.Alerts = append(resp.Alerts, row)
	}

	return resp
}
