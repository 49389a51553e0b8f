package models

import "time"

// FlightLoad summarizes what one flight ended up carrying in an emitted
// plan, for the flight_loads output and the utilization statistics.
type FlightLoad struct {
	FlightID             string
	Origin               string
	Destination          string
	Departure            time.Time
	Arrival              time.Time
	WeightCapacityKg     float64
	VolumeCapacityM3     float64
	BoardedCargo         []string // sorted by cargo ID
	BoardedWeightKg      float64
	BoardedVolumeM3      float64
	WeightUtilizationPct float64
	VolumeUtilizationPct float64
	RevenueINR           float64
}

// PlanSummary carries the run-level totals for the plan_summary output.
type PlanSummary struct {
	TotalMargin             float64        `json:"total_margin"`
	Delivered               int            `json:"delivered"`
	Rolled                  int            `json:"rolled"`
	Denied                  int            `json:"denied"`
	AvgWeightUtilizationPct float64        `json:"avg_weight_utilization_pct"`
	AvgVolumeUtilizationPct float64        `json:"avg_volume_utilization_pct"`
	AlertCounts             map[string]int `json:"alert_counts"`
}
