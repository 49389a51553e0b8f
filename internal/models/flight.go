// Package models defines the core data types shared by every planning
// component: flights, cargo, connection rules, route options, assignments
// and alerts.
package models

import (
	"fmt"
	"sort"
	"time"
)

// Flight is a scheduled leg between two airports. Immutable once loaded,
// except via the disruption engine which produces a new flight map.
type Flight struct {
	ID               string
	Origin           string
	Destination      string
	Departure        time.Time
	Arrival          time.Time
	WeightCapacityKg float64
	VolumeCapacityM3 float64
	CostPerKg        float64
}

// Validate checks the structural invariants a Flight must satisfy before it
// can enter the planning pipeline.
func (f Flight) Validate() error {
	if f.ID == "" {
		return &DataValidationError{Field: "flight_id", Reason: "must not be empty"}
	}
	if f.Origin == "" || f.Destination == "" {
		return &DataValidationError{Field: "origin/destination", Reason: fmt.Sprintf("flight %s: must not be empty", f.ID)}
	}
	if f.Origin == f.Destination {
		return &DataValidationError{Field: "origin/destination", Reason: fmt.Sprintf("flight %s: origin equals destination", f.ID)}
	}
	if !f.Arrival.After(f.Departure) {
		return &DataValidationError{Field: "arrival", Reason: fmt.Sprintf("flight %s: arrival must be after departure", f.ID)}
	}
	if f.WeightCapacityKg <= 0 {
		return &DataValidationError{Field: "weight_capacity_kg", Reason: fmt.Sprintf("flight %s: must be > 0", f.ID)}
	}
	if f.VolumeCapacityM3 <= 0 {
		return &DataValidationError{Field: "volume_capacity_m3", Reason: fmt.Sprintf("flight %s: must be > 0", f.ID)}
	}
	if f.CostPerKg < 0 {
		return &DataValidationError{Field: "cost_per_kg", Reason: fmt.Sprintf("flight %s: must be >= 0", f.ID)}
	}
	return nil
}

// FlightMap indexes flights by identifier and by origin airport, the two
// access patterns the route enumerator and simulator need.
type FlightMap struct {
	byID     map[string]*Flight
	byOrigin map[string][]*Flight
}

// NewFlightMap builds the origin index once so C1/C5 never scan linearly.
// Each origin's flights are ordered by departure then ID, so enumeration
// order never depends on input order.
func NewFlightMap(flights []Flight) *FlightMap {
	fm := &FlightMap{
		byID:     make(map[string]*Flight, len(flights)),
		byOrigin: make(map[string][]*Flight),
	}
	for i := range flights {
		f := &flights[i]
		fm.byID[f.ID] = f
		fm.byOrigin[f.Origin] = append(fm.byOrigin[f.Origin], f)
	}
	for _, siblings := range fm.byOrigin {
		sort.Slice(siblings, func(i, j int) bool {
			if !siblings[i].Departure.Equal(siblings[j].Departure) {
				return siblings[i].Departure.Before(siblings[j].Departure)
			}
			return siblings[i].ID < siblings[j].ID
		})
	}
	return fm
}

// Get returns the flight by id, or nil if it no longer exists (e.g. after a
// cancel disruption).
func (fm *FlightMap) Get(id string) *Flight {
	return fm.byID[id]
}

// FromOrigin returns every flight departing a given airport.
func (fm *FlightMap) FromOrigin(origin string) []*Flight {
	return fm.byOrigin[origin]
}

// All returns every flight, in no particular order; callers that need
// determinism must sort by ID themselves.
func (fm *FlightMap) All() []*Flight {
	out := make([]*Flight, 0, len(fm.byID))
	for _, f := range fm.byID {
		out = append(out, f)
	}
	return out
}

// Clone deep-copies the map so a disruption event can mutate flights without
// touching the baseline world.
func (fm *FlightMap) Clone() *FlightMap {
	flights := make([]Flight, 0, len(fm.byID))
	for _, f := range fm.byID {
		flights = append(flights, *f)
	}
	return NewFlightMap(flights)
}

// Delete removes a flight from the map in place (used by cancel events).
func (fm *FlightMap) Delete(id string) {
	f, ok := fm.byID[id]
	if !ok {
		return
	}
	delete(fm.byID, id)
	siblings := fm.byOrigin[f.Origin]
	for i, s := range siblings {
		if s.ID == id {
			fm.byOrigin[f.Origin] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
}
