package models

import "time"

// Leg is one materialized flight within an itinerary, with the timestamps
// actually realized by that itinerary.
type Leg struct {
	FlightID    string
	Origin      string
	Destination string
	Departure   time.Time
	Arrival     time.Time
	DwellAfter  time.Duration // time between this leg's arrival and the next leg's departure; 0 on the final leg
}

// RouteOption is one candidate itinerary for a single cargo, produced by the
// route enumerator and scored by the route scorer. The zero-leg DENIED
// option is a distinguished sentinel that is always a valid fallback.
type RouteOption struct {
	CargoID         string
	Legs            []Leg
	Denied          bool
	OperatingCost   float64
	HandlingCost    float64
	SLAPenaltyHours float64
	SLAPenalty      float64
	TransitHours    float64
	Margin          float64
	OnTime          bool
}

// FlightIDs returns the ordered flight identifiers of the itinerary, or nil
// for DENIED.
func (r RouteOption) FlightIDs() []string {
	if r.Denied {
		return nil
	}
	ids := make([]string, len(r.Legs))
	for i, l := range r.Legs {
		ids[i] = l.FlightID
	}
	return ids
}

// FirstDeparture and LastArrival are convenience accessors used by the
// scorer and simulator; both are the zero time for DENIED routes.
func (r RouteOption) FirstDeparture() time.Time {
	if len(r.Legs) == 0 {
		return time.Time{}
	}
	return r.Legs[0].Departure
}

func (r RouteOption) LastArrival() time.Time {
	if len(r.Legs) == 0 {
		return time.Time{}
	}
	return r.Legs[len(r.Legs)-1].Arrival
}

// DeniedRoute constructs the distinguished DENIED RouteOption for a cargo.
func DeniedRoute(cargoID string) RouteOption {
	return RouteOption{CargoID: cargoID, Denied: true}
}
