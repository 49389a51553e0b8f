package models

// Status is a cargo's final disposition in an emitted assignment.
type Status int

const (
	StatusDelivered Status = iota
	StatusRolled
	StatusDenied
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusRolled:
		return "rolled"
	case StatusDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// CargoAssignment is the outcome of simulating one cargo through a chosen
// route: delivered, rolled (had a feasible route but lost a capacity
// contest on one of its flights), or denied (no feasible route existed).
type CargoAssignment struct {
	CargoID string
	Status  Status
	Route   RouteOption
	Margin  float64
	Reason  string
}
