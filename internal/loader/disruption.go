package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/airfreight/cargoplan/internal/models"
)

// disruptionEventDTO mirrors the JSON wire shape from spec.md §6:
// {event_type, flight_id, delay_minutes?, new_weight_capacity_kg?,
// new_volume_capacity_m3?}.
type disruptionEventDTO struct {
	EventType            string   `json:"event_type"`
	FlightID             string   `json:"flight_id"`
	DelayMinutes         float64  `json:"delay_minutes,omitempty"`
	NewWeightCapacityKg  *float64 `json:"new_weight_capacity_kg,omitempty"`
	NewVolumeCapacityM3  *float64 `json:"new_volume_capacity_m3,omitempty"`
}

// LoadDisruptionEvents reads a JSON array of disruption events from path.
func LoadDisruptionEvents(path string) ([]models.DisruptionEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.DataValidationError{Field: "disruption_events", Reason: err.Error()}
	}
	return ParseDisruptionEvents(data)
}

// ParseDisruptionEvents decodes a JSON array of disruption events already
// read into memory.
func ParseDisruptionEvents(data []byte) ([]models.DisruptionEvent, error) {
	var dtos []disruptionEventDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, &models.DataValidationError{Field: "disruption_events", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	events := make([]models.DisruptionEvent, 0, len(dtos))
	for i, d := range dtos {
		kind, err := parseEventKind(d.EventType)
		if err != nil {
			return nil, &models.DataValidationError{Field: "event_type", Reason: fmt.Sprintf("event %d: %v", i, err)}
		}
		ev := models.DisruptionEvent{
			Kind:                kind,
			FlightID:            d.FlightID,
			DelayMinutes:        d.DelayMinutes,
			NewWeightCapacityKg: d.NewWeightCapacityKg,
			NewVolumeCapacityM3: d.NewVolumeCapacityM3,
		}
		if err := ev.Validate(); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseEventKind(s string) (models.EventKind, error) {
	switch s {
	case "delay":
		return models.EventDelay, nil
	case "cancel":
		return models.EventCancel, nil
	case "swap":
		return models.EventSwap, nil
	default:
		return 0, fmt.Errorf("unrecognized event_type %q", s)
	}
}
