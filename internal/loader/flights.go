package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/airfreight/cargoplan/internal/models"
)

// LoadFlights reads flights.csv: flight_id, origin, destination, departure,
// arrival, weight_capacity_kg, volume_capacity_m3, cost_per_kg.
func LoadFlights(path string) ([]models.Flight, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.DataValidationError{Field: "flights.csv", Reason: err.Error()}
	}
	defer f.Close()
	return ParseFlights(f)
}

// ParseFlights reads flight rows from an already-open source (the HTTP
// surface and the embedded sample data go through here).
func ParseFlights(src io.Reader) ([]models.Flight, error) {
	r := newCSVReader(src)
	h, rows, err := readAll(r)
	if err != nil {
		return nil, &models.DataValidationError{Field: "flights.csv", Reason: err.Error()}
	}

	flights := make([]models.Flight, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, rec := range rows {
		row := i + 2 // account for 1-indexed rows plus the header line
		fl, err := parseFlightRow(h, rec, row)
		if err != nil {
			return nil, &models.DataValidationError{Field: "flights.csv", Reason: err.Error()}
		}
		if err := fl.Validate(); err != nil {
			return nil, err
		}
		if seen[fl.ID] {
			return nil, &models.DataValidationError{Field: "flight_id", Reason: fmt.Sprintf("duplicate flight id %q", fl.ID)}
		}
		seen[fl.ID] = true
		flights = append(flights, fl)
	}
	return flights, nil
}

func parseFlightRow(h header, rec []string, row int) (models.Flight, error) {
	var fl models.Flight
	var err error

	if fl.ID, err = h.col(rec, "flight_id"); err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}
	if fl.Origin, err = h.col(rec, "origin"); err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}
	if fl.Destination, err = h.col(rec, "destination"); err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}

	dep, err := h.col(rec, "departure")
	if err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}
	if fl.Departure, err = parseTimestamp("departure", dep, row); err != nil {
		return fl, err
	}

	arr, err := h.col(rec, "arrival")
	if err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}
	if fl.Arrival, err = parseTimestamp("arrival", arr, row); err != nil {
		return fl, err
	}

	wcap, err := h.col(rec, "weight_capacity_kg")
	if err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}
	if fl.WeightCapacityKg, err = parseFloat("weight_capacity_kg", wcap, row); err != nil {
		return fl, err
	}

	vcap, err := h.col(rec, "volume_capacity_m3")
	if err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}
	if fl.VolumeCapacityM3, err = parseFloat("volume_capacity_m3", vcap, row); err != nil {
		return fl, err
	}

	cost, err := h.col(rec, "cost_per_kg")
	if err != nil {
		return fl, fmt.Errorf("row %d: %w", row, err)
	}
	if fl.CostPerKg, err = parseFloat("cost_per_kg", cost, row); err != nil {
		return fl, err
	}

	return fl, nil
}
