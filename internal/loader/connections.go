package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/airfreight/cargoplan/internal/models"
)

// LoadConnections reads connections.csv: origin, destination,
// connection_airport, min_connection_minutes, max_connection_minutes,
// handling_fee. An empty connection_airport is the wildcard entry.
func LoadConnections(path string) ([]models.ConnectionRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.DataValidationError{Field: "connections.csv", Reason: err.Error()}
	}
	defer f.Close()
	return ParseConnections(f)
}

// ParseConnections reads connection rules from an already-open source.
func ParseConnections(src io.Reader) ([]models.ConnectionRule, error) {
	r := newCSVReader(src)
	h, rows, err := readAll(r)
	if err != nil {
		return nil, &models.DataValidationError{Field: "connections.csv", Reason: err.Error()}
	}

	rules := make([]models.ConnectionRule, 0, len(rows))
	for i, rec := range rows {
		row := i + 2
		rule, err := parseConnectionRow(h, rec, row)
		if err != nil {
			return nil, &models.DataValidationError{Field: "connections.csv", Reason: err.Error()}
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseConnectionRow(h header, rec []string, row int) (models.ConnectionRule, error) {
	var rule models.ConnectionRule
	var err error

	if rule.Origin, err = h.col(rec, "origin"); err != nil {
		return rule, fmt.Errorf("row %d: %w", row, err)
	}
	if rule.Destination, err = h.col(rec, "destination"); err != nil {
		return rule, fmt.Errorf("row %d: %w", row, err)
	}
	// connection_airport is optional per row (wildcard), but the column
	// itself must be present in the header.
	if rule.ConnectionAirport, err = h.col(rec, "connection_airport"); err != nil {
		return rule, fmt.Errorf("row %d: %w", row, err)
	}

	minMin, err := h.col(rec, "min_connection_minutes")
	if err != nil {
		return rule, fmt.Errorf("row %d: %w", row, err)
	}
	if rule.MinConnectionMinutes, err = parseFloat("min_connection_minutes", minMin, row); err != nil {
		return rule, err
	}

	maxMin, err := h.col(rec, "max_connection_minutes")
	if err != nil {
		return rule, fmt.Errorf("row %d: %w", row, err)
	}
	if rule.MaxConnectionMinutes, err = parseFloat("max_connection_minutes", maxMin, row); err != nil {
		return rule, err
	}

	fee, err := h.col(rec, "handling_fee")
	if err != nil {
		return rule, fmt.Errorf("row %d: %w", row, err)
	}
	if rule.HandlingFee, err = parseFloat("handling_fee", fee, row); err != nil {
		return rule, err
	}

	return rule, nil
}
