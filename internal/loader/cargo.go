package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/airfreight/cargoplan/internal/models"
)

// LoadCargo reads cargo.csv: cargo_id, origin, destination, weight_kg,
// volume_m3, revenue_inr, priority, perishable, max_transit_hours,
// ready_time, due_by, handling_cost_per_kg, sla_penalty_per_hour.
func LoadCargo(path string) ([]models.Cargo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.DataValidationError{Field: "cargo.csv", Reason: err.Error()}
	}
	defer f.Close()
	return ParseCargo(f)
}

// ParseCargo reads cargo rows from an already-open source.
func ParseCargo(src io.Reader) ([]models.Cargo, error) {
	r := newCSVReader(src)
	h, rows, err := readAll(r)
	if err != nil {
		return nil, &models.DataValidationError{Field: "cargo.csv", Reason: err.Error()}
	}

	cargos := make([]models.Cargo, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, rec := range rows {
		row := i + 2
		c, err := parseCargoRow(h, rec, row)
		if err != nil {
			return nil, &models.DataValidationError{Field: "cargo.csv", Reason: err.Error()}
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if seen[c.ID] {
			return nil, &models.DataValidationError{Field: "cargo_id", Reason: fmt.Sprintf("duplicate cargo id %q", c.ID)}
		}
		seen[c.ID] = true
		cargos = append(cargos, c)
	}
	return cargos, nil
}

func parseCargoRow(h header, rec []string, row int) (models.Cargo, error) {
	var c models.Cargo
	var err error

	if c.ID, err = h.col(rec, "cargo_id"); err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.Origin, err = h.col(rec, "origin"); err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.Destination, err = h.col(rec, "destination"); err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}

	weight, err := h.col(rec, "weight_kg")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.WeightKg, err = parseFloat("weight_kg", weight, row); err != nil {
		return c, err
	}

	vol, err := h.col(rec, "volume_m3")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.VolumeM3, err = parseFloat("volume_m3", vol, row); err != nil {
		return c, err
	}

	rev, err := h.col(rec, "revenue_inr")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.RevenueINR, err = parseFloat("revenue_inr", rev, row); err != nil {
		return c, err
	}

	prio, err := h.col(rec, "priority")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.Priority, err = models.ParsePriority(prio); err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}

	perish, err := h.col(rec, "perishable")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.Perishable, err = parseBool("perishable", perish, row); err != nil {
		return c, err
	}

	maxTransit, err := h.col(rec, "max_transit_hours")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.MaxTransitHours, err = parseFloat("max_transit_hours", maxTransit, row); err != nil {
		return c, err
	}

	ready, err := h.col(rec, "ready_time")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.ReadyTime, err = parseTimestamp("ready_time", ready, row); err != nil {
		return c, err
	}

	due, err := h.col(rec, "due_by")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.DueBy, err = parseTimestamp("due_by", due, row); err != nil {
		return c, err
	}

	handling, err := h.col(rec, "handling_cost_per_kg")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.HandlingCostPerKg, err = parseFloat("handling_cost_per_kg", handling, row); err != nil {
		return c, err
	}

	sla, err := h.col(rec, "sla_penalty_per_hour")
	if err != nil {
		return c, fmt.Errorf("row %d: %w", row, err)
	}
	if c.SLAPenaltyPerHour, err = parseFloat("sla_penalty_per_hour", sla, row); err != nil {
		return c, err
	}

	return c, nil
}
