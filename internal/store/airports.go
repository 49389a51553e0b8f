// Package store - airport reference repository
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Airport is one row of the read-only airport reference database.
type Airport struct {
	IATA     string `json:"iata"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

// AirportRepository provides read-only access to airport reference data
type AirportRepository struct {
	db *sql.DB
}

// NewAirportRepository creates a new airport repository
func NewAirportRepository(db *sql.DB) *AirportRepository {
	return &AirportRepository{db: db}
}

// GetAirport retrieves airport reference data by IATA code.
func (r *AirportRepository) GetAirport(ctx context.Context, iata string) (*Airport, error) {
	query := `
		SELECT
			iata,
			COALESCE(name, iata) as name,
			COALESCE(city, '') as city,
			COALESCE(timezone, 'Asia/Calcutta') as timezone
		FROM airports
		WHERE iata = ?
	`

	var a Airport
	err := r.db.QueryRowContext(ctx, query, iata).Scan(&a.IATA, &a.Name, &a.City, &a.Timezone)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("airport %s not found", iata)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query airport: %w", err)
	}

	return &a, nil
}

// ResolveNames maps each IATA code to a display name, falling back to the
// code itself for airports missing from the reference database. Used to
// enrich plan summaries without failing a run over reference data gaps.
func (r *AirportRepository) ResolveNames(ctx context.Context, iatas []string) map[string]string {
	names := make(map[string]string, len(iatas))
	for _, code := range iatas {
		names[code] = code
		if a, err := r.GetAirport(ctx, code); err == nil {
			names[code] = a.Name
		}
	}
	return names
}
