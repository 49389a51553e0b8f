// Package store provides persistence for the planner: a PostgreSQL
// run-history/audit log and a read-only SQLite airport reference database.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

// Config holds database configuration
type Config struct {
	// PostgreSQL
	PostgresURL string

	// SQLite airport reference
	AirportsPath string
}

// DB manages dual database connections
type DB struct {
	// PostgreSQL connection pool for run history
	Postgres *pgxpool.Pool

	// SQLite connection for read-only airport reference data
	Airports *sql.DB

	config Config
}

// New creates a new dual-database connection and applies any pending
// run-history migrations.
func New(ctx context.Context, cfg Config) (*DB, error) {
	db := &DB{
		config: cfg,
	}

	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.Postgres = pgPool

	if err := Migrate(cfg.PostgresURL); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to migrate run-history schema: %w", err)
	}

	airportsDB, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", cfg.AirportsPath))
	if err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to open airports database: %w", err)
	}

	if err := airportsDB.Ping(); err != nil {
		airportsDB.Close()
		pgPool.Close()
		return nil, fmt.Errorf("failed to ping airports database: %w", err)
	}

	db.Airports = airportsDB

	return db, nil
}

// Close closes all database connections
func (db *DB) Close() {
	if db.Postgres != nil {
		db.Postgres.Close()
	}
	if db.Airports != nil {
		db.Airports.Close()
	}
}

// Health checks the health of all database connections
func (db *DB) Health(ctx context.Context) error {
	if err := db.Postgres.Ping(ctx); err != nil {
		return fmt.Errorf("PostgreSQL unhealthy: %w", err)
	}
	if err := db.Airports.Ping(); err != nil {
		return fmt.Errorf("airports database unhealthy: %w", err)
	}
	return nil
}

// BeginTx starts a PostgreSQL transaction
func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Postgres.Begin(ctx)
}
