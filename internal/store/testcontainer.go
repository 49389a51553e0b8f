// Package store - Testcontainer utilities for integration tests
//go:build integration || !unit

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresContainer holds a PostgreSQL testcontainer instance
type TestPostgresContainer struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupPostgresContainer creates and starts a PostgreSQL testcontainer
// and applies the run-history migrations to it.
func SetupPostgresContainer(t *testing.T) *TestPostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cargoplan_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := Migrate(connStr); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	tc := &TestPostgresContainer{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}
	t.Cleanup(func() {
		tc.Pool.Close()
		_ = tc.Container.Terminate(context.Background())
	})
	return tc
}
