// Package main is the entry point for the cargoplan API: the air-cargo
// route-and-load planning pipeline behind a small Fiber surface.
package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"

	"github.com/airfreight/cargoplan/internal/cache"
	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/httpapi"
	"github.com/airfreight/cargoplan/internal/store"
	applogger "github.com/airfreight/cargoplan/pkg/logger"
)

func main() {
	ctx := context.Background()
	cfg := config.FromEnv()
	appLogger := applogger.New()

	// Redis plan cache. The planner stays fully functional without it.
	var planCache *cache.PlanCache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Warn("Redis unavailable, plan caching disabled", "addr", cfg.RedisAddr, "error", err)
	} else {
		planCache = cache.NewPlanCache(redisClient)
		appLogger.Info("Redis connection established", "addr", cfg.RedisAddr)
	}

	// Run-history store and airport reference. Also optional: without
	// them the API plans but does not persist or enrich.
	var runRepo *store.RunRepository
	var airportRepo *store.AirportRepository
	db, err := store.New(ctx, store.Config{
		PostgresURL:  cfg.DatabaseURL,
		AirportsPath: cfg.SDESQLitePath,
	})
	if err != nil {
		appLogger.Warn("store unavailable, run history disabled", "error", err)
	} else {
		defer db.Close()
		runRepo = store.NewRunRepository(db.Postgres)
		airportRepo = store.NewAirportRepository(db.Airports)
		appLogger.Info("database connections established")
	}

	server := httpapi.NewServer(cfg, runRepo, planCache, airportRepo, appLogger)

	app := fiber.New(fiber.Config{
		AppName: "cargoplan API v0.1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: getEnv("CORS_ORIGINS", "http://localhost:9000"),
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	server.Register(app)

	appLogger.Info("starting cargoplan API", "addr", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
