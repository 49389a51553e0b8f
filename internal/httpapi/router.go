package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airfreight/cargoplan/internal/metrics"
)

// Register mounts every route on app: the versioned API, the Prometheus
// scrape endpoint, and a request counter middleware.
func (s *Server) Register(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		metrics.HTTPRequestsTotal.WithLabelValues(c.Route().Path, strconv.Itoa(c.Response().StatusCode())).Inc()
		return err
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Get("/health", s.Health)

	limiter := NewPlanLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)
	plan := api.Group("", RateLimit(limiter))
	plan.Post("/plan", s.RunPlan)
	plan.Post("/plan/sample", s.RunSample)
	plan.Post("/disrupt", s.Disrupt)

	api.Get("/runs/:id", s.GetRun)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{Error: "not found"})
	})
}
