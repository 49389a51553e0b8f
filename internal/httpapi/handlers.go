package httpapi

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/airfreight/cargoplan/internal/cache"
	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/loader"
	"github.com/airfreight/cargoplan/internal/models"
	"github.com/airfreight/cargoplan/internal/planning"
	"github.com/airfreight/cargoplan/internal/planning/disruption"
	"github.com/airfreight/cargoplan/internal/store"
	"github.com/airfreight/cargoplan/pkg/logger"
)

//go:embed sample/*.csv
var sampleFS embed.FS

// Server holds the handler dependencies. Runs, Plans and Airports are
// optional: a nil repository disables persistence/caching/enrichment
// without disabling planning.
type Server struct {
	cfg      config.Config
	pipeline *planning.Pipeline
	engine   *disruption.Engine
	runs     *store.RunRepository
	plans    *cache.PlanCache
	airports *store.AirportRepository
	log      *logger.Logger
}

// NewServer wires the handler set.
func NewServer(cfg config.Config, runs *store.RunRepository, plans *cache.PlanCache, airports *store.AirportRepository, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New()
	}
	return &Server{
		cfg:      cfg,
		pipeline: planning.New(cfg, log),
		engine:   disruption.New(cfg, log),
		runs:     runs,
		plans:    plans,
		airports: airports,
		log:      log,
	}
}

// Health handles GET /api/v1/health
func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// RunPlan handles POST /api/v1/plan
func (s *Server) RunPlan(c *fiber.Ctx) error {
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if len(req.Flights) == 0 || len(req.Cargo) == 0 {
		return badRequest(c, "flights and cargo are required", nil)
	}

	in, err := req.toInputs()
	if err != nil {
		return planError(c, err)
	}

	seed := s.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := s.plan(c.Context(), in, seed)
	if err != nil {
		return planError(c, err)
	}
	return c.JSON(s.enrich(c.Context(), toResponse(res), res))
}

// RunSample handles POST /api/v1/plan/sample
func (s *Server) RunSample(c *fiber.Ctx) error {
	in, err := s.sampleInputs()
	if err != nil {
		return planError(c, err)
	}

	res, err := s.plan(c.Context(), in, s.cfg.Seed)
	if err != nil {
		return planError(c, err)
	}
	return c.JSON(s.enrich(c.Context(), toResponse(res), res))
}

// Disrupt handles POST /api/v1/disrupt
func (s *Server) Disrupt(c *fiber.Ctx) error {
	var req DisruptRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if len(req.Flights) == 0 || len(req.Cargo) == 0 {
		return badRequest(c, "flights and cargo are required", nil)
	}

	in, err := req.toInputs()
	if err != nil {
		return planError(c, err)
	}
	events, err := req.toEvents()
	if err != nil {
		return planError(c, err)
	}

	seed := s.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	baseline, err := s.plan(c.Context(), in, seed)
	if err != nil {
		return planError(c, err)
	}

	out, err := s.engine.Disrupt(c.Context(), in, baseline, events)
	if err != nil {
		return planError(c, err)
	}
	s.persist(c.Context(), in, out.Plan)

	return c.JSON(fiber.Map{
		"baseline":  s.enrich(c.Context(), toResponse(baseline), baseline),
		"disrupted": s.enrich(c.Context(), toResponse(out.Plan), out.Plan),
	})
}

// GetRun handles GET /api/v1/runs/:id
func (s *Server) GetRun(c *fiber.Ctx) error {
	if s.runs == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(ErrorResponse{Error: "run history is not configured"})
	}
	rec, err := s.runs.GetRun(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run not found"})
	}
	if err != nil {
		s.log.Error("run lookup failed", "run_id", c.Params("id"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load run"})
	}
	return c.JSON(rec)
}

// plan runs the pipeline behind the plan cache: identical inputs and seed
// reuse the cached result, a miss plans and persists.
func (s *Server) plan(ctx context.Context, in planning.Inputs, seed int64) (*planning.PlanResult, error) {
	var fingerprint string
	if s.plans != nil {
		if fp, err := planning.Fingerprint(in, seed); err == nil {
			fingerprint = fp
			if cached, err := s.plans.Get(ctx, fp); err == nil {
				s.log.Debug("plan cache hit", "fingerprint", fp)
				return cached, nil
			}
		}
	}

	res, err := s.pipeline.PlanSeeded(ctx, in, seed)
	if err != nil {
		return nil, err
	}

	if s.plans != nil && fingerprint != "" {
		if err := s.plans.Set(ctx, fingerprint, res); err != nil {
			s.log.Warn("plan cache write failed", "error", err)
		}
	}
	s.persist(ctx, in, res)
	return res, nil
}

// persist writes the run to the audit log when a repository is wired,
// retrying transient failures. Persistence failures never fail a plan.
func (s *Server) persist(ctx context.Context, in planning.Inputs, res *planning.PlanResult) {
	if s.runs == nil {
		return
	}
	hash, err := planning.Fingerprint(in, res.Seed)
	if err != nil {
		hash = "unknown"
	}
	err = RetryWithBackoff(ctx, DefaultRetryConfig(), func() error {
		return s.runs.SaveRun(ctx, res, hash)
	})
	if err != nil {
		s.log.Error("failed to persist run", "run_id", res.RunID, "error", err)
	}
}

// enrich attaches airport display names for every airport the plan
// touches, when the reference repository is wired.
func (s *Server) enrich(ctx context.Context, resp PlanResponse, res *planning.PlanResult) PlanResponse {
	if s.airports == nil {
		return resp
	}
	seen := make(map[string]bool)
	var codes []string
	for _, l := range res.FlightLoads {
		for _, code := range []string{l.Origin, l.Destination} {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	resp.Airports = s.airports.ResolveNames(ctx, codes)
	return resp
}

func (s *Server) sampleInputs() (planning.Inputs, error) {
	var in planning.Inputs

	flightsData, err := sampleFS.ReadFile("sample/flights.csv")
	if err != nil {
		return in, err
	}
	cargoData, err := sampleFS.ReadFile("sample/cargo.csv")
	if err != nil {
		return in, err
	}
	connData, err := sampleFS.ReadFile("sample/connections.csv")
	if err != nil {
		return in, err
	}

	if in.Flights, err = loader.ParseFlights(bytes.NewReader(flightsData)); err != nil {
		return in, err
	}
	if in.Cargo, err = loader.ParseCargo(bytes.NewReader(cargoData)); err != nil {
		return in, err
	}
	if in.Rules, err = loader.ParseConnections(bytes.NewReader(connData)); err != nil {
		return in, err
	}
	return in, nil
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Message = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(resp)
}

// planError maps the error taxonomy onto status codes: validation
// failures are the caller's fault, cancellation is a timeout, everything
// else is a server error.
func planError(c *fiber.Ctx, err error) error {
	var vErr *models.DataValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "validation failed", Message: vErr.Error()})
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.Status(fiber.StatusRequestTimeout).JSON(ErrorResponse{Error: "planning cancelled", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "planning failed", Message: err.Error()})
}
