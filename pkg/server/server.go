// Package server exposes the command surface over HTTP: route summaries,
// vehicle lookup, autocomplete, and the liveness endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"buswatch/pkg/lookup"
	"buswatch/pkg/pipeline"
	"buswatch/pkg/types"

	"github.com/gofiber/fiber/v2"
)

// RouteQuerier is the orchestrator contract the transport needs.
type RouteQuerier interface {
	QueryRoutes(ctx context.Context, batch string) ([]types.RouteBlock, error)
}

// VehicleLookup is the lookup/autocomplete contract the transport needs.
type VehicleLookup interface {
	Vehicle(ctx context.Context, reg string) (types.VehicleProfile, lookup.Outcome)
	Suggest(ctx context.Context, partial string) []types.Suggestion
}

// ProcessInfo carries process-wide facts fixed at startup. It is the only
// state shared across requests and is immutable after initialization.
type ProcessInfo struct {
	StartedAt time.Time
	Version   string
}

type Server struct {
	app     *fiber.App
	routes  RouteQuerier
	lookup  VehicleLookup
	process ProcessInfo
}

func New(routes RouteQuerier, vehicles VehicleLookup, process ProcessInfo) *Server {
	s := &Server{
		app:     fiber.New(fiber.Config{DisableStartupMessage: true}),
		routes:  routes,
		lookup:  vehicles,
		process: process,
	}

	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path != "/health" {
			slog.Info("request", "method", c.Method(), "path", path)
		}
		return c.Next()
	})

	s.app.Get("/", s.home)
	s.app.Get("/health", s.health)
	s.app.Get("/ping", s.ping)
	s.app.Get("/routes/:routes", s.routeSummary)
	// search must register before the :reg wildcard
	s.app.Get("/vehicles/search", s.autocomplete)
	s.app.Get("/vehicles/:reg", s.vehicle)

	return s
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests with a deadline.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) home(c *fiber.Ctx) error {
	return c.SendString("Bot is alive!")
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "online",
		"uptime_seconds": int(time.Since(s.process.StartedAt).Seconds()),
	})
}

func (s *Server) ping(c *fiber.Ctx) error {
	uptime := time.Since(s.process.StartedAt)
	return c.JSON(fiber.Map{
		"uptime":         formatUptime(uptime),
		"uptime_seconds": int(uptime.Seconds()),
		"version":        s.process.Version,
	})
}

func (s *Server) routeSummary(c *fiber.Ctx) error {
	blocks, err := s.routes.QueryRoutes(c.UserContext(), c.Params("routes"))
	if err != nil {
		if errors.Is(err, pipeline.ErrNoValidRoutes) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Please provide at least one valid route number.",
			})
		}
		slog.Error("Route query failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Sorry, an unexpected error occurred while fetching route data.",
		})
	}

	if len(blocks) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Could not retrieve information for any of the requested routes.",
		})
	}

	return c.JSON(fiber.Map{"blocks": blocks})
}

func (s *Server) vehicle(c *fiber.Ctx) error {
	reg := c.Params("reg")

	profile, outcome := s.lookup.Vehicle(c.UserContext(), reg)
	switch outcome {
	case lookup.Found:
		return c.JSON(profile)
	case lookup.NotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "No vehicle found with registration " + reg + ".",
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Sorry, an unexpected error occurred while fetching the vehicle data.",
		})
	}
}

func (s *Server) autocomplete(c *fiber.Ctx) error {
	suggestions := s.lookup.Suggest(c.UserContext(), c.Query("q"))
	if suggestions == nil {
		suggestions = []types.Suggestion{}
	}
	return c.JSON(fiber.Map{"suggestions": suggestions})
}

// formatUptime renders a duration the way the ping command shows it,
// dropping leading zero units.
func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
