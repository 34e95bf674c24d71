// Package telemetry publishes robot state over HTTP and a websocket and
// accepts a few operator commands. It sits outside the control core: the
// robot never depends on it.
package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/nav"
	"github.com/teslashibe/go-reachy-office/pkg/officemap"
	"github.com/teslashibe/go-reachy-office/pkg/robot"
)

// Robot is what the server needs from the robot.
type Robot interface {
	robot.Lifecycle
	robot.Navigation
	robot.Gaze
	robot.StateReader
	Map() *officemap.Map
	Path() []officemap.Cell
}

// Server is the telemetry HTTP server.
type Server struct {
	robot  Robot
	hub    *Hub
	app    *fiber.App
	logger *slog.Logger
}

// NewServer builds the routes. Call Run to serve.
func NewServer(r Robot, logger *slog.Logger) *Server {
	if logger == nil {
		logger = log.Component("telemetry")
	}
	s := &Server{
		robot:  r,
		hub:    NewHub(logger),
		logger: logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Office Robot",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/map", s.handleMap)
	api.Post("/navigate", s.handleNavigate)
	api.Post("/navigate/cancel", s.handleCancel)
	api.Post("/wake", s.handleWake)
	api.Post("/sleep", s.handleSleep)
	api.Post("/gaze", s.handleGaze)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Hub returns the broadcast hub.
func (s *Server) Hub() *Hub { return s.hub }

// Publish broadcasts a summary to websocket clients without blocking.
func (s *Server) Publish(sum robot.Summary) {
	if err := s.hub.BroadcastJSON(sum); err != nil {
		s.logger.Debug("encode summary failed", "error", err)
	}
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("telemetry listening", "addr", addr)
		errc <- s.app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return err
		}
		return <-errc
	}
}

// statusFor maps robot errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, robot.ErrBusy), errors.Is(err, robot.ErrInvalidStateTransition):
		return fiber.StatusConflict
	case errors.Is(err, officemap.ErrUnknownLocation):
		return fiber.StatusNotFound
	case errors.Is(err, nav.ErrPathNotFound), errors.Is(err, officemap.ErrOutOfBounds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, robot.ErrClosed):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
