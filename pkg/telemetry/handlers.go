package telemetry

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-reachy-office/pkg/officemap"
)

var errBadRequest = errors.New("bad request")

type mapResponse struct {
	Width     int                  `json:"width"`
	Height    int                  `json:"height"`
	CellSize  float64              `json:"cell_size"`
	Rows      []string             `json:"rows"`
	Locations []officemap.Location `json:"locations"`
	Path      []officemap.Cell     `json:"path,omitempty"`
}

// navigateRequest names a location or gives map coordinates in cells.
type navigateRequest struct {
	Location string   `json:"location"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
}

type navigateResponse struct {
	Path   []officemap.Cell `json:"path"`
	Length float64          `json:"length"`
}

// gazeRequest is either an image pixel (u, v) or a body-frame point (x, y, z).
type gazeRequest struct {
	U *float64 `json:"u"`
	V *float64 `json:"v"`
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.robot.Summary())
}

func (s *Server) handleMap(c *fiber.Ctx) error {
	m := s.robot.Map()
	resp := mapResponse{
		Width:     m.Width(),
		Height:    m.Height(),
		CellSize:  m.CellSize(),
		Rows:      m.Rows(),
		Locations: m.Locations(),
	}
	if c.QueryBool("path") {
		resp.Path = s.robot.Path()
	}
	return c.JSON(resp)
}

func (s *Server) handleNavigate(c *fiber.Ctx) error {
	var req navigateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}

	var resp navigateResponse
	switch {
	case req.Location != "":
		path, err := s.robot.NavigateTo(req.Location)
		if err != nil {
			return fail(c, statusFor(err), err)
		}
		resp = navigateResponse{Path: path.Cells(), Length: path.Length()}
	case req.X != nil && req.Y != nil:
		path, err := s.robot.MoveTo(*req.X, *req.Y)
		if err != nil {
			return fail(c, statusFor(err), err)
		}
		resp = navigateResponse{Path: path.Cells(), Length: path.Length()}
	default:
		return fail(c, fiber.StatusBadRequest, fmt.Errorf("%w: need location or x and y", errBadRequest))
	}
	return c.JSON(resp)
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	s.robot.CancelNavigation()
	return c.JSON(s.robot.Summary())
}

func (s *Server) handleWake(c *fiber.Ctx) error {
	if err := s.robot.WakeUp(); err != nil {
		return fail(c, statusFor(err), err)
	}
	return c.JSON(s.robot.Summary())
}

func (s *Server) handleSleep(c *fiber.Ctx) error {
	if err := s.robot.GotoSleep(); err != nil {
		return fail(c, statusFor(err), err)
	}
	return c.JSON(s.robot.Summary())
}

func (s *Server) handleGaze(c *fiber.Ctx) error {
	var req gazeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}

	var err error
	switch {
	case req.U != nil && req.V != nil:
		err = s.robot.LookAtImage(*req.U, *req.V)
	case req.X != nil && req.Y != nil && req.Z != nil:
		err = s.robot.LookAtWorld(*req.X, *req.Y, *req.Z)
	default:
		return fail(c, fiber.StatusBadRequest, fmt.Errorf("%w: need u and v or x, y and z", errBadRequest))
	}
	if err != nil {
		return fail(c, statusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleStateWS streams summaries to one client until it disconnects.
func (s *Server) handleStateWS(conn *websocket.Conn) {
	client := NewClient(s.hub, conn)
	if client == nil {
		return
	}
	client.Run()
}
