package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/teslashibe/go-reachy-office/internal/config"
	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/control"
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/hardware/chassis"
	"github.com/teslashibe/go-reachy-office/pkg/hardware/daemon"
	"github.com/teslashibe/go-reachy-office/pkg/hardware/sim"
	"github.com/teslashibe/go-reachy-office/pkg/interp"
	"github.com/teslashibe/go-reachy-office/pkg/nav"
	"github.com/teslashibe/go-reachy-office/pkg/officemap"
	"github.com/teslashibe/go-reachy-office/pkg/perception"
	"github.com/teslashibe/go-reachy-office/pkg/perception/yunet"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
	"github.com/teslashibe/go-reachy-office/pkg/robot"
)

// loadMap returns the configured map or the built-in office.
func loadMap(cfg config.Config) (*officemap.Map, error) {
	if cfg.Map.Path == "" {
		return officemap.DefaultOffice(), nil
	}
	m, err := officemap.Load(cfg.Map.Path)
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}
	return m, nil
}

func startPose(cfg config.Config) pose.Pose2D {
	return pose.Pose2D{X: cfg.Robot.StartX, Y: cfg.Robot.StartY, Heading: cfg.Robot.StartHeading}
}

func navConfig(cfg config.Config) nav.Config {
	return nav.Config{
		Speed:            cfg.Nav.Speed,
		MaxAngularSpeed:  cfg.Nav.MaxAngularSpeed,
		ArrivalTolerance: cfg.Nav.ArrivalTolerance,
		HeadingTolerance: cfg.Nav.HeadingTolerance,
	}
}

func robotConfig(cfg config.Config) (robot.Config, error) {
	playback, err := interp.ParseMethod(cfg.Motion.PlaybackMethod)
	if err != nil {
		return robot.Config{}, fmt.Errorf("motion.playback_method: %w", err)
	}
	gaze, err := interp.ParseMethod(cfg.Motion.GazeMethod)
	if err != nil {
		return robot.Config{}, fmt.Errorf("motion.gaze_method: %w", err)
	}

	rc := robot.DefaultConfig()
	rc.Start = startPose(cfg)
	rc.StartAsleep = cfg.Robot.StartAsleep
	rc.Nav = navConfig(cfg)
	rc.SampleHz = cfg.Motion.SampleHz
	rc.PlaybackMethod = playback
	rc.GazeDuration = cfg.Motion.GazeDuration
	rc.GazeMethod = gaze
	return rc, nil
}

func loopConfig(cfg config.Config) control.Config {
	lc := control.DefaultConfig()
	lc.Hz = cfg.Tick.Hz
	lc.TrackFaces = cfg.Perception.Enabled
	return lc
}

// newBackend builds the simulator or connects to the daemon, depending on
// the mode. A serial chassis is attached to the daemon when configured.
func newBackend(ctx context.Context, cfg config.Config, cellSize float64, logger *slog.Logger) (hardware.Backend, error) {
	switch cfg.Mode {
	case config.ModeMock:
		sc := sim.DefaultConfig()
		sc.Start = startPose(cfg)
		return sim.New(sc, log.Component("sim")), nil

	case config.ModeReal:
		dc := daemon.DefaultConfig(cfg.Robot.APIURL())
		dc.StateStream = cfg.Robot.StateStream
		dc.CellSize = cellSize
		if cfg.Chassis.Port != "" {
			ch, err := chassis.OpenSerial(cfg.Chassis.Port, cfg.Chassis.Baud)
			if err != nil {
				return nil, err
			}
			logger.Info("serial chassis attached", "port", cfg.Chassis.Port, "baud", cfg.Chassis.Baud)
			dc.Chassis = ch
		}
		b, err := daemon.Connect(ctx, dc, log.Component("daemon"))
		if err != nil {
			if dc.Chassis != nil {
				dc.Chassis.Close()
			}
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

// newPerception opens the camera and the face detector. The returned
// closer releases the camera; the worker closes the detector.
func newPerception(cfg config.Config) (*perception.Worker, io.Closer, error) {
	yc := yunet.DefaultConfig()
	if cfg.Perception.ModelPath != "" {
		yc.ModelPath = cfg.Perception.ModelPath
	}
	det, err := yunet.New(yc)
	if err != nil {
		return nil, nil, err
	}
	cam, err := yunet.OpenCamera(cfg.Perception.Device)
	if err != nil {
		det.Close()
		return nil, nil, err
	}

	pc := perception.DefaultConfig()
	if cfg.Perception.Interval > 0 {
		pc.Interval = cfg.Perception.Interval
	}
	if cfg.Perception.Buffer > 0 {
		pc.Buffer = cfg.Perception.Buffer
	}
	return perception.NewWorker(cam, det, pc, nil, log.Component("perception")), cam, nil
}

// parsePoint accepts "x,y" in cells.
func parsePoint(s string) (x, y float64, ok bool) {
	xs, ys, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// resolveCell turns a location name or "x,y" into a walkable cell.
func resolveCell(m *officemap.Map, s string) (officemap.Cell, error) {
	if x, y, ok := parsePoint(s); ok {
		c, found := m.NearestWalkable(x, y)
		if !found {
			return officemap.Cell{}, fmt.Errorf("%w: no walkable cell near %s", nav.ErrPathNotFound, s)
		}
		return c, nil
	}
	loc, err := m.Location(s)
	if err != nil {
		return officemap.Cell{}, err
	}
	return loc.Cell, nil
}
