package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/control"
	"github.com/teslashibe/go-reachy-office/pkg/motion"
	"github.com/teslashibe/go-reachy-office/pkg/robot"
	"github.com/teslashibe/go-reachy-office/pkg/telemetry"
)

// RunAction builds the robot from config and runs the control loop until
// interrupted or --duration elapses.
func RunAction(c *cli.Context) error {
	cfg := appConfig(c)
	if mode := c.String(flagMode); mode != "" {
		cfg.Mode = mode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if c.IsSet(flagTelemetry) {
		cfg.Telemetry.Enabled = c.Bool(flagTelemetry)
	}
	logger := log.Component("officesim")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration(flagDuration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	m, err := loadMap(cfg)
	if err != nil {
		return err
	}
	rc, err := robotConfig(cfg)
	if err != nil {
		return err
	}
	backend, err := newBackend(ctx, cfg, m.CellSize(), logger)
	if err != nil {
		return err
	}
	r, err := robot.New(m, backend, rc, log.Component("robot"))
	if err != nil {
		backend.Close()
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn("close robot", "error", err)
		}
	}()

	loop := control.New(r, loopConfig(cfg), nil, log.Component("control"))

	if cfg.Perception.Enabled {
		worker, cam, err := newPerception(cfg)
		if err != nil {
			return err
		}
		defer cam.Close()
		loop.SetPerception(worker)
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	if cfg.Telemetry.Enabled {
		srv := telemetry.NewServer(r, log.Component("telemetry"))
		loop.SetPublisher(srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx, cfg.Telemetry.Addr); err != nil {
				logger.Error("telemetry stopped", "error", err)
			}
		}()
	}

	if err := startActivity(c, cfg.Motion.Dir, r); err != nil {
		return err
	}

	logger.Info("robot running",
		"mode", cfg.Mode,
		"backend", backend.Name(),
		"state", r.State().String(),
		"pose", r.Pose().String())
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	sum := r.Summary()
	logger.Info("robot stopped", "state", sum.State, "x", sum.X, "y", sum.Y)
	return nil
}

// startActivity applies --goto and --play. Both may be given; the robot
// refuses the second while the first is running.
func startActivity(c *cli.Context, dir string, r *robot.Robot) error {
	if loc := c.String(flagGoto); loc != "" {
		path, err := r.NavigateTo(loc)
		if err != nil {
			return err
		}
		log.Info("navigating", "location", loc, "cells", path.Len(), "length", path.Length())
	}
	if name := c.String(flagPlay); name != "" {
		lib := motion.NewLibrary(dir)
		if _, err := lib.LoadDir(); err != nil {
			return err
		}
		mv, err := lib.Get(name)
		if err != nil {
			return err
		}
		if err := r.PlayMotion(mv, c.Float64(flagSpeed)); err != nil {
			return err
		}
		log.Info("playing move", "move", mv.String(), "speed", c.Float64(flagSpeed))
	}
	return nil
}
