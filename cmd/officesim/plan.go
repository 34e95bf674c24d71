package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-reachy-office/pkg/nav"
	"github.com/teslashibe/go-reachy-office/pkg/officemap"
)

// PlanAction plans from the start (or --from) to the argument and prints
// the map with the path drawn in.
func PlanAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("plan: want exactly one destination, got %d", c.NArg())
	}
	cfg := appConfig(c)
	m, err := loadMap(cfg)
	if err != nil {
		return err
	}

	start, ok := m.NearestWalkable(cfg.Robot.StartX, cfg.Robot.StartY)
	if from := c.String(flagFrom); from != "" {
		start, err = resolveCell(m, from)
		if err != nil {
			return err
		}
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: map has no walkable cell", nav.ErrPathNotFound)
	}
	goal, err := resolveCell(m, c.Args().First())
	if err != nil {
		return err
	}

	path, err := nav.Plan(m, start, goal)
	if err != nil {
		return err
	}
	marks := make(map[officemap.Cell]byte, path.Len())
	for _, cell := range path.Cells() {
		marks[cell] = '*'
	}
	marks[start] = 'S'
	marks[goal] = 'G'

	w := c.App.Writer
	fmt.Fprint(w, m.ASCII(marks))
	fmt.Fprintf(w, "path %v -> %v: %d cells, length %.3f\n", start, goal, path.Len(), path.Length())
	return nil
}

// MapAction prints the map with the robot's start cell, or saves it.
func MapAction(c *cli.Context) error {
	cfg := appConfig(c)
	m, err := loadMap(cfg)
	if err != nil {
		return err
	}
	if out := c.String(flagPath); out != "" {
		if err := m.Save(out); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "wrote %dx%d map to %s\n", m.Width(), m.Height(), out)
		return nil
	}

	marks := map[officemap.Cell]byte{}
	if start, ok := m.NearestWalkable(cfg.Robot.StartX, cfg.Robot.StartY); ok {
		marks[start] = 'R'
	}
	fmt.Fprint(c.App.Writer, m.ASCII(marks))
	return nil
}

// PatrolAction walks the default patrol from the start cell, planning each
// leg in turn.
func PatrolAction(c *cli.Context) error {
	cfg := appConfig(c)
	m, err := loadMap(cfg)
	if err != nil {
		return err
	}
	here, ok := m.NearestWalkable(cfg.Robot.StartX, cfg.Robot.StartY)
	if !ok {
		return fmt.Errorf("%w: map has no walkable cell", nav.ErrPathNotFound)
	}

	w := c.App.Writer
	total := 0.0
	patrol := nav.DefaultPatrol()
	for minute := 0.0; minute < 24*60 && patrol.Remaining() > 0; minute++ {
		stop, due := patrol.Due(minute)
		if !due {
			continue
		}
		loc, err := m.Location(stop.Location)
		if err != nil {
			fmt.Fprintf(w, "%s  %-14s %-22s skipped: %v\n", stop.Clock(), stop.Location, stop.Action, err)
			continue
		}
		path, err := nav.Plan(m, here, loc.Cell)
		if err != nil {
			fmt.Fprintf(w, "%s  %-14s %-22s unreachable: %v\n", stop.Clock(), stop.Location, stop.Action, err)
			continue
		}
		fmt.Fprintf(w, "%s  %-14s %-22s %3d cells %7.3f\n", stop.Clock(), stop.Location, stop.Action, path.Len(), path.Length())
		total += path.Length()
		here = loc.Cell
	}
	fmt.Fprintf(w, "total %.3f cells (%.1f m)\n", total, total*m.CellSize())
	return nil
}
