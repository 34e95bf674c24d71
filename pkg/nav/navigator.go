package nav

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/officemap"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Config tunes the path follower. Distances are in grid cells.
type Config struct {
	// Speed is the translation speed in cells per second.
	Speed float64
	// MaxAngularSpeed bounds the turn rate in rad/s.
	MaxAngularSpeed float64
	// ArrivalTolerance is how close to the final waypoint counts as arrived.
	ArrivalTolerance float64
	// HeadingTolerance is the heading error (rad) above which the follower
	// rotates in place instead of driving.
	HeadingTolerance float64
}

// DefaultConfig returns follower defaults: 2 cells/s, 2 rad/s, 0.05 cells
// arrival tolerance, drive once aligned within ~1°.
func DefaultConfig() Config {
	return Config{
		Speed:            2.0,
		MaxAngularSpeed:  2.0,
		ArrivalTolerance: 0.05,
		HeadingTolerance: 0.02,
	}
}

// waypointEpsilon is the distance at which an intermediate waypoint counts
// as reached.
const waypointEpsilon = 1e-9

// Navigator plans on a static map and follows the current path. It is not
// safe for concurrent use; the robot state machine serialises access.
type Navigator struct {
	m   *officemap.Map
	cfg Config
	log *slog.Logger

	pose      pose.Pose2D
	path      *Path
	waypoints []r2.Vec
	goal      r2.Vec
	active    bool
	cmd       pose.Twist
}

// New creates a navigator at the given starting pose.
func New(m *officemap.Map, cfg Config, start pose.Pose2D, logger *slog.Logger) *Navigator {
	def := DefaultConfig()
	if cfg.Speed <= 0 {
		cfg.Speed = def.Speed
	}
	if cfg.MaxAngularSpeed <= 0 {
		cfg.MaxAngularSpeed = def.MaxAngularSpeed
	}
	if cfg.ArrivalTolerance <= 0 {
		cfg.ArrivalTolerance = def.ArrivalTolerance
	}
	if cfg.HeadingTolerance <= 0 {
		cfg.HeadingTolerance = def.HeadingTolerance
	}
	if logger == nil {
		logger = log.Component("nav")
	}
	return &Navigator{m: m, cfg: cfg, log: logger, pose: start}
}

// Map returns the map being navigated.
func (n *Navigator) Map() *officemap.Map { return n.m }

// Config returns the follower settings.
func (n *Navigator) Config() Config { return n.cfg }

// Pose returns the current chassis pose.
func (n *Navigator) Pose() pose.Pose2D { return n.pose }

// SetPose teleports the chassis, cancelling any navigation.
func (n *Navigator) SetPose(p pose.Pose2D) {
	n.Cancel()
	n.pose = p
}

// Plan runs A* on the navigator's map.
func (n *Navigator) Plan(start, goal officemap.Cell) (*Path, error) {
	return Plan(n.m, start, goal)
}

// MoveTo snaps (x, y) to the nearest walkable cell, plans from the current
// position and starts following. Any previous path is abandoned. On error
// the previous navigation state is left untouched.
func (n *Navigator) MoveTo(x, y float64) (*Path, error) {
	goal, ok := n.m.NearestWalkable(x, y)
	if !ok {
		return nil, fmt.Errorf("%w: map has no walkable cell", ErrPathNotFound)
	}
	start, _ := n.m.NearestWalkable(n.pose.X, n.pose.Y)

	path, err := Plan(n.m, start, goal)
	if err != nil {
		return nil, err
	}
	n.follow(path)
	n.log.Info("navigation started",
		"from", n.pose.String(),
		"goal", goal.String(),
		"cells", path.Len(),
		"length", path.Length())
	return path, nil
}

// NavigateTo moves to a named map location.
func (n *Navigator) NavigateTo(name string) (*Path, error) {
	loc, err := n.m.Location(name)
	if err != nil {
		return nil, err
	}
	return n.MoveTo(float64(loc.Cell.X), float64(loc.Cell.Y))
}

func (n *Navigator) follow(path *Path) {
	pts := path.Polyline()
	here := n.pose.Position()
	// Drop the start cell centre when we are already on it.
	if len(pts) > 1 && r2.Norm(r2.Sub(pts[0], here)) <= n.cfg.ArrivalTolerance {
		pts = pts[1:]
	}
	pts = straighten(append([]r2.Vec{here}, pts...))[1:]
	n.path = path
	n.waypoints = pts
	n.goal = pts[len(pts)-1]
	n.active = true
	n.cmd = pose.Twist{}
}

// Cancel stops following the current path.
func (n *Navigator) Cancel() {
	n.path = nil
	n.waypoints = nil
	n.active = false
	n.cmd = pose.Twist{}
}

// IsNavigating reports whether a path is being followed.
func (n *Navigator) IsNavigating() bool { return n.active }

// Path returns the path being followed, or nil.
func (n *Navigator) Path() *Path { return n.path }

// Target returns the goal cell of the current path.
func (n *Navigator) Target() (officemap.Cell, bool) {
	if n.path == nil {
		return officemap.Cell{}, false
	}
	return n.path.Goal(), true
}

// Command returns the velocity produced by the last update.
func (n *Navigator) Command() pose.Twist { return n.cmd }

// Remaining returns the distance left along the polyline, in cells.
func (n *Navigator) Remaining() float64 {
	if !n.active {
		return 0
	}
	total := 0.0
	prev := n.pose.Position()
	for _, wp := range n.waypoints {
		total += r2.Norm(r2.Sub(wp, prev))
		prev = wp
	}
	return total
}

// UpdatePosition advances the follower by dt seconds. Each update is a
// single unicycle motion, so a differential base given Command() for dt
// ends up at Pose(): either a rotation in place toward the next waypoint,
// bounded by MaxAngularSpeed, or, once the heading error is within
// HeadingTolerance, a straight drive along the current heading of at most
// Speed*dt that stops on the waypoint. It returns true while motion
// continues and false once within ArrivalTolerance of the final waypoint
// (or when idle). The command of the arriving update is kept so it can
// still be sent to the chassis.
func (n *Navigator) UpdatePosition(dt float64) bool {
	if !n.active {
		return false
	}
	if dt <= 0 {
		return true
	}

	n.cmd = pose.Twist{}
	pos := n.pose.Position()
	n.dropReached(pos)
	if n.arrived(pos) {
		n.finish()
		return false
	}

	delta := r2.Sub(n.waypoints[0], pos)
	dist := r2.Norm(delta)
	headingErr := pose.NormalizeAngle(math.Atan2(delta.Y, delta.X) - n.pose.Heading)
	if math.Abs(headingErr) > n.cfg.HeadingTolerance {
		limit := n.cfg.MaxAngularSpeed * dt
		turn := math.Max(-limit, math.Min(limit, headingErr))
		n.pose.Heading = pose.NormalizeAngle(n.pose.Heading + turn)
		n.cmd = pose.Twist{Angular: turn / dt}
		return true
	}

	step := math.Min(n.cfg.Speed*dt, dist)
	dir := r2.Vec{X: math.Cos(n.pose.Heading), Y: math.Sin(n.pose.Heading)}
	pos = r2.Add(pos, r2.Scale(step, dir))
	n.pose.X, n.pose.Y = pos.X, pos.Y
	n.cmd = pose.Twist{Linear: step / dt}

	// A residual heading error leaves the drive slightly off an
	// intermediate waypoint; it is passed once the step covers it.
	if step >= dist && len(n.waypoints) > 1 {
		n.waypoints = n.waypoints[1:]
	}
	n.dropReached(pos)
	if n.arrived(pos) {
		n.finish()
		return false
	}
	return true
}

// dropReached pops intermediate waypoints the chassis is sitting on.
func (n *Navigator) dropReached(pos r2.Vec) {
	for len(n.waypoints) > 1 && r2.Norm(r2.Sub(n.waypoints[0], pos)) <= waypointEpsilon {
		n.waypoints = n.waypoints[1:]
	}
}

func (n *Navigator) arrived(pos r2.Vec) bool {
	return len(n.waypoints) == 0 ||
		(len(n.waypoints) == 1 && r2.Norm(r2.Sub(n.goal, pos)) <= n.cfg.ArrivalTolerance)
}

// finish ends navigation but, unlike Cancel, keeps the last command.
func (n *Navigator) finish() {
	n.log.Info("navigation arrived", "pose", n.pose.String())
	n.path = nil
	n.waypoints = nil
	n.active = false
}

// straighten drops interior points that continue a straight run, so each
// run is driven as one segment.
func straighten(pts []r2.Vec) []r2.Vec {
	if len(pts) < 3 {
		return pts
	}
	out := []r2.Vec{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		a := r2.Sub(pts[i], out[len(out)-1])
		b := r2.Sub(pts[i+1], pts[i])
		if r2.Norm(a) > waypointEpsilon && math.Abs(r2.Cross(a, b)) <= waypointEpsilon && r2.Dot(a, b) > 0 {
			continue
		}
		out = append(out, pts[i])
	}
	return append(out, pts[len(pts)-1])
}
