package nav

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/hardware/chassis"
	"github.com/teslashibe/go-reachy-office/pkg/officemap"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

func newNav(m *officemap.Map, start pose.Pose2D) *Navigator {
	return New(m, DefaultConfig(), start, log.Discard())
}

// runFor advances the navigator with the given total time split into ticks
// of dt, returning whether it was still moving after the last call.
func runFor(n *Navigator, total, dt float64) bool {
	moving := true
	steps := int(math.Round(total / dt))
	for i := 0; i < steps && moving; i++ {
		moving = n.UpdatePosition(dt)
	}
	if rem := total - float64(steps)*dt; moving && rem > 1e-12 {
		moving = n.UpdatePosition(rem)
	}
	return moving
}

// followTime bounds how long the follower needs for p from heading: the
// runs at Speed, the corners at MaxAngularSpeed, and two ticks of slack per
// run for partial final steps.
func followTime(p *Path, heading float64, cfg Config, dt float64) float64 {
	pts := straighten(p.Polyline())
	total := p.Length() / cfg.Speed
	for i := 1; i < len(pts); i++ {
		d := r2.Sub(pts[i], pts[i-1])
		want := math.Atan2(d.Y, d.X)
		total += math.Abs(pose.NormalizeAngle(want-heading))/cfg.MaxAngularSpeed + 2*dt
		heading = want
	}
	return total
}

func TestFollowerArrivesAfterLengthOverSpeed(t *testing.T) {
	m := scenarioMap(t)
	for _, dt := range []float64{0.01, 0.02, 1.0 / 30, 0.05, 0.1} {
		for _, goal := range []r2.Vec{{X: 4, Y: 0}, {X: 0, Y: 4}} {
			n := newNav(m, pose.Pose2D{Heading: math.Atan2(goal.Y, goal.X)})
			p, err := n.MoveTo(goal.X, goal.Y)
			if err != nil {
				t.Fatal(err)
			}
			if runFor(n, p.Length()/n.Config().Speed, dt) {
				t.Errorf("dt=%v goal=%v: still moving after length/speed", dt, goal)
			}
			got := n.Pose().Position()
			if d := r2.Norm(r2.Sub(got, goal)); d > n.Config().ArrivalTolerance {
				t.Errorf("dt=%v goal=%v: %v from goal", dt, goal, d)
			}
		}
	}
}

func TestFollowerArrivesAroundCorners(t *testing.T) {
	m := scenarioMap(t)
	for _, dt := range []float64{0.01, 0.02, 1.0 / 30, 0.05, 0.1} {
		n := newNav(m, pose.Pose2D{X: 0, Y: 0, Heading: math.Pi / 4})
		p, err := n.MoveTo(4, 4)
		if err != nil {
			t.Fatal(err)
		}
		total := followTime(p, math.Pi/4, n.Config(), dt)
		if runFor(n, total, dt) {
			t.Errorf("dt=%v: still moving after %v s", dt, total)
		}
		got := n.Pose().Position()
		if d := math.Hypot(got.X-4, got.Y-4); d > n.Config().ArrivalTolerance {
			t.Errorf("dt=%v: %v from goal, want <= %v", dt, d, n.Config().ArrivalTolerance)
		}
		if n.IsNavigating() {
			t.Errorf("dt=%v: still navigating after arrival", dt)
		}
	}
}

func TestFollowerDefaultOfficeRoutes(t *testing.T) {
	m := officemap.DefaultOffice()
	locs := m.Locations()
	for _, a := range locs {
		for _, b := range locs {
			if a.Name == b.Name {
				continue
			}
			path, err := Plan(m, a.Cell, b.Cell)
			if err != nil {
				t.Fatal(err)
			}
			first := path.Cells()[1]
			heading := math.Atan2(float64(first.Y-a.Cell.Y), float64(first.X-a.Cell.X))

			n := newNav(m, pose.Pose2D{X: float64(a.Cell.X), Y: float64(a.Cell.Y), Heading: heading})
			if _, err := n.NavigateTo(b.Name); err != nil {
				t.Fatal(err)
			}
			if runFor(n, followTime(path, heading, n.Config(), 0.02), 0.02) {
				t.Errorf("%s -> %s: not arrived in time", a.Name, b.Name)
			}
		}
	}
}

func TestFollowerNeverLeavesWalkableCells(t *testing.T) {
	m := officemap.DefaultOffice()
	n := newNav(m, pose.Pose2D{X: 1, Y: 10})
	if _, err := n.NavigateTo("desks"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5000 && n.UpdatePosition(0.02); i++ {
		p := n.Pose()
		c, _ := m.NearestWalkable(p.X, p.Y)
		if math.Hypot(float64(c.X)-p.X, float64(c.Y)-p.Y) > 0.75 {
			t.Fatalf("pose %v strays from walkable cells", p)
		}
	}
	if n.IsNavigating() {
		t.Fatal("never arrived")
	}
}

func TestFollowerMatchesUnicycleChassis(t *testing.T) {
	m := officemap.DefaultOffice()
	for _, dt := range []float64{0.02, 0.05} {
		start := pose.Pose2D{X: 2, Y: 9, Heading: 0.3}
		n := newNav(m, start)
		base := chassis.NewSim(start)
		if _, err := n.NavigateTo("desks"); err != nil {
			t.Fatal(err)
		}
		moving := true
		for i := 0; i < 10000 && moving; i++ {
			moving = n.UpdatePosition(dt)
			cmd := n.Command()
			if cmd.Linear != 0 && cmd.Angular != 0 {
				t.Fatalf("dt=%v tick %d: command %+v both turns and drives", dt, i, cmd)
			}
			if cmd.Linear < 0 || cmd.Linear > n.Config().Speed+1e-9 {
				t.Fatalf("dt=%v tick %d: linear %v out of range", dt, i, cmd.Linear)
			}
			if err := base.SetVelocity(cmd.Linear, cmd.Angular); err != nil {
				t.Fatal(err)
			}
			base.Advance(dt)

			odom, _ := base.Odometry()
			want := n.Pose()
			if math.Hypot(odom.X-want.X, odom.Y-want.Y) > 1e-6 ||
				math.Abs(pose.NormalizeAngle(odom.Heading-want.Heading)) > 1e-6 {
				t.Fatalf("dt=%v tick %d: chassis at %v, follower at %v", dt, i, odom, want)
			}
		}
		if moving {
			t.Fatalf("dt=%v: never arrived", dt)
		}
	}
}

func TestStraightenMergesRuns(t *testing.T) {
	pts := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 1}, {X: 4, Y: 2}, {X: 4, Y: 3}}
	want := []r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 4, Y: 2}, {X: 4, Y: 3}}
	got := straighten(pts)
	if len(got) != len(want) {
		t.Fatalf("straighten = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFollowerRotatesBeforeDriving(t *testing.T) {
	m := scenarioMap(t)
	// Facing -X, goal is along +X.
	n := newNav(m, pose.Pose2D{X: 0, Y: 0, Heading: math.Pi})
	if _, err := n.MoveTo(4, 0); err != nil {
		t.Fatal(err)
	}

	if !n.UpdatePosition(0.1) {
		t.Fatal("stopped on first tick")
	}
	p := n.Pose()
	if p.X != 0 || p.Y != 0 {
		t.Errorf("translated while turning around: %v", p)
	}
	wantHeading := pose.NormalizeAngle(math.Pi - 0.2)
	if math.Abs(math.Abs(p.Heading)-math.Abs(wantHeading)) > 1e-9 {
		t.Errorf("heading = %v, want |%v| (bounded turn)", p.Heading, wantHeading)
	}
	if math.Abs(n.Command().Angular) > n.Config().MaxAngularSpeed+1e-9 {
		t.Errorf("angular command %v exceeds limit", n.Command().Angular)
	}
	if n.Command().Linear != 0 {
		t.Errorf("linear command = %v, want 0", n.Command().Linear)
	}

	for i := 0; i < 1000 && n.UpdatePosition(0.05); i++ {
	}
	if got := n.Pose(); math.Abs(got.X-4) > 0.05 || math.Abs(got.Y) > 0.05 {
		t.Errorf("final pose = %v", got)
	}
}

func TestFollowerStepBounded(t *testing.T) {
	m := scenarioMap(t)
	n := newNav(m, pose.Pose2D{X: 0, Y: 0, Heading: 0})
	if _, err := n.MoveTo(4, 0); err != nil {
		t.Fatal(err)
	}
	prev := n.Pose().Position()
	for n.UpdatePosition(0.1) {
		cur := n.Pose().Position()
		if d := math.Hypot(cur.X-prev.X, cur.Y-prev.Y); d > n.Config().Speed*0.1+1e-9 {
			t.Fatalf("moved %v in one tick", d)
		}
		prev = cur
	}
}

func TestMoveToSnapsToWalkable(t *testing.T) {
	m := scenarioMap(t)
	n := newNav(m, pose.Pose2D{})
	p, err := n.MoveTo(2.1, 1.9)
	if err != nil {
		t.Fatal(err)
	}
	goal := p.Goal()
	if goal == (officemap.Cell{X: 2, Y: 2}) {
		t.Fatal("goal was not snapped off the wall")
	}
	if ok, _ := m.IsWalkable(goal.X, goal.Y); !ok {
		t.Errorf("goal %v not walkable", goal)
	}
	if target, ok := n.Target(); !ok || target != goal {
		t.Errorf("Target() = %v, %v", target, ok)
	}
}

func TestMoveToSupersedesPreviousPath(t *testing.T) {
	m := scenarioMap(t)
	n := newNav(m, pose.Pose2D{})
	if _, err := n.MoveTo(4, 4); err != nil {
		t.Fatal(err)
	}
	n.UpdatePosition(0.1)
	p, err := n.MoveTo(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := n.Target(); got != p.Goal() || got != (officemap.Cell{X: 0, Y: 4}) {
		t.Errorf("target = %v, want (0,4)", got)
	}
}

func TestMoveToFailureKeepsState(t *testing.T) {
	m := mustMap(t,
		"..#..",
		"..#..",
	)
	n := newNav(m, pose.Pose2D{})
	if _, err := n.MoveTo(1, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := n.MoveTo(4, 0); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("err = %v, want ErrPathNotFound", err)
	}
	if got, _ := n.Target(); got != (officemap.Cell{X: 1, Y: 1}) {
		t.Errorf("target changed to %v after failed plan", got)
	}
	if !n.IsNavigating() {
		t.Error("failed plan cancelled the running navigation")
	}
}

func TestCancelAndIdle(t *testing.T) {
	m := scenarioMap(t)
	n := newNav(m, pose.Pose2D{})
	if n.UpdatePosition(0.1) {
		t.Error("idle navigator reports motion")
	}
	if _, err := n.MoveTo(4, 0); err != nil {
		t.Fatal(err)
	}
	if n.Remaining() <= 0 {
		t.Error("Remaining should be positive while navigating")
	}
	n.Cancel()
	if n.IsNavigating() || n.Path() != nil || n.Remaining() != 0 {
		t.Error("Cancel left navigation state behind")
	}
	if !n.Command().IsZero() {
		t.Error("Cancel should zero the velocity command")
	}
}

func TestNavigateToUnknownLocation(t *testing.T) {
	n := newNav(officemap.DefaultOffice(), pose.Pose2D{X: 2, Y: 9})
	if _, err := n.NavigateTo("basement"); !errors.Is(err, officemap.ErrUnknownLocation) {
		t.Errorf("err = %v", err)
	}
}
