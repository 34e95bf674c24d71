// Package pose holds the geometric value types shared by the planner, the
// interpolation engine and the robot state machine: the chassis pose on the
// map, the head transform and the full joint configuration.
package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pose2D is the chassis pose on the map plane. X and Y are in grid cells,
// Heading is in radians, counter-clockwise from +X.
type Pose2D struct {
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Heading float64 `json:"heading" yaml:"heading"`
}

// Position returns the planar position as a vector.
func (p Pose2D) Position() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// WithPosition returns p moved to v, keeping the heading.
func (p Pose2D) WithPosition(v r2.Vec) Pose2D {
	p.X, p.Y = v.X, v.Y
	return p
}

// HeadingDegrees returns the heading in degrees.
func (p Pose2D) HeadingDegrees() float64 {
	return p.Heading * 180 / math.Pi
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.1f°)", p.X, p.Y, p.HeadingDegrees())
}

// NormalizeAngle wraps a to (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Twist is a planar velocity command: Linear in cells/s along the heading,
// Angular in rad/s counter-clockwise.
type Twist struct {
	Linear  float64 `json:"linear" yaml:"linear"`
	Angular float64 `json:"angular" yaml:"angular"`
}

// IsZero reports whether the twist commands no motion.
func (t Twist) IsZero() bool {
	return t.Linear == 0 && t.Angular == 0
}
