package robot

import (
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/officemap"
)

// Summary is a flat snapshot of the robot state for publication.
type Summary struct {
	State               string             `json:"state"`
	Awake               bool               `json:"awake"`
	X                   float64            `json:"x"`
	Y                   float64            `json:"y"`
	Heading             float64            `json:"heading"`
	Joints              map[string]float64 `json:"joints"`
	EnabledMotors       []string           `json:"enabled_motors"`
	MotionPlaying       bool               `json:"motion_playing"`
	Recording           bool               `json:"recording"`
	Navigating          bool               `json:"navigating"`
	Goal                *officemap.Cell    `json:"goal,omitempty"`
	Remaining           float64            `json:"remaining"`
	GravityCompensation bool               `json:"gravity_compensation"`
	IMU                 hardware.IMU       `json:"imu"`
	Backend             string             `json:"backend"`
}

// Summary returns a snapshot. The IMU field holds the last reading taken
// through IMU.
func (r *Robot) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.navigator.Pose()
	s := Summary{
		State:               r.state.String(),
		Awake:               r.state.Awake(),
		X:                   p.X,
		Y:                   p.Y,
		Heading:             p.Heading,
		Joints:              r.joints.Positions(),
		EnabledMotors:       r.enabledLocked(),
		MotionPlaying:       r.state == PlayingMotion,
		Recording:           r.state == Recording,
		Navigating:          r.state == AwakeMoving,
		Remaining:           r.navigator.Remaining(),
		GravityCompensation: r.gravity,
		IMU:                 r.imu,
		Backend:             r.backend.Name(),
	}
	if goal, ok := r.navigator.Target(); ok {
		s.Goal = &goal
	}
	if s.EnabledMotors == nil {
		s.EnabledMotors = []string{}
	}
	return s
}

// Path returns the cells of the path being followed, or nil.
func (r *Robot) Path() []officemap.Cell {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path := r.navigator.Path(); path != nil && r.navigator.IsNavigating() {
		return path.Cells()
	}
	return nil
}
