// Package chassis drives the mobile base under the robot.
//
// Velocities use whatever distance unit the caller commands in (the core
// uses grid cells); headings are radians, counter-clockwise.
package chassis

import (
	"errors"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Chassis is a velocity-controlled differential-drive base.
type Chassis interface {
	SetVelocity(linear, angular float64) error
	Stop() error
	Odometry() (pose.Pose2D, error)
	Close() error
}

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("chassis closed")

	// ErrCommandFailed is returned when the device rejects a command.
	ErrCommandFailed = errors.New("chassis command failed")
)
