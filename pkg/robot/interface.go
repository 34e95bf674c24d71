// Package robot is the central state machine of the office robot. It owns
// the robot state, drives navigation, joint trajectories, recording and
// playback from one explicit tick, and forwards commands to a
// hardware.Backend.
//
// Collaborators should depend on the narrowest interface below that covers
// what they use.
package robot

import (
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/interp"
	"github.com/teslashibe/go-reachy-office/pkg/motion"
	"github.com/teslashibe/go-reachy-office/pkg/nav"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Lifecycle wakes and sleeps the robot.
type Lifecycle interface {
	State() State
	WakeUp() error
	GotoSleep() error
	Close() error
}

// Navigation moves the chassis across the office.
type Navigation interface {
	Pose() pose.Pose2D
	MoveTo(x, y float64) (*nav.Path, error)
	NavigateTo(location string) (*nav.Path, error)
	CancelNavigation()
}

// MotionControl records and replays moves.
type MotionControl interface {
	StartMotionRecording(name string) error
	StopMotionRecording() (*motion.Move, error)
	PlayMotion(m *motion.Move, speed float64) error
	StopMotion()
	IsMotionPlaying() bool
}

// JointControl sets joint targets.
type JointControl interface {
	SetTarget(t pose.Target) error
	GotoTarget(t pose.Target, duration float64, method interp.Method) error
	CurrentJointPositions() pose.JointConfiguration
}

// Gaze points the head.
type Gaze interface {
	LookAtImage(u, v float64) error
	LookAtWorld(x, y, z float64) error
}

// Motors toggles motor modes and reads sensors.
type Motors interface {
	SetMotorEnabled(name string, enabled bool) error
	SetGravityCompensation(enabled bool) error
	IMU() (hardware.IMU, error)
}

// StateReader provides snapshots for publication.
type StateReader interface {
	Summary() Summary
}

// Ticker advances the robot by one simulation step.
type Ticker interface {
	Tick(dt float64) error
}

// Interface is the full operation set of the robot.
type Interface interface {
	Lifecycle
	Navigation
	MotionControl
	JointControl
	Gaze
	Motors
	StateReader
	Ticker
}

var _ Interface = (*Robot)(nil)
