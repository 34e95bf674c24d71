// Package hardware defines what the robot core needs from a physical or
// simulated Reachy Mini.
//
// Like the robot controller interfaces, the capability set is split into
// small interfaces; Backend composes them. Consumers should depend only on
// what they use.
package hardware

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// JointDriver pushes joint configurations to the actuators.
type JointDriver interface {
	ApplyTarget(cfg pose.JointConfiguration) error
}

// BaseDriver moves the mobile base. dt is the tick length in seconds.
type BaseDriver interface {
	Drive(cmd pose.Twist, dt float64) error
}

// MotorController switches motor modes.
type MotorController interface {
	Motors() []string
	WakeUp() error
	Sleep() error
	SetMotorEnabled(name string, enabled bool) error
	SetGravityCompensation(enabled bool) error
}

// IMUReader reads the inertial measurement unit.
type IMUReader interface {
	IMU() (IMU, error)
}

// Backend is the full capability set of a robot.
type Backend interface {
	JointDriver
	BaseDriver
	MotorController
	IMUReader

	Name() string
	Close() error
}

// IMU is one inertial reading. Acceleration is in m/s², angular velocity
// in rad/s, orientation a unit quaternion (w, x, y, z).
type IMU struct {
	Accelerometer [3]float64 `json:"accelerometer"`
	Gyroscope     [3]float64 `json:"gyroscope"`
	Quaternion    [4]float64 `json:"quaternion"`
	Temperature   float64    `json:"temperature"`
}

// Gravity is standard gravity in m/s².
const Gravity = 9.81

// RestingIMU is the reading of a level robot at rest.
func RestingIMU() IMU {
	return IMU{
		Accelerometer: [3]float64{0, 0, Gravity},
		Quaternion:    [4]float64{1, 0, 0, 0},
		Temperature:   25,
	}
}

// Tilt returns the angle between measured acceleration and vertical, in
// radians.
func (m IMU) Tilt() float64 {
	a := m.Accelerometer
	n := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	if n == 0 {
		return 0
	}
	return math.Acos(max(-1, min(1, a[2]/n)))
}

// CheckMotor returns ErrUnknownMotor unless name is one of motors.
func CheckMotor(motors []string, name string) error {
	if !lo.Contains(motors, name) {
		return fmt.Errorf("%w: %q", ErrUnknownMotor, name)
	}
	return nil
}
