// Package sim is an in-process Reachy Mini used for development and tests.
// It records every command it receives and produces deterministic sensor
// readings from a fixed seed.
package sim

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"go.uber.org/multierr"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/hardware/chassis"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Config holds simulation settings.
type Config struct {
	Seed     uint64
	IMUNoise float64 // standard deviation added to each IMU axis
	Start    pose.Pose2D
}

// DefaultConfig returns the default simulation settings.
func DefaultConfig() Config {
	return Config{Seed: 1, IMUNoise: 0.01}
}

// Backend simulates the robot hardware.
type Backend struct {
	cfg     Config
	logger  *slog.Logger
	chassis *chassis.Sim

	mu      sync.Mutex
	rng     *rand.Rand
	motors  map[string]bool
	gravity bool
	target  pose.JointConfiguration
	applied int
	twist   pose.Twist
	closed  bool
}

var _ hardware.Backend = (*Backend)(nil)

// New creates a simulated backend with all motors disabled.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = log.Component("sim")
	}
	motors := make(map[string]bool, len(pose.MotorNames))
	for _, name := range pose.MotorNames {
		motors[name] = false
	}
	return &Backend{
		cfg:     cfg,
		logger:  logger,
		chassis: chassis.NewSim(cfg.Start),
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		motors:  motors,
		target:  pose.Neutral(),
	}
}

func (b *Backend) Name() string { return "sim" }

func (b *Backend) Motors() []string { return slices.Clone(pose.MotorNames) }

func (b *Backend) ApplyTarget(cfg pose.JointConfiguration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return hardware.ErrNotConnected
	}
	b.target = cfg.Clone()
	b.applied++
	return nil
}

// Drive forwards the command to the simulated chassis and integrates it.
func (b *Backend) Drive(cmd pose.Twist, dt float64) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return hardware.ErrNotConnected
	}
	b.twist = cmd
	b.mu.Unlock()

	if err := b.chassis.SetVelocity(cmd.Linear, cmd.Angular); err != nil {
		return err
	}
	b.chassis.Advance(dt)
	return nil
}

func (b *Backend) WakeUp() error {
	return b.setAll(true)
}

func (b *Backend) Sleep() error {
	if err := b.chassis.Stop(); err != nil {
		return err
	}
	return b.setAll(false)
}

func (b *Backend) setAll(enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return hardware.ErrNotConnected
	}
	for name := range b.motors {
		b.motors[name] = enabled
	}
	b.logger.Debug("motors switched", "enabled", enabled)
	return nil
}

func (b *Backend) SetMotorEnabled(name string, enabled bool) error {
	if err := hardware.CheckMotor(pose.MotorNames, name); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return hardware.ErrNotConnected
	}
	b.motors[name] = enabled
	return nil
}

func (b *Backend) SetGravityCompensation(enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return hardware.ErrNotConnected
	}
	b.gravity = enabled
	return nil
}

// IMU returns a resting reading with seeded gaussian noise. The gyroscope z
// axis reports the commanded turn rate.
func (b *Backend) IMU() (hardware.IMU, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return hardware.IMU{}, hardware.ErrNotConnected
	}

	m := hardware.RestingIMU()
	m.Gyroscope[2] = b.twist.Angular
	for i := range 3 {
		m.Accelerometer[i] += b.rng.NormFloat64() * b.cfg.IMUNoise
		m.Gyroscope[i] += b.rng.NormFloat64() * b.cfg.IMUNoise
	}
	return m, nil
}

// LastTarget returns the most recently applied configuration and how many
// targets have been applied in total.
func (b *Backend) LastTarget() (pose.JointConfiguration, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target.Clone(), b.applied
}

// MotorEnabled reports a motor's state.
func (b *Backend) MotorEnabled(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.motors[name]
}

// GravityCompensation reports whether gravity compensation is on.
func (b *Backend) GravityCompensation() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gravity
}

// Chassis exposes the simulated base.
func (b *Backend) Chassis() *chassis.Sim { return b.chassis }

// Close stops the chassis. It is safe to call more than once.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var err error
	err = multierr.Append(err, b.chassis.Stop())
	err = multierr.Append(err, b.chassis.Close())
	return err
}
