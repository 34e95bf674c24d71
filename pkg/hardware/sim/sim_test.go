package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

func newTestBackend() *Backend {
	return New(DefaultConfig(), log.Discard())
}

func TestApplyTargetRecords(t *testing.T) {
	b := newTestBackend()
	cfg := pose.Neutral()
	cfg.BodyYaw = 0.3

	require.NoError(t, b.ApplyTarget(cfg))
	cfg.BodyYaw = 0.9 // must not leak into the recorded copy

	got, n := b.LastTarget()
	assert.Equal(t, 1, n)
	assert.Equal(t, 0.3, got.BodyYaw)
}

func TestMotorModes(t *testing.T) {
	b := newTestBackend()
	for _, name := range b.Motors() {
		assert.False(t, b.MotorEnabled(name), name)
	}

	require.NoError(t, b.WakeUp())
	for _, name := range b.Motors() {
		assert.True(t, b.MotorEnabled(name), name)
	}

	require.NoError(t, b.SetMotorEnabled(pose.AntennaLeft, false))
	assert.False(t, b.MotorEnabled(pose.AntennaLeft))
	assert.ErrorIs(t, b.SetMotorEnabled("tail", true), hardware.ErrUnknownMotor)

	require.NoError(t, b.SetGravityCompensation(true))
	assert.True(t, b.GravityCompensation())

	require.NoError(t, b.Sleep())
	for _, name := range b.Motors() {
		assert.False(t, b.MotorEnabled(name), name)
	}
}

func TestDriveIntegratesChassis(t *testing.T) {
	b := New(Config{Start: pose.Pose2D{X: 2, Y: 9}}, log.Discard())
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Drive(pose.Twist{Linear: 1}, 0.1))
	}
	p, err := b.Chassis().Odometry()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, p.X, 1e-9)
	assert.InDelta(t, 9.0, p.Y, 1e-9)
}

func TestIMUIsSeeded(t *testing.T) {
	a, b := newTestBackend(), newTestBackend()
	for i := 0; i < 5; i++ {
		ma, err := a.IMU()
		require.NoError(t, err)
		mb, _ := b.IMU()
		assert.Equal(t, ma, mb, "same seed must give the same readings")
		assert.InDelta(t, hardware.Gravity, ma.Accelerometer[2], 0.1)
		assert.Less(t, ma.Tilt(), 0.05)
	}

	quiet := New(Config{}, log.Discard())
	require.NoError(t, quiet.Drive(pose.Twist{Angular: 0.5}, 0.1))
	m, _ := quiet.IMU()
	assert.Equal(t, 0.5, m.Gyroscope[2])
	assert.Equal(t, hardware.Gravity, m.Accelerometer[2])
	assert.False(t, math.IsNaN(m.Tilt()))
}

func TestClose(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.ApplyTarget(pose.Neutral()), hardware.ErrNotConnected)
	_, err := b.IMU()
	assert.ErrorIs(t, err, hardware.ErrNotConnected)
}
