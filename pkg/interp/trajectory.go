package interp

import (
	"errors"
	"fmt"
	"math"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// ErrInvalidDuration is returned for negative or non-finite durations.
var ErrInvalidDuration = errors.New("interp: invalid duration")

// JointTrajectory is a timed transition between two configurations.
type JointTrajectory struct {
	Start    pose.JointConfiguration
	End      pose.JointConfiguration
	Duration float64 // seconds
	Method   Method
}

// NewTrajectory validates and builds a trajectory. A zero duration is
// allowed and jumps straight to end.
func NewTrajectory(start, end pose.JointConfiguration, duration float64, m Method) (*JointTrajectory, error) {
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}
	return &JointTrajectory{
		Start:    start.Clone(),
		End:      end.Clone(),
		Duration: duration,
		Method:   m,
	}, nil
}

// Progress returns clamp(elapsed/duration, 0, 1).
func (j *JointTrajectory) Progress(elapsed float64) float64 {
	if j.Duration <= 0 {
		return 1
	}
	return min(max(elapsed/j.Duration, 0), 1)
}

// Sample returns the configuration after elapsed seconds.
func (j *JointTrajectory) Sample(elapsed float64) pose.JointConfiguration {
	return Interpolate(j.Start, j.End, j.Progress(elapsed), j.Method)
}

// Done reports whether the trajectory has reached its end.
func (j *JointTrajectory) Done(elapsed float64) bool {
	return elapsed >= j.Duration
}

// Animator advances at most one trajectory with explicit time steps.
type Animator struct {
	traj    *JointTrajectory
	elapsed float64
}

// Start replaces any running trajectory.
func (a *Animator) Start(j *JointTrajectory) {
	a.traj = j
	a.elapsed = 0
}

// Active reports whether a trajectory is running.
func (a *Animator) Active() bool {
	return a.traj != nil
}

// Cancel drops the running trajectory, leaving the last sample in place.
func (a *Animator) Cancel() {
	a.traj = nil
	a.elapsed = 0
}

// Tick advances by dt and returns the new sample. ok is false when nothing
// is running. The final call returns the exact end configuration and
// retires the trajectory.
func (a *Animator) Tick(dt float64) (cfg pose.JointConfiguration, ok bool) {
	if a.traj == nil {
		return pose.JointConfiguration{}, false
	}
	a.elapsed += dt
	cfg = a.traj.Sample(a.elapsed)
	if a.traj.Done(a.elapsed) {
		a.traj = nil
		a.elapsed = 0
	}
	return cfg, true
}
