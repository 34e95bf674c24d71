// Package motion records, replays and stores joint trajectories ("moves").
//
// A Recorder samples the live joint configuration at a fixed rate while the
// caller ticks it. A Player replays a finished Move at any positive speed,
// interpolating between the recorded keyframes. Moves persist to JSON or
// YAML and load back bit-for-bit.
package motion

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Sample is one recorded keyframe. Time is in seconds.
type Sample struct {
	Time   float64
	Config pose.JointConfiguration
}

// Move is an immutable recorded trajectory.
type Move struct {
	id        string
	name      string
	createdAt time.Time
	samples   []Sample
}

// NewMove validates samples and builds a Move. An empty id is replaced by a
// fresh UUID. The samples are deep-copied.
func NewMove(id, name string, createdAt time.Time, samples []Sample) (*Move, error) {
	if err := validateSamples(samples); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	cp := make([]Sample, len(samples))
	for i, s := range samples {
		cp[i] = Sample{Time: s.Time, Config: s.Config.Clone()}
	}
	return &Move{id: id, name: name, createdAt: createdAt, samples: cp}, nil
}

func validateSamples(samples []Sample) error {
	if len(samples) < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidTrajectory, len(samples))
	}
	first := samples[0]
	for i, s := range samples {
		if math.IsNaN(s.Time) || math.IsInf(s.Time, 0) {
			return fmt.Errorf("%w: sample %d has non-finite time", ErrInvalidTrajectory, i)
		}
		if !s.Config.IsFinite() {
			return fmt.Errorf("%w: sample %d has non-finite joint values", ErrInvalidTrajectory, i)
		}
		if i == 0 {
			continue
		}
		if s.Time <= samples[i-1].Time {
			return fmt.Errorf("%w: sample %d time %v does not follow %v", ErrInvalidTrajectory, i, s.Time, samples[i-1].Time)
		}
		if !s.Config.SameJoints(first.Config) {
			return fmt.Errorf("%w: sample %d joints %v differ from %v", ErrInvalidTrajectory, i, s.Config.JointNames(), first.Config.JointNames())
		}
	}
	return nil
}

// ID returns the unique identifier.
func (m *Move) ID() string { return m.id }

// Name returns the display name.
func (m *Move) Name() string { return m.name }

// CreatedAt returns the creation time.
func (m *Move) CreatedAt() time.Time { return m.createdAt }

// Len returns the number of samples.
func (m *Move) Len() int { return len(m.samples) }

// StartTime returns the first timestamp.
func (m *Move) StartTime() float64 { return m.samples[0].Time }

// Duration returns the time between the first and last sample, in seconds.
func (m *Move) Duration() float64 {
	return m.samples[len(m.samples)-1].Time - m.samples[0].Time
}

// Sample returns a copy of sample i.
func (m *Move) Sample(i int) Sample {
	s := m.samples[i]
	return Sample{Time: s.Time, Config: s.Config.Clone()}
}

// Samples returns a deep copy of all samples.
func (m *Move) Samples() []Sample {
	out := make([]Sample, len(m.samples))
	for i := range m.samples {
		out[i] = m.Sample(i)
	}
	return out
}

// Times returns the sample timestamps.
func (m *Move) Times() []float64 {
	out := make([]float64, len(m.samples))
	for i, s := range m.samples {
		out[i] = s.Time
	}
	return out
}

// JointNames returns the extra joint names carried by every sample.
func (m *Move) JointNames() []string {
	return m.samples[0].Config.JointNames()
}

// Renamed returns a copy of m with a different name and the same samples.
func (m *Move) Renamed(name string) *Move {
	cp := *m
	cp.name = name
	return &cp
}

func (m *Move) String() string {
	return fmt.Sprintf("%s (%d samples, %.2fs)", m.name, len(m.samples), m.Duration())
}
