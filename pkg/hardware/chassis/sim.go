package chassis

import (
	"math"
	"sync"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Sim is a simulated differential drive. It holds the last commanded
// velocity and integrates it when advanced.
type Sim struct {
	mu      sync.Mutex
	pose    pose.Pose2D
	linear  float64
	angular float64
	closed  bool
}

var _ Chassis = (*Sim)(nil)

// NewSim creates a simulated base at start.
func NewSim(start pose.Pose2D) *Sim {
	return &Sim{pose: start}
}

func (s *Sim) SetVelocity(linear, angular float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.linear, s.angular = linear, angular
	return nil
}

func (s *Sim) Stop() error {
	return s.SetVelocity(0, 0)
}

func (s *Sim) Odometry() (pose.Pose2D, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return pose.Pose2D{}, ErrClosed
	}
	return s.pose, nil
}

// Velocity returns the commanded linear and angular velocity.
func (s *Sim) Velocity() (linear, angular float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linear, s.angular
}

// Advance integrates the commanded velocity over dt seconds along the exact
// arc.
func (s *Sim) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, w := s.linear, s.angular
	h := s.pose.Heading
	if math.Abs(w) < 1e-12 {
		s.pose.X += v * math.Cos(h) * dt
		s.pose.Y += v * math.Sin(h) * dt
		return
	}
	h2 := h + w*dt
	s.pose.X += v / w * (math.Sin(h2) - math.Sin(h))
	s.pose.Y -= v / w * (math.Cos(h2) - math.Cos(h))
	s.pose.Heading = pose.NormalizeAngle(h2)
}

// Reset places the base at p and stops it.
func (s *Sim) Reset(p pose.Pose2D) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pose = p
	s.linear, s.angular = 0, 0
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.linear, s.angular = 0, 0
	return nil
}
