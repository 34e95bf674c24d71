package motion

import (
	"fmt"
	"math"
	"sort"

	"github.com/teslashibe/go-reachy-office/pkg/interp"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// endSlack absorbs float accumulation when deciding that playback reached
// the end of the move.
const endSlack = 1e-9

// Player replays a Move with explicit time steps.
type Player struct {
	method interp.Method

	move    *Move
	speed   float64
	elapsed float64
	playing bool
}

// NewPlayer creates a player blending between keyframes with method.
func NewPlayer(method interp.Method) *Player {
	return &Player{method: method}
}

// Method returns the keyframe blend method.
func (p *Player) Method() interp.Method { return p.method }

// Play starts move at speed (1 is real time). Elapsed time is reset.
func (p *Player) Play(move *Move, speed float64) error {
	if move == nil || move.Len() < 2 {
		return fmt.Errorf("%w: empty move", ErrInvalidTrajectory)
	}
	if !(speed > 0) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, speed)
	}
	p.move = move
	p.speed = speed
	p.elapsed = 0
	p.playing = true
	return nil
}

// Playing reports whether playback is in progress.
func (p *Player) Playing() bool { return p.playing }

// Move returns the move being played, or nil.
func (p *Player) Move() *Move {
	if !p.playing {
		return nil
	}
	return p.move
}

// Speed returns the playback speed.
func (p *Player) Speed() float64 { return p.speed }

// Elapsed returns wall-clock playback time in seconds.
func (p *Player) Elapsed() float64 { return p.elapsed }

// Progress returns the played fraction of the move in [0, 1].
func (p *Player) Progress() float64 {
	if p.move == nil {
		return 0
	}
	return min(p.elapsed*p.speed/p.move.Duration(), 1)
}

// Stop ends playback. The last pushed sample stays in effect.
func (p *Player) Stop() {
	p.playing = false
	p.move = nil
	p.elapsed = 0
}

// Tick advances playback by dt and returns the sample to apply. When the
// time-remapped elapsed time reaches the move duration the final keyframe is
// returned exactly and playback stops. ok is false if nothing is playing.
func (p *Player) Tick(dt float64) (cfg pose.JointConfiguration, ok bool) {
	if !p.playing {
		return pose.JointConfiguration{}, false
	}
	if dt > 0 {
		p.elapsed += dt
	}
	remapped := p.elapsed * p.speed
	if remapped >= p.move.Duration()-endSlack {
		cfg = p.move.samples[len(p.move.samples)-1].Config.Clone()
		p.Stop()
		return cfg, true
	}
	return Evaluate(p.move, remapped, p.method), true
}

// Evaluate returns the configuration of m at t seconds after its first
// sample, blending the two surrounding keyframes with method. t is clamped
// to the move.
func Evaluate(m *Move, t float64, method interp.Method) pose.JointConfiguration {
	samples := m.samples
	abs := samples[0].Time + t

	idx := sort.Search(len(samples), func(i int) bool {
		return samples[i].Time > abs
	})
	if idx == 0 {
		return samples[0].Config.Clone()
	}
	if idx >= len(samples) {
		return samples[len(samples)-1].Config.Clone()
	}

	prev, next := samples[idx-1], samples[idx]
	alpha := (abs - prev.Time) / (next.Time - prev.Time)
	return interp.Interpolate(prev.Config, next.Config, alpha, method)
}
