package pose

import (
	"slices"

	"github.com/samber/lo"
)

// Physical limits (radians).
const (
	MaxHeadRoll  = 0.35 // ±20°
	MaxHeadPitch = 0.52 // ±30°
	MaxHeadYaw   = 0.70 // ±40°
	MaxAntenna   = 3.05
	MaxBodyYaw   = 2.8
)

// limitSlack absorbs floating-point noise: overshoots smaller than this are
// clamped without being reported.
const limitSlack = 1e-9

// Range is a closed interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Symmetric returns [-v, v].
func Symmetric(v float64) Range {
	return Range{Min: -v, Max: v}
}

// Clamp restricts v to the range.
func (r Range) Clamp(v float64) float64 {
	return lo.Clamp(v, r.Min, r.Max)
}

// Contains reports whether v is within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Limits is the set of per-joint physical ranges.
type Limits struct {
	HeadRoll  Range
	HeadPitch Range
	HeadYaw   Range
	Antenna   Range
	BodyYaw   Range
	// Joints bounds extra named joints. Joints without an entry are unbounded.
	Joints map[string]Range
}

// DefaultLimits returns the Reachy Mini limits.
func DefaultLimits() Limits {
	return Limits{
		HeadRoll:  Symmetric(MaxHeadRoll),
		HeadPitch: Symmetric(MaxHeadPitch),
		HeadYaw:   Symmetric(MaxHeadYaw),
		Antenna:   Symmetric(MaxAntenna),
		BodyYaw:   Symmetric(MaxBodyYaw),
		Joints:    map[string]Range{},
	}
}

type limiter struct {
	exceeded []string
}

func (l *limiter) clamp(name string, v float64, r Range) float64 {
	c := r.Clamp(v)
	if v < r.Min-limitSlack || v > r.Max+limitSlack {
		l.exceeded = append(l.exceeded, name)
	}
	return c
}

// Clamp returns c restricted to the limits. When a value was outside its
// range by more than numerical noise, the clamped configuration is returned
// together with a *LimitError naming the offending joints. Values already
// in range are returned bit-for-bit unchanged.
func (l Limits) Clamp(c JointConfiguration) (JointConfiguration, error) {
	var lim limiter
	out := c.Clone()

	for _, name := range c.JointNames() {
		if r, ok := l.Joints[name]; ok {
			out.Joints[name] = lim.clamp(name, c.Joints[name], r)
		}
	}

	if !c.Head.IsZero() {
		roll, pitch, yaw := c.Head.Euler()
		if !l.HeadRoll.Contains(roll) || !l.HeadPitch.Contains(pitch) || !l.HeadYaw.Contains(yaw) {
			roll = lim.clamp(HeadRoll, roll, l.HeadRoll)
			pitch = lim.clamp(HeadPitch, pitch, l.HeadPitch)
			yaw = lim.clamp(HeadYaw, yaw, l.HeadYaw)
			t := c.Head.Translation()
			out.Head = HeadFromPose(t[0], t[1], t[2], roll, pitch, yaw)
		}
	}

	out.Antennas[0] = lim.clamp(AntennaRight, c.Antennas[0], l.Antenna)
	out.Antennas[1] = lim.clamp(AntennaLeft, c.Antennas[1], l.Antenna)
	out.BodyYaw = lim.clamp(BodyYaw, c.BodyYaw, l.BodyYaw)

	if len(lim.exceeded) > 0 {
		slices.Sort(lim.exceeded)
		return out, &LimitError{Joints: lim.exceeded}
	}
	return out, nil
}
