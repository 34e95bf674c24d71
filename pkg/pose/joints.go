package pose

import (
	"math"
	"slices"

	"github.com/samber/lo"
)

// Named joints of the Reachy Mini. Head orientation is reported through the
// head_* names but stored as a HeadPose.
const (
	HeadRoll     = "head_roll"
	HeadPitch    = "head_pitch"
	HeadYaw      = "head_yaw"
	AntennaRight = "antenna_right"
	AntennaLeft  = "antenna_left"
	BodyYaw      = "body_yaw"
)

// MotorNames lists the motors every backend exposes, in a stable order.
var MotorNames = []string{HeadRoll, HeadPitch, HeadYaw, AntennaRight, AntennaLeft, BodyYaw}

// JointConfiguration is a complete pose of the robot's actuated joints.
// Joints holds any additional named joints; Head, Antennas (right, left)
// and BodyYaw are always present.
type JointConfiguration struct {
	Joints   map[string]float64 `json:"joints" yaml:"joints"`
	Head     HeadPose           `json:"head" yaml:"head"`
	Antennas [2]float64         `json:"antennas" yaml:"antennas"`
	BodyYaw  float64            `json:"body_yaw" yaml:"body_yaw"`
}

// Neutral returns the rest configuration with an identity head.
func Neutral() JointConfiguration {
	return JointConfiguration{
		Joints: map[string]float64{},
		Head:   IdentityHead(),
	}
}

// Clone returns a deep copy.
func (c JointConfiguration) Clone() JointConfiguration {
	out := c
	out.Joints = make(map[string]float64, len(c.Joints))
	for k, v := range c.Joints {
		out.Joints[k] = v
	}
	return out
}

// JointNames returns the extra joint names in sorted order.
func (c JointConfiguration) JointNames() []string {
	names := lo.Keys(c.Joints)
	slices.Sort(names)
	return names
}

// SameJoints reports whether both configurations carry the same set of
// extra joint names.
func (c JointConfiguration) SameJoints(o JointConfiguration) bool {
	if len(c.Joints) != len(o.Joints) {
		return false
	}
	for k := range c.Joints {
		if _, ok := o.Joints[k]; !ok {
			return false
		}
	}
	return true
}

// Positions flattens the configuration into joint name -> angle. Head
// orientation is reported as head_roll/pitch/yaw.
func (c JointConfiguration) Positions() map[string]float64 {
	out := make(map[string]float64, len(c.Joints)+len(MotorNames))
	for k, v := range c.Joints {
		out[k] = v
	}
	if !c.Head.IsZero() {
		roll, pitch, yaw := c.Head.Euler()
		out[HeadRoll], out[HeadPitch], out[HeadYaw] = roll, pitch, yaw
	}
	out[AntennaRight] = c.Antennas[0]
	out[AntennaLeft] = c.Antennas[1]
	out[BodyYaw] = c.BodyYaw
	return out
}

// IsFinite reports whether every value is a finite number.
func (c JointConfiguration) IsFinite() bool {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	for _, v := range c.Joints {
		if !finite(v) {
			return false
		}
	}
	for _, row := range c.Head {
		for _, v := range row {
			if !finite(v) {
				return false
			}
		}
	}
	return finite(c.Antennas[0]) && finite(c.Antennas[1]) && finite(c.BodyYaw)
}

// Target is a partial joint command. Nil fields keep their current value.
type Target struct {
	Head     *HeadPose
	Antennas *[2]float64
	BodyYaw  *float64
	Joints   map[string]float64
}

// Apply returns c with the fields set in t overwritten.
func (t Target) Apply(c JointConfiguration) JointConfiguration {
	out := c.Clone()
	if t.Head != nil && !t.Head.IsZero() {
		out.Head = *t.Head
	}
	if t.Antennas != nil {
		out.Antennas = *t.Antennas
	}
	if t.BodyYaw != nil {
		out.BodyYaw = *t.BodyYaw
	}
	for k, v := range t.Joints {
		out.Joints[k] = v
	}
	return out
}

// IsEmpty reports whether t changes nothing.
func (t Target) IsEmpty() bool {
	return (t.Head == nil || t.Head.IsZero()) && t.Antennas == nil && t.BodyYaw == nil && len(t.Joints) == 0
}
