package interp

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Lerp blends a toward b by f. Lerp(a, b, 0) == a and Lerp(a, b, 1) == b
// exactly.
func Lerp(a, b, f float64) float64 {
	return (1-f)*a + f*b
}

// InterpolateHead blends two rigid head transforms: translation linearly,
// rotation by quaternion slerp along the shorter arc. The result is always a
// rigid transform. An unset (zero) pose on either side yields the other.
func InterpolateHead(a, b pose.HeadPose, f float64) pose.HeadPose {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case f == 0:
		return a
	case f == 1:
		return b
	}

	qa, qb := a.Rotation(), b.Rotation()
	if qa.Dot(qb) < 0 {
		qb = qb.Scale(-1)
	}
	q := mgl64.QuatSlerp(qa, qb, f).Normalize()

	ta, tb := a.Translation(), b.Translation()
	m := q.Mat4()
	m.Set(0, 3, Lerp(ta[0], tb[0], f))
	m.Set(1, 3, Lerp(ta[1], tb[1], f))
	m.Set(2, 3, Lerp(ta[2], tb[2], f))
	return pose.HeadFromMat4(m)
}

// Interpolate returns the configuration at normalized time t between start
// and end using the given profile. Each joint is blended independently.
// t <= 0 returns start and t >= 1 returns end, exactly. A joint present on
// only one side keeps that side's value.
func Interpolate(start, end pose.JointConfiguration, t float64, m Method) pose.JointConfiguration {
	if t <= 0 {
		return start.Clone()
	}
	if t >= 1 {
		return end.Clone()
	}
	return blendConfigs(start, end, Blend(m, t))
}

// blendConfigs mixes two configurations with an explicit blend factor.
func blendConfigs(a, b pose.JointConfiguration, f float64) pose.JointConfiguration {
	out := pose.JointConfiguration{
		Joints: make(map[string]float64, len(a.Joints)),
		Head:   InterpolateHead(a.Head, b.Head, f),
		Antennas: [2]float64{
			Lerp(a.Antennas[0], b.Antennas[0], f),
			Lerp(a.Antennas[1], b.Antennas[1], f),
		},
		BodyYaw: Lerp(a.BodyYaw, b.BodyYaw, f),
	}
	for k, va := range a.Joints {
		if vb, ok := b.Joints[k]; ok {
			out.Joints[k] = Lerp(va, vb, f)
		} else {
			out.Joints[k] = va
		}
	}
	for k, vb := range b.Joints {
		if _, ok := a.Joints[k]; !ok {
			out.Joints[k] = vb
		}
	}
	return out
}
