package pose

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HeadPose is a rigid 4x4 homogeneous transform, row-major. The zero value
// (all zeros) means "no head target" and is skipped by consumers.
type HeadPose [4][4]float64

// IdentityHead is the neutral head pose.
func IdentityHead() HeadPose {
	return HeadPose{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// HeadFromEuler builds a head pose from roll, pitch and yaw (radians) as
// Rz(yaw)·Ry(pitch)·Rx(roll) with no translation.
func HeadFromEuler(roll, pitch, yaw float64) HeadPose {
	return HeadFromPose(0, 0, 0, roll, pitch, yaw)
}

// HeadFromPose builds a head pose from a translation (meters) and
// roll/pitch/yaw (radians).
func HeadFromPose(x, y, z, roll, pitch, yaw float64) HeadPose {
	m := mgl64.HomogRotate3DZ(yaw).
		Mul4(mgl64.HomogRotate3DY(pitch)).
		Mul4(mgl64.HomogRotate3DX(roll))
	m.Set(0, 3, x)
	m.Set(1, 3, y)
	m.Set(2, 3, z)
	return HeadFromMat4(m)
}

// HeadFromMat4 converts a column-major mathgl matrix.
func HeadFromMat4(m mgl64.Mat4) HeadPose {
	var h HeadPose
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			h[r][c] = m.At(r, c)
		}
	}
	return h
}

// Mat4 converts to a column-major mathgl matrix.
func (h HeadPose) Mat4() mgl64.Mat4 {
	var m mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, h[r][c])
		}
	}
	return m
}

// IsZero reports whether h is the unset head pose.
func (h HeadPose) IsZero() bool {
	return h == HeadPose{}
}

// Translation returns the translation column.
func (h HeadPose) Translation() mgl64.Vec3 {
	return mgl64.Vec3{h[0][3], h[1][3], h[2][3]}
}

// WithTranslation returns h with its translation replaced.
func (h HeadPose) WithTranslation(t mgl64.Vec3) HeadPose {
	h[0][3], h[1][3], h[2][3] = t[0], t[1], t[2]
	return h
}

// Rotation returns the rotation part as a unit quaternion.
func (h HeadPose) Rotation() mgl64.Quat {
	return mgl64.Mat4ToQuat(h.Mat4()).Normalize()
}

// Euler extracts roll, pitch and yaw (radians) using the ZYX convention.
func (h HeadPose) Euler() (roll, pitch, yaw float64) {
	r00 := h[0][0]
	r10, r11, r12 := h[1][0], h[1][1], h[1][2]
	r20, r21, r22 := h[2][0], h[2][1], h[2][2]

	sy := math.Sqrt(r00*r00 + r10*r10)
	if sy < 1e-6 {
		// gimbal lock at pitch = ±90°
		return math.Atan2(-r12, r11), math.Atan2(-r20, sy), 0
	}
	return math.Atan2(r21, r22), math.Atan2(-r20, sy), math.Atan2(r10, r00)
}

// IsRigid reports whether the rotation block is orthonormal with
// determinant +1 and the bottom row is (0, 0, 0, 1), within tol.
func (h HeadPose) IsRigid(tol float64) bool {
	m := h.Mat4()
	rot := m.Mat3()
	// Compare absolutely: ApproxEqualThreshold scales the bound for zero
	// entries, so float noise off the diagonal would fail.
	gram, ident := rot.Mul3(rot.Transpose()), mgl64.Ident3()
	for i := range gram {
		if math.Abs(gram[i]-ident[i]) > tol {
			return false
		}
	}
	if math.Abs(rot.Det()-1) > tol {
		return false
	}
	return math.Abs(h[3][0]) <= tol && math.Abs(h[3][1]) <= tol &&
		math.Abs(h[3][2]) <= tol && math.Abs(h[3][3]-1) <= tol
}
