package robot

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Camera holds the pinhole intrinsics of the head camera. The camera looks
// along the head's x axis.
type Camera struct {
	Width  int     // pixels
	Height int     // pixels
	HFOV   float64 // radians
	VFOV   float64 // radians
}

// DefaultCamera returns the Reachy Mini camera at 640x480.
func DefaultCamera() Camera {
	return Camera{
		Width:  640,
		Height: 480,
		HFOV:   60 * math.Pi / 180,
		VFOV:   40 * math.Pi / 180,
	}
}

// PixelToAngles converts a pixel to the yaw and pitch offsets (radians) of
// its ray from the optical axis. Pixels right of centre give negative yaw,
// pixels below centre give positive pitch (head down).
func (c Camera) PixelToAngles(u, v float64) (yaw, pitch float64) {
	cx, cy := float64(c.Width)/2, float64(c.Height)/2
	fx := cx / math.Tan(c.HFOV/2)
	fy := cy / math.Tan(c.VFOV/2)
	return -math.Atan((u - cx) / fx), math.Atan((v - cy) / fy)
}

// LookAtImage turns the head toward pixel (u, v) of the current camera
// image through a smooth gaze trajectory.
func (r *Robot) LookAtImage(u, v float64) error {
	if !finite(u) || !finite(v) {
		return fmt.Errorf("look at image: non-finite pixel (%v, %v)", u, v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dyaw, dpitch := r.cfg.Camera.PixelToAngles(u, v)
	head := r.joints.Head
	if head.IsZero() {
		head = pose.IdentityHead()
	}
	roll, pitch, yaw := head.Euler()
	t := head.Translation()
	target := pose.HeadFromPose(t[0], t[1], t[2], roll, pitch+dpitch, yaw+dyaw)
	return r.gotoLocked(pose.Target{Head: &target}, r.cfg.GazeDuration, r.cfg.GazeMethod)
}

// LookAtWorld turns the head toward point (x, y, z) given in metres in the
// body frame centred on the head (x forward, y left, z up). A point at the
// head itself is ignored.
func (r *Robot) LookAtWorld(x, y, z float64) error {
	if !finite(x) || !finite(y) || !finite(z) {
		return fmt.Errorf("look at world: non-finite point (%v, %v, %v)", x, y, z)
	}
	dist := math.Hypot(x, y)
	if dist == 0 && z == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	yaw := pose.NormalizeAngle(math.Atan2(y, x) - r.joints.BodyYaw)
	pitch := math.Atan2(-z, dist)
	var t [3]float64
	if !r.joints.Head.IsZero() {
		tr := r.joints.Head.Translation()
		t = [3]float64{tr[0], tr[1], tr[2]}
	}
	target := pose.HeadFromPose(t[0], t[1], t[2], 0, pitch, yaw)
	return r.gotoLocked(pose.Target{Head: &target}, r.cfg.GazeDuration, r.cfg.GazeMethod)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
