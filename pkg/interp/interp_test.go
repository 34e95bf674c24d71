package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

var allMethods = []Method{Linear, Cubic, MinimumJerk, Cartoon}

func floatEquals(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func configA() pose.JointConfiguration {
	c := pose.Neutral()
	c.Joints["a"] = 0.1
	c.Joints["b"] = -0.3
	c.Head = pose.HeadFromPose(0.001, 0.002, 0.003, 0.1, -0.2, 0.3)
	c.Antennas = [2]float64{0.2, -0.2}
	c.BodyYaw = 0.05
	return c
}

func configB() pose.JointConfiguration {
	c := pose.Neutral()
	c.Joints["a"] = 1.7
	c.Joints["b"] = 0.9
	c.Head = pose.HeadFromPose(-0.01, 0.0, 0.02, -0.3, 0.4, -0.6)
	c.Antennas = [2]float64{-1.1, 1.3}
	c.BodyYaw = -0.8
	return c
}

func TestBlendEndpoints(t *testing.T) {
	for _, m := range allMethods {
		if got := Blend(m, 0); got != 0 {
			t.Errorf("Blend(%v, 0) = %v, want 0", m, got)
		}
		if got := Blend(m, 1); got != 1 {
			t.Errorf("Blend(%v, 1) = %v, want 1", m, got)
		}
		if got := Blend(m, -0.5); got != 0 {
			t.Errorf("Blend(%v, -0.5) = %v, want 0", m, got)
		}
		if got := Blend(m, 1.5); got != 1 {
			t.Errorf("Blend(%v, 1.5) = %v, want 1", m, got)
		}
	}
}

func TestBlendValues(t *testing.T) {
	tests := []struct {
		m    Method
		t    float64
		want float64
	}{
		{Linear, 0.25, 0.25},
		{Cubic, 0.5, 0.5},
		{Cubic, 0.25, 3*0.0625 - 2*0.015625},
		{MinimumJerk, 0.5, 0.5},
		{Cartoon, 0.7, 1.2},
	}
	for _, tt := range tests {
		if got := Blend(tt.m, tt.t); !floatEquals(got, tt.want, 1e-12) {
			t.Errorf("Blend(%v, %v) = %v, want %v", tt.m, tt.t, got, tt.want)
		}
	}
}

func TestBlendMonotonic(t *testing.T) {
	for _, m := range []Method{Linear, Cubic, MinimumJerk} {
		prev := 0.0
		for i := 1; i <= 100; i++ {
			f := Blend(m, float64(i)/100)
			if f < prev {
				t.Fatalf("%v not monotonic at t=%v", m, float64(i)/100)
			}
			prev = f
		}
	}
}

func TestMinimumJerkDerivativesVanishAtEnds(t *testing.T) {
	for _, tt := range []float64{0, 1} {
		if d := BlendDerivative(MinimumJerk, tt); d != 0 {
			t.Errorf("analytic derivative at %v = %v, want 0", tt, d)
		}
	}

	// Finite differences agree with the analytic form.
	const h = 1e-6
	if d := (Blend(MinimumJerk, h) - Blend(MinimumJerk, 0)) / h; !floatEquals(d, 0, 1e-6) {
		t.Errorf("numeric derivative at 0 = %v", d)
	}
	if d := (Blend(MinimumJerk, 1) - Blend(MinimumJerk, 1-h)) / h; !floatEquals(d, 0, 1e-6) {
		t.Errorf("numeric derivative at 1 = %v", d)
	}
	for _, x := range []float64{0.2, 0.5, 0.8} {
		num := (Blend(MinimumJerk, x+h) - Blend(MinimumJerk, x-h)) / (2 * h)
		if !floatEquals(num, BlendDerivative(MinimumJerk, x), 1e-5) {
			t.Errorf("derivative mismatch at %v: numeric %v analytic %v", x, num, BlendDerivative(MinimumJerk, x))
		}
	}

	// Cubic has zero velocity at the ends too, linear does not.
	if BlendDerivative(Cubic, 0) != 0 || BlendDerivative(Cubic, 1) != 0 {
		t.Error("cubic derivative should vanish at the ends")
	}
	if BlendDerivative(Linear, 0) != 1 {
		t.Error("linear derivative should be 1")
	}
}

func TestInterpolateEndpointsExact(t *testing.T) {
	a, b := configA(), configB()
	for _, m := range allMethods {
		got0 := Interpolate(a, b, 0, m)
		if !configEqual(got0, a) {
			t.Errorf("%v: Interpolate(a, b, 0) != a", m)
		}
		got1 := Interpolate(a, b, 1, m)
		if !configEqual(got1, b) {
			t.Errorf("%v: Interpolate(a, b, 1) != b", m)
		}
	}
}

func TestInterpolateIndependentJoints(t *testing.T) {
	a, b := configA(), configB()
	got := Interpolate(a, b, 0.5, Linear)
	if !floatEquals(got.Joints["a"], 0.9, 1e-12) {
		t.Errorf("a = %v, want 0.9", got.Joints["a"])
	}
	if !floatEquals(got.Joints["b"], 0.3, 1e-12) {
		t.Errorf("b = %v, want 0.3", got.Joints["b"])
	}
	if !floatEquals(got.Antennas[0], -0.45, 1e-12) || !floatEquals(got.Antennas[1], 0.55, 1e-12) {
		t.Errorf("antennas = %v", got.Antennas)
	}
	if !floatEquals(got.BodyYaw, -0.375, 1e-12) {
		t.Errorf("body yaw = %v", got.BodyYaw)
	}
}

func TestInterpolateMissingJointHolds(t *testing.T) {
	a := pose.Neutral()
	a.Joints["only_a"] = 1
	b := pose.Neutral()
	b.Joints["only_b"] = 2
	got := Interpolate(a, b, 0.5, Linear)
	if got.Joints["only_a"] != 1 || got.Joints["only_b"] != 2 {
		t.Errorf("joints = %v", got.Joints)
	}
}

func TestInterpolateHeadStaysRigid(t *testing.T) {
	a := pose.HeadFromEuler(0, 0, -1.4)
	b := pose.HeadFromEuler(0.3, 0.5, 1.4)
	for i := 0; i <= 20; i++ {
		f := float64(i) / 20
		h := InterpolateHead(a, b, f)
		if !h.IsRigid(1e-9) {
			t.Fatalf("head at f=%v is not rigid: %v", f, h)
		}
	}
}

func TestInterpolateHeadSlerpMidpoint(t *testing.T) {
	a := pose.HeadFromEuler(0, 0, -0.6)
	b := pose.HeadFromEuler(0, 0, 0.6)
	mid := InterpolateHead(a, b, 0.5)
	roll, pitch, yaw := mid.Euler()
	if !floatEquals(yaw, 0, 1e-9) || !floatEquals(roll, 0, 1e-9) || !floatEquals(pitch, 0, 1e-9) {
		t.Errorf("midpoint = (%v, %v, %v), want identity", roll, pitch, yaw)
	}

	quarter := InterpolateHead(a, b, 0.25)
	_, _, yaw = quarter.Euler()
	if !floatEquals(yaw, -0.3, 1e-9) {
		t.Errorf("quarter yaw = %v, want -0.3 (constant angular rate)", yaw)
	}
}

func TestInterpolateHeadTranslationLinear(t *testing.T) {
	a := pose.HeadFromPose(0, 0, 0, 0, 0, 0)
	b := pose.HeadFromPose(0.02, -0.04, 0.06, 0, 0, 0.5)
	h := InterpolateHead(a, b, 0.5)
	tr := h.Translation()
	if !floatEquals(tr[0], 0.01, 1e-12) || !floatEquals(tr[1], -0.02, 1e-12) || !floatEquals(tr[2], 0.03, 1e-12) {
		t.Errorf("translation = %v", tr)
	}
}

func TestInterpolateHeadShortestArc(t *testing.T) {
	// Same rotation expressed by opposite quaternions must not spin around.
	a := pose.HeadFromEuler(0, 0, 0.1)
	b := pose.HeadFromEuler(0, 0, 0.1)
	h := InterpolateHead(a, b, 0.5)
	_, _, yaw := h.Euler()
	if !floatEquals(yaw, 0.1, 1e-9) {
		t.Errorf("yaw = %v, want 0.1", yaw)
	}
}

func TestInterpolateHeadUnset(t *testing.T) {
	b := pose.HeadFromEuler(0, 0, 0.2)
	if InterpolateHead(pose.HeadPose{}, b, 0.3) != b {
		t.Error("unset start should yield end")
	}
	if InterpolateHead(b, pose.HeadPose{}, 0.3) != b {
		t.Error("unset end should yield start")
	}
}

func TestTrajectorySample(t *testing.T) {
	a, b := configA(), configB()
	traj, err := NewTrajectory(a, b, 2, MinimumJerk)
	if err != nil {
		t.Fatal(err)
	}
	if !configEqual(traj.Sample(-1), a) {
		t.Error("negative elapsed should clamp to start")
	}
	if !configEqual(traj.Sample(5), b) {
		t.Error("elapsed past duration should clamp to end")
	}
	mid := traj.Sample(1)
	if !floatEquals(mid.Joints["a"], 0.9, 1e-12) {
		t.Errorf("mid a = %v, want 0.9", mid.Joints["a"])
	}
	if traj.Done(1.9) || !traj.Done(2) {
		t.Error("Done boundary wrong")
	}
}

func TestTrajectoryZeroDuration(t *testing.T) {
	a, b := configA(), configB()
	traj, err := NewTrajectory(a, b, 0, Linear)
	if err != nil {
		t.Fatal(err)
	}
	if !configEqual(traj.Sample(0), b) {
		t.Error("zero-duration trajectory should jump to end")
	}
}

func TestTrajectoryInvalidDuration(t *testing.T) {
	for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := NewTrajectory(configA(), configB(), d, Linear); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("duration %v: err = %v", d, err)
		}
	}
}

func TestAnimator(t *testing.T) {
	var an Animator
	if _, ok := an.Tick(0.1); ok {
		t.Fatal("idle animator should report nothing")
	}

	a, b := configA(), configB()
	traj, _ := NewTrajectory(a, b, 1, Cubic)
	an.Start(traj)

	var last pose.JointConfiguration
	ticks := 0
	for an.Active() {
		cfg, ok := an.Tick(0.25)
		if !ok {
			t.Fatal("active animator returned nothing")
		}
		last = cfg
		ticks++
		if ticks > 10 {
			t.Fatal("animator never finished")
		}
	}
	if ticks != 4 {
		t.Errorf("ticks = %d, want 4", ticks)
	}
	if !configEqual(last, b) {
		t.Error("final sample should equal the end configuration exactly")
	}
}

func TestParseMethod(t *testing.T) {
	tests := map[string]Method{
		"linear":       Linear,
		"CUBIC":        Cubic,
		"ease":         Cubic,
		"MIN_JERK":     MinimumJerk,
		"minimum_jerk": MinimumJerk,
		"cartoon":      Cartoon,
	}
	for in, want := range tests {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMethod("bouncy"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("ParseMethod(bouncy) err = %v", err)
	}

	var m Method
	if err := m.UnmarshalText([]byte("min_jerk")); err != nil || m != MinimumJerk {
		t.Errorf("UnmarshalText = %v, %v", m, err)
	}
	if b, _ := MinimumJerk.MarshalText(); string(b) != "minimum_jerk" {
		t.Errorf("MarshalText = %q", b)
	}
}

func configEqual(a, b pose.JointConfiguration) bool {
	if a.Head != b.Head || a.Antennas != b.Antennas || a.BodyYaw != b.BodyYaw {
		return false
	}
	if len(a.Joints) != len(b.Joints) {
		return false
	}
	for k, v := range a.Joints {
		if b.Joints[k] != v {
			return false
		}
	}
	return true
}
