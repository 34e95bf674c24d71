// Package interp blends between two joint configurations over normalized
// time. It is pure: nothing here keeps a clock, callers pass elapsed time.
package interp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMethod is returned by ParseMethod.
var ErrUnknownMethod = errors.New("interp: unknown method")

// Method selects the blend profile.
type Method int

// Blend profiles.
const (
	// Linear moves at constant speed.
	Linear Method = iota
	// Cubic is smoothstep: zero velocity at both ends.
	Cubic
	// MinimumJerk is the quintic profile with zero velocity and acceleration
	// at both ends.
	MinimumJerk
	// Cartoon overshoots the target by 20% and settles back.
	Cartoon
)

func (m Method) String() string {
	switch m {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	case MinimumJerk:
		return "minimum_jerk"
	case Cartoon:
		return "cartoon"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod accepts the String form and common aliases, case-insensitive.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "cubic", "ease", "smoothstep", "ease_in_out":
		return Cubic, nil
	case "minimum_jerk", "min_jerk", "minjerk", "quintic":
		return MinimumJerk, nil
	case "cartoon":
		return Cartoon, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(b []byte) error {
	v, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Blend maps normalized time t to the blend factor f. t is clamped to
// [0, 1]; Blend(m, 0) is exactly 0 and Blend(m, 1) is exactly 1.
func Blend(m Method, t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	switch m {
	case Cubic:
		return t * t * (3 - 2*t)
	case MinimumJerk:
		t3 := t * t * t
		return t3 * (10 - 15*t + 6*t*t)
	case Cartoon:
		if t < 0.7 {
			p := t / 0.7
			return 1.2 * p * p
		}
		return 1.2 - 0.2*(t-0.7)/0.3
	default:
		return t
	}
}

// BlendDerivative is df/dt of Blend at t, with t clamped to [0, 1].
func BlendDerivative(m Method, t float64) float64 {
	t = min(max(t, 0), 1)
	switch m {
	case Cubic:
		return 6*t - 6*t*t
	case MinimumJerk:
		t2 := t * t
		return 30*t2 - 60*t2*t + 30*t2*t2
	case Cartoon:
		if t < 0.7 {
			return 2.4 * t / 0.49
		}
		return -0.2 / 0.3
	default:
		return 1
	}
}
