package pose

import (
	"errors"
	"fmt"
	"strings"
)

// ErrJointLimitExceeded is reported when a target falls outside a joint's
// physical range. The target is clamped, not rejected.
var ErrJointLimitExceeded = errors.New("pose: joint limit exceeded")

// LimitError lists the joints that were clamped.
type LimitError struct {
	Joints []string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v: %s", ErrJointLimitExceeded, strings.Join(e.Joints, ", "))
}

func (e *LimitError) Unwrap() error { return ErrJointLimitExceeded }
