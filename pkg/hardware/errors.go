package hardware

import "errors"

var (
	// ErrUnknownMotor is returned for a motor name the backend does not have.
	ErrUnknownMotor = errors.New("unknown motor")

	// ErrNotConnected is returned when the device cannot be reached.
	ErrNotConnected = errors.New("robot not connected")
)
