package robot

import "errors"

var (
	// ErrInvalidStateTransition is returned when a lifecycle operation is not
	// allowed in the current state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrBusy is returned when a conflicting exclusive operation is active.
	ErrBusy = errors.New("robot busy")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("robot closed")
)
