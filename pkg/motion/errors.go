package motion

import "errors"

// Motion errors.
var (
	ErrInvalidTrajectory = errors.New("motion: invalid trajectory")
	ErrInvalidSpeed      = errors.New("motion: playback speed must be positive")
	ErrNotRecording      = errors.New("motion: not recording")
	ErrAlreadyRecording  = errors.New("motion: already recording")
	ErrNotFound          = errors.New("motion: move not found")
	ErrUnsupportedFormat = errors.New("motion: unsupported file format")
)
