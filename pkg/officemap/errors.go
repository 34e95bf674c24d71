package officemap

import "errors"

// Map errors.
var (
	ErrOutOfBounds       = errors.New("officemap: coordinates out of bounds")
	ErrUnknownLocation   = errors.New("officemap: unknown location")
	ErrInvalidMap        = errors.New("officemap: invalid map")
	ErrUnsupportedFormat = errors.New("officemap: unsupported file format")
)
