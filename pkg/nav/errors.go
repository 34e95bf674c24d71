package nav

import "errors"

// ErrPathNotFound is returned when no walkable route joins start and goal,
// or when either endpoint is not walkable.
var ErrPathNotFound = errors.New("nav: path not found")
