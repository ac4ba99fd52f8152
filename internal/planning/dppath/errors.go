package dppath

import "errors"

var (
	// ErrProjection is returned when the initial pose or a path sample cannot
	// be mapped between the Cartesian and Frenet frames. The cycle fails.
	ErrProjection = errors.New("projection onto reference line failed")

	// ErrEmptySearchSpace is returned when sampling produced no level beyond
	// the start node.
	ErrEmptySearchSpace = errors.New("lattice has no levels beyond the start node")

	// ErrMalformedInput is returned when a required input is missing.
	ErrMalformedInput = errors.New("malformed planner input")

	// ErrObstacleMismatch marks a dynamic obstacle whose predicted series
	// does not line up with the ego series. It is logged and the obstacle is
	// skipped; it never fails the cycle.
	ErrObstacleMismatch = errors.New("obstacle evaluation series mismatch")
)
