// Package refline defines the reference line the planner samples against
// and a polyline implementation of it.
//
// Key types: ReferenceLine, ReferencePoint, Polyline.
//
// Dependency rule: refline may depend on geometry and frenet only.
package refline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
)

var (
	// ErrNotOnReferenceLine is returned when a Cartesian point cannot be
	// mapped into the reference line's Frenet frame.
	ErrNotOnReferenceLine = errors.New("point is not on reference line")
	// ErrOutOfRange is returned when a Frenet point lies outside the
	// reference line's s domain.
	ErrOutOfRange = errors.New("s is out of reference line range")
)

// ReferencePoint is the reference line state at one arc length.
type ReferencePoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Kappa   float64 `json:"kappa"`
	DKappa  float64 `json:"dkappa"`
}

// String implements fmt.Stringer.
func (rp ReferencePoint) String() string {
	return fmt.Sprintf("ref(x=%.3f, y=%.3f, heading=%.4f, kappa=%.5f)", rp.X, rp.Y, rp.Heading, rp.Kappa)
}

// ReferenceLine is the read-only road centreline contract the planner
// consumes. Implementations must be safe for concurrent reads.
type ReferenceLine interface {
	// Project maps a Cartesian point into the Frenet frame.
	Project(p geometry.Vec2) (frenet.SLPoint, error)
	// ReferencePointAt returns the reference state at s, clamped to the line.
	ReferencePointAt(s float64) ReferencePoint
	// ToCartesian maps a Frenet point back into the Cartesian frame.
	ToCartesian(sl frenet.SLPoint) (geometry.Vec2, error)
	// IsOnRoad reports whether sl lies on the drivable surface.
	IsOnRoad(sl frenet.SLPoint) bool
	// Length returns the total arc length.
	Length() float64
}
