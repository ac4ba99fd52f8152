package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// boxEpsilon absorbs floating-point noise in containment and overlap tests.
const boxEpsilon = 1e-10

// Vec2 is a point or direction in the Cartesian (map) frame, metres.
type Vec2 = r2.Point

// Box2d is an oriented rectangle in the X-Y plane.
//
// Parameters:
//   - Center: centre position (metres, map frame)
//   - Heading: yaw of the Length axis (radians)
//   - Length: extent along the heading direction (metres)
//   - Width: extent perpendicular to heading (metres)
type Box2d struct {
	Center  Vec2
	Heading float64
	Length  float64
	Width   float64
}

// NewBox2d builds a box centred on center with the given heading and size.
func NewBox2d(center Vec2, heading, length, width float64) Box2d {
	return Box2d{Center: center, Heading: heading, Length: length, Width: width}
}

// HalfLength returns half the extent along the heading axis.
func (b Box2d) HalfLength() float64 { return b.Length / 2 }

// HalfWidth returns half the extent across the heading axis.
func (b Box2d) HalfWidth() float64 { return b.Width / 2 }

// axes returns the unit vectors along Length and Width.
func (b Box2d) axes() (Vec2, Vec2) {
	dir := Vec2{X: math.Cos(b.Heading), Y: math.Sin(b.Heading)}
	return dir, dir.Ortho()
}

// Corners returns the four corners in counter-clockwise order starting at
// front-left.
func (b Box2d) Corners() [4]Vec2 {
	dir, perp := b.axes()
	l := dir.Mul(b.HalfLength())
	w := perp.Mul(b.HalfWidth())
	return [4]Vec2{
		b.Center.Add(l).Add(w),
		b.Center.Sub(l).Add(w),
		b.Center.Sub(l).Sub(w),
		b.Center.Add(l).Sub(w),
	}
}

// IsPointIn reports whether p lies inside or on the boundary of the box.
func (b Box2d) IsPointIn(p Vec2) bool {
	dir, perp := b.axes()
	d := p.Sub(b.Center)
	return math.Abs(d.Dot(dir)) <= b.HalfLength()+boxEpsilon &&
		math.Abs(d.Dot(perp)) <= b.HalfWidth()+boxEpsilon
}

// projectedRadius is the half extent of b projected onto the unit axis.
func (b Box2d) projectedRadius(axis Vec2) float64 {
	dir, perp := b.axes()
	return b.HalfLength()*math.Abs(dir.Dot(axis)) + b.HalfWidth()*math.Abs(perp.Dot(axis))
}

// HasOverlap reports whether two boxes intersect, using the separating axis
// test over the two axes of each box. Touching boxes overlap.
func (b Box2d) HasOverlap(other Box2d) bool {
	d := other.Center.Sub(b.Center)
	bDir, bPerp := b.axes()
	oDir, oPerp := other.axes()
	for _, axis := range [4]Vec2{bDir, bPerp, oDir, oPerp} {
		if math.Abs(d.Dot(axis)) > b.projectedRadius(axis)+other.projectedRadius(axis)+boxEpsilon {
			return false
		}
	}
	return true
}

// DistanceTo returns the minimum Euclidean distance between the two boxes,
// or 0 when they overlap.
func (b Box2d) DistanceTo(other Box2d) float64 {
	if b.HasOverlap(other) {
		return 0
	}
	// For disjoint convex polygons the closest pair is always a vertex of
	// one polygon against an edge of the other.
	bc := b.Corners()
	oc := other.Corners()
	best := math.Inf(1)
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		for k := 0; k < 4; k++ {
			best = math.Min(best, PointToSegmentDistance(oc[k], bc[i], bc[j]))
			best = math.Min(best, PointToSegmentDistance(bc[k], oc[i], oc[j]))
		}
	}
	return best
}

// PointToSegmentDistance returns the distance from p to the segment a-b.
func PointToSegmentDistance(p, a, b Vec2) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < boxEpsilon {
		return p.Sub(a).Norm()
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.Mul(t))).Norm()
}
