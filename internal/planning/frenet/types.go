// Package frenet holds the Frenet-frame point types used by the path
// planner and the analytic relations between Frenet derivatives and
// Cartesian heading/curvature.
//
// s is arc length along the reference line, l the signed lateral offset
// (positive to the left of the direction of travel).
package frenet

import (
	"fmt"
	"sort"
)

// SLPoint is a position in the Frenet frame.
type SLPoint struct {
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// String implements fmt.Stringer.
func (p SLPoint) String() string {
	return fmt.Sprintf("(s=%.3f, l=%.3f)", p.S, p.L)
}

// FrenetFramePoint adds the first and second derivatives of l with respect
// to s.
type FrenetFramePoint struct {
	S   float64 `json:"s"`
	L   float64 `json:"l"`
	DL  float64 `json:"dl"`
	DDL float64 `json:"ddl"`
}

// SL drops the derivatives.
func (p FrenetFramePoint) SL() SLPoint { return SLPoint{S: p.S, L: p.L} }

// FrenetFramePath is a sequence of Frenet points with strictly increasing s.
type FrenetFramePath []FrenetFramePoint

// Length returns the s extent covered by the path.
func (fp FrenetFramePath) Length() float64 {
	if len(fp) == 0 {
		return 0
	}
	return fp[len(fp)-1].S - fp[0].S
}

// Interpolate returns the path state at s by linear interpolation between the
// neighbouring samples. Queries before the first or after the last sample
// return that end sample; an empty path returns the zero point.
func (fp FrenetFramePath) Interpolate(s float64) FrenetFramePoint {
	n := len(fp)
	if n == 0 {
		return FrenetFramePoint{}
	}
	if s <= fp[0].S {
		return fp[0]
	}
	if s >= fp[n-1].S {
		return fp[n-1]
	}

	// First index with S > s; guaranteed in [1, n-1] by the checks above.
	hi := sort.Search(n, func(i int) bool { return fp[i].S > s })
	p0, p1 := fp[hi-1], fp[hi]
	ratio := (s - p0.S) / (p1.S - p0.S)
	return FrenetFramePoint{
		S:   s,
		L:   lerp(p0.L, p1.L, ratio),
		DL:  lerp(p0.DL, p1.DL, ratio),
		DDL: lerp(p0.DDL, p1.DDL, ratio),
	}
}

func lerp(a, b, ratio float64) float64 {
	return a + (b-a)*ratio
}
