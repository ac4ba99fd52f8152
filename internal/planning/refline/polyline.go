package refline

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
)

// sEpsilon is the slack allowed at either end of the s domain.
const sEpsilon = 1e-6

// minSegmentLength drops repeated vertices that would give zero-length segments.
const minSegmentLength = 1e-6

// RoadBoundaryFunc returns the drivable half widths left and right of the
// reference line at s. Negative values close the road at that s.
type RoadBoundaryFunc func(s float64) (left, right float64)

// Polyline is a ReferenceLine built from densely sampled centreline vertices.
// Headings are central-difference chord directions at each vertex and
// curvature is the heading change per unit arc length; both are linearly
// interpolated between vertices.
type Polyline struct {
	line     orb.LineString
	accS     []float64
	headings []float64
	kappas   []float64
	dkappas  []float64
	boundary RoadBoundaryFunc
}

var _ ReferenceLine = (*Polyline)(nil)

// PolylineOption configures a Polyline.
type PolylineOption func(*Polyline)

// WithRoadBoundary overrides the constant lane widths with a function of s.
func WithRoadBoundary(f RoadBoundaryFunc) PolylineOption {
	return func(p *Polyline) { p.boundary = f }
}

// NewPolyline builds a reference line from vertices and constant left/right
// drivable half widths. Consecutive duplicate vertices are dropped; at least
// two distinct vertices are required.
func NewPolyline(points orb.LineString, leftWidth, rightWidth float64, opts ...PolylineOption) (*Polyline, error) {
	line := make(orb.LineString, 0, len(points))
	for _, pt := range points {
		if len(line) > 0 && planar.Distance(line[len(line)-1], pt) < minSegmentLength {
			continue
		}
		line = append(line, pt)
	}
	if len(line) < 2 {
		return nil, fmt.Errorf("reference line needs at least 2 distinct points, got %d", len(line))
	}

	p := &Polyline{
		line: line,
		boundary: func(float64) (float64, float64) {
			return leftWidth, rightWidth
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.computeProfile()
	return p, nil
}

func (p *Polyline) computeProfile() {
	n := len(p.line)
	p.accS = make([]float64, n)
	for i := 1; i < n; i++ {
		p.accS[i] = p.accS[i-1] + planar.Distance(p.line[i-1], p.line[i])
	}

	p.headings = make([]float64, n)
	for i := range p.line {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		a, b := p.line[lo], p.line[hi]
		p.headings[i] = math.Atan2(b.Y()-a.Y(), b.X()-a.X())
	}

	// Segment headings give the turning angle at each interior vertex.
	p.kappas = make([]float64, n)
	for i := 1; i < n-1; i++ {
		h0 := segmentHeading(p.line[i-1], p.line[i])
		h1 := segmentHeading(p.line[i], p.line[i+1])
		ds := (p.accS[i+1] - p.accS[i-1]) / 2
		p.kappas[i] = geometry.NormalizeAngle(h1-h0) / ds
	}
	if n > 2 {
		p.kappas[0] = p.kappas[1]
		p.kappas[n-1] = p.kappas[n-2]
	}

	p.dkappas = make([]float64, n)
	for i := range p.kappas {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		if ds := p.accS[hi] - p.accS[lo]; ds > 0 {
			p.dkappas[i] = (p.kappas[hi] - p.kappas[lo]) / ds
		}
	}
}

func segmentHeading(a, b orb.Point) float64 {
	return math.Atan2(b.Y()-a.Y(), b.X()-a.X())
}

// Length returns the total arc length.
func (p *Polyline) Length() float64 {
	return p.accS[len(p.accS)-1]
}

// Vertices returns the (deduplicated) centreline vertices.
func (p *Polyline) Vertices() orb.LineString {
	return p.line
}

// segmentAt returns the segment index containing s and the fraction along it.
func (p *Polyline) segmentAt(s float64) (int, float64) {
	s = math.Max(0, math.Min(s, p.Length()))
	i := sort.SearchFloat64s(p.accS, s) - 1
	if i < 0 {
		i = 0
	}
	if i > len(p.accS)-2 {
		i = len(p.accS) - 2
	}
	ratio := (s - p.accS[i]) / (p.accS[i+1] - p.accS[i])
	return i, ratio
}

// ReferencePointAt returns the interpolated reference state at s. s is
// clamped to [0, Length()].
func (p *Polyline) ReferencePointAt(s float64) ReferencePoint {
	i, r := p.segmentAt(s)
	a, b := p.line[i], p.line[i+1]
	return ReferencePoint{
		X:       a.X() + (b.X()-a.X())*r,
		Y:       a.Y() + (b.Y()-a.Y())*r,
		Heading: geometry.InterpolateAngle(p.headings[i], p.headings[i+1], r),
		Kappa:   p.kappas[i] + (p.kappas[i+1]-p.kappas[i])*r,
		DKappa:  p.dkappas[i] + (p.dkappas[i+1]-p.dkappas[i])*r,
	}
}

// Project returns the Frenet coordinates of pt relative to the closest
// segment. Points whose foot lies before the start or past the end of the
// line return ErrNotOnReferenceLine.
func (p *Polyline) Project(pt geometry.Vec2) (frenet.SLPoint, error) {
	last := len(p.line) - 2
	bestDist := math.Inf(1)
	var best frenet.SLPoint
	for i := 0; i <= last; i++ {
		a := geometry.Vec2{X: p.line[i].X(), Y: p.line[i].Y()}
		b := geometry.Vec2{X: p.line[i+1].X(), Y: p.line[i+1].Y()}
		segLen := p.accS[i+1] - p.accS[i]
		dir := b.Sub(a).Mul(1 / segLen)
		rel := pt.Sub(a)
		t := rel.Dot(dir)

		// Only the first and last segments extend past their ends, so
		// points beyond the line are detected rather than snapped.
		tc := t
		if i > 0 && tc < 0 {
			tc = 0
		}
		if i < last && tc > segLen {
			tc = segLen
		}
		foot := a.Add(dir.Mul(tc))
		dist := pt.Sub(foot).Norm()
		if dist < bestDist {
			bestDist = dist
			l := dist
			if dir.Cross(rel) < 0 {
				l = -dist
			}
			best = frenet.SLPoint{S: p.accS[i] + tc, L: l}
		}
	}

	if best.S < -sEpsilon || best.S > p.Length()+sEpsilon {
		return frenet.SLPoint{}, fmt.Errorf("project (%.3f, %.3f): s=%.3f outside [0, %.3f]: %w",
			pt.X, pt.Y, best.S, p.Length(), ErrNotOnReferenceLine)
	}
	return best, nil
}

// ToCartesian maps sl to map coordinates by offsetting the reference point
// along its left normal.
func (p *Polyline) ToCartesian(sl frenet.SLPoint) (geometry.Vec2, error) {
	if sl.S < -sEpsilon || sl.S > p.Length()+sEpsilon {
		return geometry.Vec2{}, fmt.Errorf("to cartesian %s: %w", sl, ErrOutOfRange)
	}
	rp := p.ReferencePointAt(sl.S)
	return geometry.Vec2{
		X: rp.X - math.Sin(rp.Heading)*sl.L,
		Y: rp.Y + math.Cos(rp.Heading)*sl.L,
	}, nil
}

// IsOnRoad reports whether sl lies within the line's s domain and between
// the road boundaries at that s.
func (p *Polyline) IsOnRoad(sl frenet.SLPoint) bool {
	if sl.S < -sEpsilon || sl.S > p.Length()+sEpsilon {
		return false
	}
	left, right := p.boundary(sl.S)
	return sl.L <= left && sl.L >= -right
}
