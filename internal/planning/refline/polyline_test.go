package refline

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
)

func straightLine(t *testing.T, length float64) *Polyline {
	t.Helper()
	var pts orb.LineString
	for x := 0.0; x <= length; x++ {
		pts = append(pts, orb.Point{x, 0})
	}
	p, err := NewPolyline(pts, 2, 2)
	require.NoError(t, err)
	return p
}

func arcLine(t *testing.T, radius float64) *Polyline {
	t.Helper()
	var pts orb.LineString
	// Counter-clockwise quarter circle centred at (0, radius), starting at
	// the origin heading +x.
	for a := 0.0; a <= math.Pi/2+1e-9; a += 0.005 {
		pts = append(pts, orb.Point{radius * math.Sin(a), radius - radius*math.Cos(a)})
	}
	p, err := NewPolyline(pts, 3, 3)
	require.NoError(t, err)
	return p
}

func TestNewPolyline_Errors(t *testing.T) {
	_, err := NewPolyline(orb.LineString{{0, 0}}, 1, 1)
	assert.Error(t, err)

	_, err = NewPolyline(orb.LineString{{0, 0}, {0, 0}, {0, 0}}, 1, 1)
	assert.Error(t, err, "duplicate vertices collapse to a single point")
}

func TestPolyline_DropsDuplicateVertices(t *testing.T) {
	p, err := NewPolyline(orb.LineString{{0, 0}, {1, 0}, {1, 0}, {2, 0}}, 1, 1)
	require.NoError(t, err)
	assert.Len(t, p.Vertices(), 3)
	assert.InDelta(t, 2.0, p.Length(), 1e-12)
}

func TestPolyline_StraightProjectAndConvert(t *testing.T) {
	p := straightLine(t, 100)
	assert.InDelta(t, 100.0, p.Length(), 1e-9)

	sl, err := p.Project(geometry.Vec2{X: 10.25, Y: 1.5})
	require.NoError(t, err)
	assert.InDelta(t, 10.25, sl.S, 1e-9)
	assert.InDelta(t, 1.5, sl.L, 1e-9)

	sl, err = p.Project(geometry.Vec2{X: 42, Y: -3})
	require.NoError(t, err)
	assert.InDelta(t, -3.0, sl.L, 1e-9)

	xy, err := p.ToCartesian(frenet.SLPoint{S: 20, L: 1.5})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, xy.X, 1e-9)
	assert.InDelta(t, 1.5, xy.Y, 1e-9)

	rp := p.ReferencePointAt(55.5)
	assert.InDelta(t, 55.5, rp.X, 1e-9)
	assert.InDelta(t, 0.0, rp.Heading, 1e-12)
	assert.InDelta(t, 0.0, rp.Kappa, 1e-12)
}

func TestPolyline_ProjectOutsideDomain(t *testing.T) {
	p := straightLine(t, 100)

	_, err := p.Project(geometry.Vec2{X: -5, Y: 0})
	assert.True(t, errors.Is(err, ErrNotOnReferenceLine), "got %v", err)

	_, err = p.Project(geometry.Vec2{X: 105, Y: 1})
	assert.True(t, errors.Is(err, ErrNotOnReferenceLine), "got %v", err)

	_, err = p.ToCartesian(frenet.SLPoint{S: 101})
	assert.True(t, errors.Is(err, ErrOutOfRange), "got %v", err)
	_, err = p.ToCartesian(frenet.SLPoint{S: -1})
	assert.True(t, errors.Is(err, ErrOutOfRange), "got %v", err)
}

func TestPolyline_IsOnRoad(t *testing.T) {
	p := straightLine(t, 50)
	assert.True(t, p.IsOnRoad(frenet.SLPoint{S: 10, L: 2}))
	assert.True(t, p.IsOnRoad(frenet.SLPoint{S: 10, L: -2}))
	assert.False(t, p.IsOnRoad(frenet.SLPoint{S: 10, L: 2.01}))
	assert.False(t, p.IsOnRoad(frenet.SLPoint{S: 51, L: 0}))
}

func TestPolyline_RoadBoundaryOption(t *testing.T) {
	closed := func(s float64) (float64, float64) {
		if s > 20 && s < 30 {
			return -1, -1
		}
		return 1, 1
	}
	p, err := NewPolyline(orb.LineString{{0, 0}, {50, 0}}, 5, 5, WithRoadBoundary(closed))
	require.NoError(t, err)

	assert.True(t, p.IsOnRoad(frenet.SLPoint{S: 10, L: 0.5}))
	assert.False(t, p.IsOnRoad(frenet.SLPoint{S: 10, L: 1.5}))
	assert.False(t, p.IsOnRoad(frenet.SLPoint{S: 25, L: 0}))
}

func TestPolyline_ArcCurvatureAndHeading(t *testing.T) {
	const radius = 50.0
	p := arcLine(t, radius)

	s := p.Length() / 2
	rp := p.ReferencePointAt(s)
	assert.InDelta(t, 1/radius, rp.Kappa, 1e-4)
	assert.InDelta(t, 0.0, rp.DKappa, 1e-4)
	assert.InDelta(t, s/radius, rp.Heading, 1e-3)
}

func TestPolyline_ArcRoundTrip(t *testing.T) {
	p := arcLine(t, 50)

	for _, sl := range []frenet.SLPoint{{S: 5, L: 1}, {S: 30, L: -2}, {S: 60, L: 0.5}} {
		xy, err := p.ToCartesian(sl)
		require.NoError(t, err)
		back, err := p.Project(xy)
		require.NoError(t, err)
		assert.InDelta(t, sl.S, back.S, 0.02, "s for %s", sl)
		assert.InDelta(t, sl.L, back.L, 0.02, "l for %s", sl)
	}
}
