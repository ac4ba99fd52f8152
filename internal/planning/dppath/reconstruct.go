package dppath

import (
	"fmt"
	"math"

	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
)

// resampleEpsilon keeps a segment end that lands on an exact multiple of the
// resolution out of that segment; it is emitted as the next segment's start.
const resampleEpsilon = 1e-6

// resampleFrenetPath walks the edge curves of the winning node chain at a
// fixed s step. A segment of length Len yields ceil(Len/resolution) points.
// The final node itself is not emitted.
func resampleFrenetPath(nodes []graphNode, resolution float64) frenet.FrenetFramePath {
	if len(nodes) < 2 || resolution <= 0 {
		return nil
	}
	var path frenet.FrenetFramePath
	accumulatedS := nodes[0].point.S
	for i := 1; i < len(nodes); i++ {
		segLen := nodes[i].point.S - nodes[i-1].point.S
		c := nodes[i].curve
		for k := 0; ; k++ {
			ds := float64(k) * resolution
			if ds >= segLen-resampleEpsilon {
				break
			}
			path = append(path, frenet.FrenetFramePoint{
				S:   accumulatedS + ds,
				L:   c.Evaluate(0, ds),
				DL:  c.Evaluate(1, ds),
				DDL: c.Evaluate(2, ds),
			})
		}
		accumulatedS += segLen
	}
	return path
}

// toDiscretizedPath converts every Frenet sample to Cartesian. Heading and
// curvature come from the analytic Frenet relations, DKappa is the finite
// difference of curvature over chord length, and S accumulates chord length
// from 0. Any sample that cannot be converted fails the whole path.
func toDiscretizedPath(ref refline.ReferenceLine, fp frenet.FrenetFramePath) ([]PathPoint, error) {
	points := make([]PathPoint, 0, len(fp))
	for i, p := range fp {
		xy, err := ref.ToCartesian(p.SL())
		if err != nil {
			return nil, fmt.Errorf("%w: path sample %d %s: %w", ErrProjection, i, p.SL(), err)
		}
		rp := ref.ReferencePointAt(p.S)
		pt := PathPoint{
			X:     xy.X,
			Y:     xy.Y,
			Theta: frenet.CalculateTheta(rp.Heading, rp.Kappa, p.L, p.DL),
			Kappa: frenet.CalculateKappa(rp.Kappa, rp.DKappa, p.L, p.DL, p.DDL),
		}
		if i > 0 {
			prev := points[i-1]
			pt.S = prev.S + math.Hypot(pt.X-prev.X, pt.Y-prev.Y)
		}
		points = append(points, pt)
	}
	fillDKappa(points)
	return points, nil
}

func fillDKappa(points []PathPoint) {
	n := len(points)
	for i := range points {
		lo, hi := max(i-1, 0), min(i+1, n-1)
		if ds := points[hi].S - points[lo].S; ds > 0 {
			points[i].DKappa = (points[hi].Kappa - points[lo].Kappa) / ds
		}
	}
}
