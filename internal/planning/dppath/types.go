package dppath

import (
	"github.com/banshee-data/pathtunnel/internal/planning/curve"
	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
	"github.com/banshee-data/pathtunnel/internal/planning/vehicle"
)

// TrajectoryPoint is the vehicle state a planning cycle starts from.
type TrajectoryPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"` // heading (radians)
	Kappa float64 `json:"kappa"` // curvature (1/m)
	V     float64 `json:"v"`     // speed (m/s)
}

// PathPoint is one Cartesian sample of the resolved path.
type PathPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Theta  float64 `json:"theta"`
	Kappa  float64 `json:"kappa"`
	DKappa float64 `json:"dkappa"`
	S      float64 `json:"s"` // cumulative chord length from the first sample
}

// PathData is the resolved path in both frames. FrenetPath[i] and
// DiscretizedPath[i] describe the same sample.
type PathData struct {
	FrenetPath      frenet.FrenetFramePath `json:"frenet_path"`
	DiscretizedPath []PathPoint            `json:"discretized_path"`
}

// Length returns the Cartesian arc length of the path.
func (p PathData) Length() float64 {
	if len(p.DiscretizedPath) == 0 {
		return 0
	}
	return p.DiscretizedPath[len(p.DiscretizedPath)-1].S
}

// CostModel scores one lattice edge. Implementations must be pure and return
// a non-negative value.
type CostModel interface {
	Cost(c *curve.QuinticPolynomial, startS, endS float64) float64
}

// CostModelFunc adapts a function to CostModel.
type CostModelFunc func(c *curve.QuinticPolynomial, startS, endS float64) float64

// Cost implements CostModel.
func (f CostModelFunc) Cost(c *curve.QuinticPolynomial, startS, endS float64) float64 {
	return f(c, startS, endS)
}

// CostModelFactory builds the cost model for one cycle.
type CostModelFactory func(ref refline.ReferenceLine, veh vehicle.Param, decisions *obstacle.DecisionData) CostModel
