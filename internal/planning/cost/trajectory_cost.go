// Package cost scores candidate lattice edges for the path search.
//
// TrajectoryCost combines a smoothness term over the lateral profile with a
// clearance term against static obstacles. It is a pure function of its
// inputs once constructed and is safe to call from a single planning cycle.
//
// Dependency rule: cost may depend on config, curve, frenet, geometry,
// obstacle, refline, vehicle and monitoring.
package cost

import (
	"math"

	"github.com/banshee-data/pathtunnel/internal/config"
	"github.com/banshee-data/pathtunnel/internal/monitoring"
	"github.com/banshee-data/pathtunnel/internal/planning/curve"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
	"github.com/banshee-data/pathtunnel/internal/planning/vehicle"
)

// Config holds the weights used by TrajectoryCost.
type Config struct {
	// PathResolution is the s step at which the curve is sampled (metres).
	PathResolution float64

	LWeight   float64
	DLWeight  float64
	DDLWeight float64

	// CollisionCost is charged for every sample whose footprint overlaps an
	// obstacle laterally.
	CollisionCost float64
	// CollisionDistance is the lateral clearance below which a decaying
	// share of CollisionCost is charged.
	CollisionDistance float64
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		PathResolution:    cfg.GetPathResolution(),
		LWeight:           cfg.GetPathLCost(),
		DLWeight:          cfg.GetPathDLCost(),
		DDLWeight:         cfg.GetPathDDLCost(),
		CollisionCost:     cfg.GetObstacleCollisionCost(),
		CollisionDistance: cfg.GetObstacleCollisionDistance(),
	}
}

// SLBoundary is the Frenet extent of an obstacle footprint.
type SLBoundary struct {
	StartS, EndS float64
	StartL, EndL float64
}

// TrajectoryCost is the default lattice edge cost.
type TrajectoryCost struct {
	cfg        Config
	halfLength float64
	halfWidth  float64
	boundaries []SLBoundary
}

// NewTrajectoryCost precomputes the SL boundary of every static obstacle.
// Obstacles whose footprint cannot be projected onto ref are left out of the
// clearance term.
func NewTrajectoryCost(cfg Config, ref refline.ReferenceLine, veh vehicle.Param, static []*obstacle.Obstacle) *TrajectoryCost {
	tc := &TrajectoryCost{
		cfg:        cfg,
		halfLength: veh.Length / 2,
		halfWidth:  veh.Width / 2,
	}
	for _, o := range static {
		b, ok := boundaryOf(ref, o)
		if !ok {
			continue
		}
		tc.boundaries = append(tc.boundaries, b)
	}
	return tc
}

func boundaryOf(ref refline.ReferenceLine, o *obstacle.Obstacle) (SLBoundary, bool) {
	b := SLBoundary{
		StartS: math.Inf(1), EndS: math.Inf(-1),
		StartL: math.Inf(1), EndL: math.Inf(-1),
	}
	for _, corner := range o.PerceptionBoundingBox().Corners() {
		sl, err := ref.Project(corner)
		if err != nil {
			monitoring.Stagef("cost", "obstacle %s corner not on reference line: %v", o.ID, err)
			return SLBoundary{}, false
		}
		b.StartS = math.Min(b.StartS, sl.S)
		b.EndS = math.Max(b.EndS, sl.S)
		b.StartL = math.Min(b.StartL, sl.L)
		b.EndL = math.Max(b.EndL, sl.L)
	}
	return b, true
}

// Boundaries returns the obstacle SL boundaries in use.
func (tc *TrajectoryCost) Boundaries() []SLBoundary {
	return tc.boundaries
}

// Cost scores the edge curve spanning [startS, endS]. The result is never
// negative.
func (tc *TrajectoryCost) Cost(c *curve.QuinticPolynomial, startS, endS float64) float64 {
	span := endS - startS
	step := tc.cfg.PathResolution
	if step <= 0 || span <= 0 {
		return 0
	}

	var total float64
	for ds := 0.0; ds < span; ds += step {
		l := c.Evaluate(0, ds)
		dl := c.Evaluate(1, ds)
		ddl := c.Evaluate(2, ds)
		total += tc.cfg.LWeight*l*l + tc.cfg.DLWeight*dl*dl + tc.cfg.DDLWeight*ddl*ddl
		total += tc.obstacleCost(startS+ds, l)
	}
	return total
}

func (tc *TrajectoryCost) obstacleCost(s, l float64) float64 {
	var total float64
	for _, b := range tc.boundaries {
		if s+tc.halfLength < b.StartS || s-tc.halfLength > b.EndS {
			continue
		}
		gap := lateralGap(l-tc.halfWidth, l+tc.halfWidth, b.StartL, b.EndL)
		switch {
		case gap <= 0:
			total += tc.cfg.CollisionCost
		case gap < tc.cfg.CollisionDistance:
			total += tc.cfg.CollisionCost * (1 - gap/tc.cfg.CollisionDistance)
		}
	}
	return total
}

// lateralGap is the distance between intervals [a0, a1] and [b0, b1], or a
// non-positive value when they overlap.
func lateralGap(a0, a1, b0, b1 float64) float64 {
	return math.Max(b0-a1, a0-b1)
}
