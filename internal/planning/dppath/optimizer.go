package dppath

import (
	"fmt"
	"time"

	"github.com/banshee-data/pathtunnel/internal/monitoring"
	"github.com/banshee-data/pathtunnel/internal/planning/cost"
	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
	"github.com/banshee-data/pathtunnel/internal/planning/speed"
	"github.com/banshee-data/pathtunnel/internal/planning/vehicle"
	"github.com/banshee-data/pathtunnel/internal/timeutil"
)

// Result is the outcome of one successful planning cycle.
type Result struct {
	Path PathData

	// Lattice holds the node positions of every level, start node first.
	Lattice [][]frenet.SLPoint
	// MinCostPath is the winning node chain, start node first.
	MinCostPath []frenet.SLPoint
	TotalCost   float64

	// DecisionErr joins the per-obstacle failures of the decision pass.
	// They do not fail the cycle.
	DecisionErr error

	Elapsed time.Duration
}

// Optimizer runs the DP path search once per planning cycle. It holds no
// per-cycle state and may be reused across cycles, but a single Process
// call must not run concurrently with another on the same obstacles.
type Optimizer struct {
	cfg     Config
	veh     vehicle.Param
	newCost CostModelFactory
	clock   timeutil.Clock
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithCostModel replaces the default TrajectoryCost.
func WithCostModel(f CostModelFactory) Option {
	return func(o *Optimizer) { o.newCost = f }
}

// WithClock sets the clock used to time each cycle.
func WithClock(c timeutil.Clock) Option {
	return func(o *Optimizer) { o.clock = c }
}

// NewOptimizer creates an optimizer for the given vehicle.
func NewOptimizer(cfg Config, veh vehicle.Param, opts ...Option) *Optimizer {
	o := &Optimizer{
		cfg:   cfg,
		veh:   veh,
		clock: timeutil.RealClock{},
	}
	o.newCost = func(ref refline.ReferenceLine, veh vehicle.Param, decisions *obstacle.DecisionData) CostModel {
		return cost.NewTrajectoryCost(o.cfg.Cost, ref, veh, decisions.Static)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the optimizer's configuration.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Process computes the path for one cycle and appends decisions to the
// obstacles in decisions. It fails with ErrMalformedInput on missing inputs,
// ErrProjection when the initial pose or a path sample cannot be mapped, and
// ErrEmptySearchSpace when sampling yields nothing to search.
func (o *Optimizer) Process(sd *speed.SpeedData, ref refline.ReferenceLine, init TrajectoryPoint, decisions *obstacle.DecisionData) (*Result, error) {
	switch {
	case sd == nil:
		return nil, fmt.Errorf("nil speed data: %w", ErrMalformedInput)
	case ref == nil:
		return nil, fmt.Errorf("nil reference line: %w", ErrMalformedInput)
	case decisions == nil:
		return nil, fmt.Errorf("nil decision data: %w", ErrMalformedInput)
	}

	start := o.clock.Now()
	res, err := o.findPathTunnel(sd, ref, init, decisions)
	elapsed := o.clock.Since(start)
	if o.cfg.CycleBudget > 0 && elapsed > o.cfg.CycleBudget {
		monitoring.Stagef("optimizer", "cycle took %v, over budget %v", elapsed, o.cfg.CycleBudget)
	}
	if err != nil {
		monitoring.Stagef("optimizer", "failed to find path tunnel: %v", err)
		return nil, err
	}
	res.Elapsed = elapsed
	return res, nil
}

func (o *Optimizer) findPathTunnel(sd *speed.SpeedData, ref refline.ReferenceLine, init TrajectoryPoint, decisions *obstacle.DecisionData) (*Result, error) {
	initPoint, err := InitFrenetPoint(ref, init)
	if err != nil {
		return nil, err
	}

	levels, err := SamplePathWaypoints(o.cfg, ref, init)
	if err != nil {
		return nil, err
	}

	lat := buildLattice(initPoint, levels, o.newCost(ref, o.veh, decisions))
	nodes, total, err := lat.minCostPath()
	if err != nil {
		return nil, err
	}

	fp := resampleFrenetPath(nodes, o.cfg.PathResolution)
	if len(fp) == 0 {
		return nil, fmt.Errorf("reconstruct: %d nodes over %.6f m yield no samples: %w",
			len(nodes), nodes[len(nodes)-1].point.S-nodes[0].point.S, ErrEmptySearchSpace)
	}
	discretized, err := toDiscretizedPath(ref, fp)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Path:        PathData{FrenetPath: fp, DiscretizedPath: discretized},
		Lattice:     lat.points(),
		MinCostPath: make([]frenet.SLPoint, len(nodes)),
		TotalCost:   total,
	}
	for i, n := range nodes {
		res.MinCostPath[i] = n.point
	}
	monitoring.Stagef("optimizer", "path over %d levels, %d samples, %.2f m, cost %.3f",
		len(nodes)-1, len(discretized), res.Path.Length(), total)

	engine := &decisionEngine{cfg: o.cfg, veh: o.veh, ref: ref}
	if res.DecisionErr = engine.decide(res.Path, sd, decisions); res.DecisionErr != nil {
		monitoring.Stagef("optimizer", "decision pass completed with errors: %v", res.DecisionErr)
	}
	return res, nil
}
