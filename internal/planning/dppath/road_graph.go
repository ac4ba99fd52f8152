package dppath

import (
	"fmt"
	"math"
	"slices"

	"github.com/banshee-data/pathtunnel/internal/planning/curve"
	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
)

// nodeRef addresses a node by level and position within that level.
type nodeRef struct {
	level int
	index int
}

var noPredecessor = nodeRef{level: -1, index: -1}

// graphNode is one lattice vertex. The start node carries the vehicle's
// lateral slope and curvature rate; every other node is flat (dl = ddl = 0).
type graphNode struct {
	point frenet.SLPoint
	dl    float64
	ddl   float64

	prev  nodeRef
	curve *curve.QuinticPolynomial // edge from prev, nil for the start node
	cost  float64                  // cumulative cost from the start node
}

// lattice is the layered search graph. Level 0 holds only the start node.
// Nodes refer to their predecessor by nodeRef, so levels can grow without
// invalidating links.
type lattice struct {
	levels [][]graphNode
}

// InitFrenetPoint projects the initial pose and derives its lateral slope and
// curvature rate from the vehicle heading and curvature.
func InitFrenetPoint(ref refline.ReferenceLine, init TrajectoryPoint) (frenet.FrenetFramePoint, error) {
	sl, err := ref.Project(geometry.Vec2{X: init.X, Y: init.Y})
	if err != nil {
		return frenet.FrenetFramePoint{}, fmt.Errorf("%w: init pose (%.3f, %.3f): %w", ErrProjection, init.X, init.Y, err)
	}
	rp := ref.ReferencePointAt(sl.S)
	dl := frenet.CalculateLateralDerivative(rp.Heading, init.Theta, sl.L, rp.Kappa)
	ddl := frenet.CalculateSecondOrderLateralDerivative(rp.Heading, init.Theta, rp.Kappa, init.Kappa, rp.DKappa, sl.L)
	return frenet.FrenetFramePoint{S: sl.S, L: sl.L, DL: dl, DDL: ddl}, nil
}

// buildLattice runs the forward dynamic program. Each candidate keeps the
// predecessor with the strictly smallest cumulative cost, so on exact ties
// the first predecessor in level order wins.
func buildLattice(start frenet.FrenetFramePoint, levels [][]frenet.SLPoint, cm CostModel) *lattice {
	lat := &lattice{levels: make([][]graphNode, 0, len(levels)+1)}
	lat.levels = append(lat.levels, []graphNode{{
		point: start.SL(),
		dl:    start.DL,
		ddl:   start.DDL,
		prev:  noPredecessor,
		cost:  0,
	}})

	for li, points := range levels {
		prevLevel := lat.levels[li]
		cur := make([]graphNode, 0, len(points))
		for _, p := range points {
			node := graphNode{point: p, prev: noPredecessor, cost: math.Inf(1)}
			for pi := range prevLevel {
				q := &prevLevel[pi]
				if math.IsInf(q.cost, 1) {
					continue // unreachable
				}
				c := curve.NewQuinticPolynomial(q.point.L, q.dl, q.ddl, p.L, 0, 0, p.S-q.point.S)
				total := cm.Cost(c, q.point.S, p.S) + q.cost
				if total < node.cost {
					node.cost = total
					node.prev = nodeRef{level: li, index: pi}
					node.curve = c
				}
			}
			cur = append(cur, node)
		}
		lat.levels = append(lat.levels, cur)
	}
	return lat
}

func (lat *lattice) node(r nodeRef) *graphNode {
	return &lat.levels[r.level][r.index]
}

// minCostPath selects the cheapest node of the last level (a virtual sink
// with zero-cost edges) and backtracks to the start node.
func (lat *lattice) minCostPath() ([]graphNode, float64, error) {
	if len(lat.levels) < 2 {
		return nil, 0, fmt.Errorf("search: %w", ErrEmptySearchSpace)
	}

	last := len(lat.levels) - 1
	sink := noPredecessor
	sinkCost := math.Inf(1)
	for i := range lat.levels[last] {
		n := &lat.levels[last][i]
		if n.cost < sinkCost {
			sinkCost = n.cost
			sink = nodeRef{level: last, index: i}
		}
	}
	if sink == noPredecessor {
		return nil, 0, fmt.Errorf("search: no reachable node in final level: %w", ErrEmptySearchSpace)
	}

	var path []graphNode
	for r := sink; ; {
		n := lat.node(r)
		path = append(path, *n)
		if r.level == 0 {
			break
		}
		r = n.prev
	}
	slices.Reverse(path)
	return path, sinkCost, nil
}

// points returns the lattice positions level by level.
func (lat *lattice) points() [][]frenet.SLPoint {
	out := make([][]frenet.SLPoint, len(lat.levels))
	for i, level := range lat.levels {
		out[i] = make([]frenet.SLPoint, len(level))
		for j, n := range level {
			out[i][j] = n.point
		}
	}
	return out
}
