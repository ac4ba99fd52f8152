// Package obstacle models perceived obstacles, their predicted motion and
// the decisions the planner attaches to them.
//
// Key types: Obstacle, Predictor, Decision, DecisionData.
//
// Dependency rule: obstacle may depend on geometry only.
package obstacle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
)

// ErrNoPrediction is returned when a time query is made against an
// obstacle that has no prediction, or outside the prediction horizon.
var ErrNoPrediction = errors.New("no prediction at requested time")

// Predictor answers where an obstacle's footprint will be at time t seconds
// from now.
type Predictor interface {
	BoxAtTime(t float64) (geometry.Box2d, error)
}

// Obstacle is a perceived object. Obstacles without a Prediction are static.
// The decision list is owned by the caller and only ever appended to.
type Obstacle struct {
	ID         string
	Box        geometry.Box2d
	Prediction Predictor

	decisions []Decision
}

// New returns a static obstacle. An empty id is replaced with a random UUID.
func New(id string, box geometry.Box2d) *Obstacle {
	if id == "" {
		id = uuid.NewString()
	}
	return &Obstacle{ID: id, Box: box}
}

// NewDynamic returns an obstacle that moves according to pred.
func NewDynamic(id string, box geometry.Box2d, pred Predictor) *Obstacle {
	o := New(id, box)
	o.Prediction = pred
	return o
}

// IsStatic reports whether the obstacle has no motion prediction.
func (o *Obstacle) IsStatic() bool {
	return o.Prediction == nil
}

// PerceptionBoundingBox returns the currently perceived footprint.
func (o *Obstacle) PerceptionBoundingBox() geometry.Box2d {
	return o.Box
}

// BoundingBoxAtTime returns the predicted footprint t seconds from now.
func (o *Obstacle) BoundingBoxAtTime(t float64) (geometry.Box2d, error) {
	if o.Prediction == nil {
		return geometry.Box2d{}, fmt.Errorf("obstacle %s: %w", o.ID, ErrNoPrediction)
	}
	box, err := o.Prediction.BoxAtTime(t)
	if err != nil {
		return geometry.Box2d{}, fmt.Errorf("obstacle %s at t=%.2f: %w", o.ID, t, err)
	}
	return box, nil
}

// AddDecision appends d to the obstacle's decision list.
func (o *Obstacle) AddDecision(d Decision) {
	o.decisions = append(o.decisions, d)
}

// Decisions returns the decisions attached so far.
func (o *Obstacle) Decisions() []Decision {
	return o.decisions
}

// DecisionData splits a cycle's obstacles into the static and dynamic sets
// the decision engine evaluates.
type DecisionData struct {
	Static  []*Obstacle
	Dynamic []*Obstacle
}

// NewDecisionData partitions obstacles by IsStatic, preserving order.
func NewDecisionData(obstacles []*Obstacle) *DecisionData {
	return &DecisionData{
		Static: lo.Filter(obstacles, func(o *Obstacle, _ int) bool {
			return o.IsStatic()
		}),
		Dynamic: lo.Filter(obstacles, func(o *Obstacle, _ int) bool {
			return !o.IsStatic()
		}),
	}
}

// All returns static then dynamic obstacles.
func (d *DecisionData) All() []*Obstacle {
	return append(append([]*Obstacle{}, d.Static...), d.Dynamic...)
}
