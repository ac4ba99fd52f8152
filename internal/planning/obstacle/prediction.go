package obstacle

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
)

// TrajectoryPoint is a predicted pose at time T seconds from now.
type TrajectoryPoint struct {
	T       float64 `json:"t"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Trajectory is a Predictor that interpolates between time-stamped poses.
// Queries outside [first.T, last.T] fail.
type Trajectory struct {
	Length float64
	Width  float64
	points []TrajectoryPoint
}

// NewTrajectory sorts points by time and returns the predictor. At least one
// point is required.
func NewTrajectory(length, width float64, points []TrajectoryPoint) (*Trajectory, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("trajectory needs at least one point")
	}
	sorted := make([]TrajectoryPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	return &Trajectory{Length: length, Width: width, points: sorted}, nil
}

// Points returns the poses in time order.
func (tr *Trajectory) Points() []TrajectoryPoint {
	return tr.points
}

// BoxAtTime implements Predictor.
func (tr *Trajectory) BoxAtTime(t float64) (geometry.Box2d, error) {
	n := len(tr.points)
	first, last := tr.points[0], tr.points[n-1]
	if t < first.T-1e-9 || t > last.T+1e-9 {
		return geometry.Box2d{}, fmt.Errorf("t=%.3f outside [%.3f, %.3f]: %w", t, first.T, last.T, ErrNoPrediction)
	}
	p := first
	if t >= last.T {
		p = last
	} else if t > first.T {
		hi := sort.Search(n, func(i int) bool { return tr.points[i].T > t })
		p0, p1 := tr.points[hi-1], tr.points[hi]
		r := (t - p0.T) / (p1.T - p0.T)
		p = TrajectoryPoint{
			T:       t,
			X:       p0.X + (p1.X-p0.X)*r,
			Y:       p0.Y + (p1.Y-p0.Y)*r,
			Heading: geometry.InterpolateAngle(p0.Heading, p1.Heading, r),
		}
	}
	return geometry.NewBox2d(geometry.Vec2{X: p.X, Y: p.Y}, p.Heading, tr.Length, tr.Width), nil
}

// ConstantVelocity is a Predictor that translates a box at a fixed velocity.
// A positive Horizon bounds the queryable time.
type ConstantVelocity struct {
	Start   geometry.Box2d
	VX, VY  float64
	Horizon float64
}

// NewConstantVelocity predicts box moving at speed along its heading.
func NewConstantVelocity(box geometry.Box2d, speed, horizon float64) *ConstantVelocity {
	return &ConstantVelocity{
		Start:   box,
		VX:      speed * math.Cos(box.Heading),
		VY:      speed * math.Sin(box.Heading),
		Horizon: horizon,
	}
}

// BoxAtTime implements Predictor.
func (cv *ConstantVelocity) BoxAtTime(t float64) (geometry.Box2d, error) {
	if t < 0 || (cv.Horizon > 0 && t > cv.Horizon+1e-9) {
		return geometry.Box2d{}, fmt.Errorf("t=%.3f outside [0, %.3f]: %w", t, cv.Horizon, ErrNoPrediction)
	}
	box := cv.Start
	box.Center = box.Center.Add(geometry.Vec2{X: cv.VX * t, Y: cv.VY * t})
	return box, nil
}
