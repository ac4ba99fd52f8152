// Package speed holds the heuristic speed profile the path planner consumes.
// The profile is produced upstream; this package only stores and samples it.
package speed

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfRange is returned when a time query falls outside the profile.
var ErrOutOfRange = errors.New("time is out of speed profile range")

// SpeedPoint is one sample of the speed profile. S is distance travelled from
// the start of the profile, T is time since the start of the profile.
type SpeedPoint struct {
	S float64 `json:"s"`
	T float64 `json:"t"`
	V float64 `json:"v"`
	A float64 `json:"a"`
}

// SpeedData is a speed profile sorted by T.
type SpeedData struct {
	points []SpeedPoint
}

// NewSpeedData copies and sorts points by time.
func NewSpeedData(points []SpeedPoint) *SpeedData {
	sorted := make([]SpeedPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	return &SpeedData{points: sorted}
}

// NewConstantSpeed builds a profile at constant speed v sampled every dt
// seconds for duration seconds. The final sample lands exactly on duration.
func NewConstantSpeed(v, duration, dt float64) *SpeedData {
	if dt <= 0 || duration <= 0 {
		return NewSpeedData([]SpeedPoint{{V: v}})
	}
	n := int(duration / dt)
	points := make([]SpeedPoint, 0, n+2)
	for i := 0; i <= n; i++ {
		t := float64(i) * dt
		points = append(points, SpeedPoint{S: v * t, T: t, V: v})
	}
	if last := points[len(points)-1].T; last < duration-1e-9 {
		points = append(points, SpeedPoint{S: v * duration, T: duration, V: v})
	}
	return &SpeedData{points: points}
}

// Points returns the samples in time order.
func (d *SpeedData) Points() []SpeedPoint {
	return d.points
}

// TotalTime returns the time spanned by the profile, or 0 when it has fewer
// than two samples.
func (d *SpeedData) TotalTime() float64 {
	if len(d.points) < 2 {
		return 0
	}
	return d.points[len(d.points)-1].T - d.points[0].T
}

// SpeedPointAtTime linearly interpolates the profile at t.
func (d *SpeedData) SpeedPointAtTime(t float64) (SpeedPoint, error) {
	n := len(d.points)
	if n == 0 {
		return SpeedPoint{}, fmt.Errorf("empty profile: %w", ErrOutOfRange)
	}
	first, last := d.points[0], d.points[n-1]
	if t < first.T-1e-9 || t > last.T+1e-9 {
		return SpeedPoint{}, fmt.Errorf("t=%.3f outside [%.3f, %.3f]: %w", t, first.T, last.T, ErrOutOfRange)
	}
	if n == 1 || t <= first.T {
		return first, nil
	}
	if t >= last.T {
		return last, nil
	}

	hi := sort.Search(n, func(i int) bool { return d.points[i].T > t })
	p0, p1 := d.points[hi-1], d.points[hi]
	r := (t - p0.T) / (p1.T - p0.T)
	return SpeedPoint{
		S: p0.S + (p1.S-p0.S)*r,
		T: t,
		V: p0.V + (p1.V-p0.V)*r,
		A: p0.A + (p1.A-p0.A)*r,
	}, nil
}
