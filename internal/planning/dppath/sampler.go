package dppath

import (
	"fmt"
	"math"

	"github.com/banshee-data/pathtunnel/internal/monitoring"
	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
)

// SamplePathWaypoints returns the lateral candidates of each level ahead of
// the initial pose, nearest level first. The start point itself is not
// included. Levels with no drivable candidate are omitted, so the result may
// hold fewer than SampleLevel levels and consecutive levels may be more than
// one step apart.
func SamplePathWaypoints(cfg Config, ref refline.ReferenceLine, init TrajectoryPoint) ([][]frenet.SLPoint, error) {
	initSL, err := ref.Project(geometry.Vec2{X: init.X, Y: init.Y})
	if err != nil {
		return nil, fmt.Errorf("%w: init pose (%.3f, %.3f): %w", ErrProjection, init.X, init.Y, err)
	}

	length := ref.Length()
	step := math.Max(cfg.StepLengthMin, math.Min(init.V, cfg.StepLengthMax))
	num := cfg.SamplePointsNumEachLevel / 2

	var levels [][]frenet.SLPoint
	accumulatedS := initSL.S
	for i := 0; i < cfg.SampleLevel && accumulatedS < length; i++ {
		accumulatedS += step
		s := math.Min(accumulatedS, length)

		level := make([]frenet.SLPoint, 0, 2*num+1)
		for j := -num; j <= num; j++ {
			sl := frenet.SLPoint{S: s, L: float64(j) * cfg.LateralSampleOffset}
			if ref.IsOnRoad(sl) {
				level = append(level, sl)
			}
		}
		if len(level) == 0 {
			monitoring.Stagef("sampler", "level %d at s=%.2f has no drivable candidate, skipping", i, s)
			continue
		}
		levels = append(levels, level)
	}
	return levels, nil
}
