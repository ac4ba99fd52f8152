package dppath

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/pathtunnel/internal/monitoring"
	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
	"github.com/banshee-data/pathtunnel/internal/planning/speed"
	"github.com/banshee-data/pathtunnel/internal/planning/vehicle"
)

// evalStepEpsilon absorbs representation error when dividing the horizon by
// the evaluation interval.
const evalStepEpsilon = 1e-9

// decisionEngine attaches decisions to the obstacles of one cycle.
type decisionEngine struct {
	cfg Config
	veh vehicle.Param
	ref refline.ReferenceLine
}

// egoSample pairs an ego footprint with its Frenet position.
type egoSample struct {
	box geometry.Box2d
	sl  frenet.SLPoint
}

// decide runs the static then the dynamic pass. Per-obstacle failures are
// logged and returned joined; they never stop the remaining obstacles from
// being evaluated.
func (e *decisionEngine) decide(path PathData, sd *speed.SpeedData, decisions *obstacle.DecisionData) error {
	staticErr := e.decideStatic(path, decisions.Static)
	dynamicErr := e.decideDynamic(path.FrenetPath, sd, decisions.Dynamic)
	return errors.Join(staticErr, dynamicErr)
}

func (e *decisionEngine) egoSamples(path []PathPoint) []egoSample {
	samples := make([]egoSample, 0, len(path))
	for _, p := range path {
		center := geometry.Vec2{X: p.X, Y: p.Y}
		sl, err := e.ref.Project(center)
		if err != nil {
			monitoring.Stagef("decision", "ego sample (%.3f, %.3f) not on reference line: %v", p.X, p.Y, err)
			continue
		}
		samples = append(samples, egoSample{box: e.veh.Footprint(center, p.Theta), sl: sl})
	}
	return samples
}

func (e *decisionEngine) decideStatic(path PathData, static []*obstacle.Obstacle) error {
	if len(static) == 0 {
		return nil
	}
	ego := e.egoSamples(path.DiscretizedPath)

	var errs []error
	for _, obs := range static {
		box := obs.PerceptionBoundingBox()
		obsSL, err := e.ref.Project(box.Center)
		if err != nil {
			err = fmt.Errorf("static obstacle %s: %w", obs.ID, err)
			monitoring.Stagef("decision", "%v", err)
			errs = append(errs, err)
			continue
		}
		d := e.staticDecision(box, obsSL, ego)
		obs.AddDecision(d)
		monitoring.Stagef("decision", "static obstacle %s at %s: %s", obs.ID, obsSL, obstacle.Describe(d))
	}
	return errors.Join(errs...)
}

// staticDecision applies the first matching rule over the ego samples that
// fall within the obstacle's longitudinal half extent.
func (e *decisionEngine) staticDecision(box geometry.Box2d, obsSL frenet.SLPoint, ego []egoSample) obstacle.Decision {
	half := box.HalfLength()
	for _, sample := range ego {
		if sample.sl.S < obsSL.S-half || sample.sl.S > obsSL.S+half {
			continue
		}
		if box.HasOverlap(sample.box) && math.Abs(obsSL.L) < e.cfg.StaticDecisionStopBuffer {
			return obstacle.Stop{DistanceS: e.cfg.DecisionBuffer, Reason: obstacle.StopReasonObstacle}
		}
		diff := obsSL.L - sample.sl.L
		switch {
		case diff > 0 && diff < e.cfg.StaticDecisionIgnoreRange:
			return obstacle.NudgeRight{DistanceL: e.cfg.DecisionBuffer}
		case diff < 0 && -diff < e.cfg.StaticDecisionIgnoreRange:
			return obstacle.NudgeLeft{DistanceL: e.cfg.DecisionBuffer}
		}
	}
	return obstacle.Ignore{}
}

// evaluationSteps returns how many time steps the dynamic pass checks.
func (e *decisionEngine) evaluationSteps(sd *speed.SpeedData) int {
	if e.cfg.EvalTimeInterval <= 0 {
		return 0
	}
	horizon := math.Min(sd.TotalTime(), e.cfg.PredictionTotalTime)
	if horizon <= 0 {
		return 0
	}
	return int(math.Floor(horizon/e.cfg.EvalTimeInterval + evalStepEpsilon))
}

// egoByTime samples the ego footprint at t_k = k·interval for k in [0, n).
// On a speed lookup failure it returns the samples gathered so far with the
// error.
func (e *decisionEngine) egoByTime(fp frenet.FrenetFramePath, sd *speed.SpeedData, n int) ([]geometry.Box2d, error) {
	if n == 0 {
		return nil, nil
	}
	if len(fp) == 0 {
		return nil, fmt.Errorf("empty frenet path")
	}
	startS := fp[0].S
	boxes := make([]geometry.Box2d, 0, n)
	for k := 0; k < n; k++ {
		t := float64(k) * e.cfg.EvalTimeInterval
		sp, err := sd.SpeedPointAtTime(t)
		if err != nil {
			return boxes, fmt.Errorf("ego at t=%.2f: %w", t, err)
		}
		p := fp.Interpolate(startS + sp.S)
		xy, err := e.ref.ToCartesian(p.SL())
		if err != nil {
			return boxes, fmt.Errorf("ego at t=%.2f %s: %w", t, p.SL(), err)
		}
		rp := e.ref.ReferencePointAt(p.S)
		theta := geometry.NormalizeAngle(rp.Heading + math.Atan2(p.DL, 1-rp.Kappa*p.L))
		boxes = append(boxes, e.veh.Footprint(xy, theta))
	}
	return boxes, nil
}

func (e *decisionEngine) decideDynamic(fp frenet.FrenetFramePath, sd *speed.SpeedData, dynamic []*obstacle.Obstacle) error {
	if len(dynamic) == 0 {
		return nil
	}
	n := e.evaluationSteps(sd)
	ego, egoErr := e.egoByTime(fp, sd, n)
	if egoErr != nil {
		monitoring.Stagef("decision", "ego series incomplete (%d of %d steps): %v", len(ego), n, egoErr)
	}

	var errs []error
	for _, obs := range dynamic {
		if len(ego) < n {
			err := fmt.Errorf("dynamic obstacle %s: ego series has %d of %d steps: %w", obs.ID, len(ego), n, ErrObstacleMismatch)
			monitoring.Stagef("decision", "%v", err)
			errs = append(errs, err)
			continue
		}
		if err := e.dynamicDecision(obs, ego); err != nil {
			monitoring.Stagef("decision", "%v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dynamicDecision scans the time steps in order and stops at the first step
// closer than the follow range. Later steps are never queried, so a
// prediction that ends after the trigger still yields Follow; only a gap
// reached before any trigger skips the obstacle.
func (e *decisionEngine) dynamicDecision(obs *obstacle.Obstacle, ego []geometry.Box2d) error {
	for k, egoBox := range ego {
		t := float64(k) * e.cfg.EvalTimeInterval
		obsBox, err := obs.BoundingBoxAtTime(t)
		if err != nil {
			return fmt.Errorf("dynamic obstacle %s: %w: %w", obs.ID, ErrObstacleMismatch, err)
		}
		if dist := egoBox.DistanceTo(obsBox); dist < e.cfg.DynamicDecisionFollowRange {
			d := obstacle.Follow{DistanceS: e.cfg.DecisionBuffer}
			obs.AddDecision(d)
			monitoring.Stagef("decision", "dynamic obstacle %s at t=%.2f distance %.2f: %s", obs.ID, t, dist, obstacle.Describe(d))
			return nil
		}
	}
	return nil
}
