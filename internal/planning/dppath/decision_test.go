package dppath

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
	"github.com/banshee-data/pathtunnel/internal/planning/speed"
	"github.com/banshee-data/pathtunnel/internal/planning/vehicle"
)

// centrelinePath is a resolved path along l=0 from s=0 to s=length.
func centrelinePath(t *testing.T, ref refline.ReferenceLine, length float64) PathData {
	t.Helper()
	fp := resampleFrenetPath(chain(frenet.SLPoint{S: 0}, frenet.SLPoint{S: length}), 0.5)
	pts, err := toDiscretizedPath(ref, fp)
	require.NoError(t, err)
	return PathData{FrenetPath: fp, DiscretizedPath: pts}
}

func newEngine(t *testing.T, ref refline.ReferenceLine, veh vehicle.Param) *decisionEngine {
	t.Helper()
	return &decisionEngine{cfg: testConfig(), veh: veh, ref: ref}
}

var defaultVehicle = vehicle.Param{Length: 4.933, Width: 2.11, UseLengthAsWidth: true}

func staticAt(id string, x, y float64) *obstacle.Obstacle {
	return obstacle.New(id, geometry.NewBox2d(geometry.Vec2{X: x, Y: y}, 0, 4, 2))
}

func TestDecideStatic(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)

	cases := []struct {
		name string
		obs  *obstacle.Obstacle
		want obstacle.Decision
	}{
		{"overlapping near centreline stops", staticAt("stop", 20, 0.2),
			obstacle.Stop{DistanceS: 0.5, Reason: obstacle.StopReasonObstacle}},
		{"left of ego within range nudges right", staticAt("right", 20, 0.5),
			obstacle.NudgeRight{DistanceL: 0.5}},
		{"right of ego within range nudges left", staticAt("left", 20, -1.5),
			obstacle.NudgeLeft{DistanceL: 0.5}},
		{"beyond ignore range is ignored", staticAt("far", 20, 4),
			obstacle.Ignore{}},
		{"past the end of the path is ignored", staticAt("ahead", 80, 0),
			obstacle.Ignore{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, ref, defaultVehicle)
			err := e.decideStatic(path, []*obstacle.Obstacle{tc.obs})
			require.NoError(t, err)
			require.Len(t, tc.obs.Decisions(), 1)
			assert.Equal(t, tc.want, tc.obs.Decisions()[0])
		})
	}
}

func TestDecideStatic_ProjectionFailureLeavesNoDecision(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)

	lost := staticAt("lost", -30, 0)
	kept := staticAt("kept", 20, 0)
	e := newEngine(t, ref, defaultVehicle)
	err := e.decideStatic(path, []*obstacle.Obstacle{lost, kept})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, refline.ErrNotOnReferenceLine), "got %v", err)
	assert.Empty(t, lost.Decisions())
	require.Len(t, kept.Decisions(), 1, "later obstacles are still evaluated")
	assert.Equal(t, obstacle.KindStop, kept.Decisions()[0].Kind())
}

func TestDecideStatic_OverlapOffCentreNudges(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)

	// The square footprint overlaps, but |l| >= stop buffer falls through
	// to the nudge rule.
	obs := staticAt("wide", 20, 1.0)
	e := newEngine(t, ref, defaultVehicle)
	require.NoError(t, e.decideStatic(path, []*obstacle.Obstacle{obs}))
	require.Len(t, obs.Decisions(), 1)
	assert.Equal(t, obstacle.NudgeRight{DistanceL: 0.5}, obs.Decisions()[0])
}

// scriptedPredictor returns boxes from a fixed script and counts queries.
type scriptedPredictor struct {
	boxes    []geometry.Box2d
	interval float64
	calls    int
}

func (p *scriptedPredictor) BoxAtTime(t float64) (geometry.Box2d, error) {
	p.calls++
	k := int(math.Round(t / p.interval))
	if k < 0 || k >= len(p.boxes) {
		return geometry.Box2d{}, obstacle.ErrNoPrediction
	}
	return p.boxes[k], nil
}

func TestDecideDynamic_FollowWithEarlyExit(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)
	veh := vehicle.Param{Length: 4, Width: 2}

	// Stationary ego occupies x in [-2, 2]. Obstacle boxes of the same size
	// sit ahead with the given gaps.
	gaps := []float64{5, 4, 3, 1.0, 0.5}
	pred := &scriptedPredictor{interval: 0.5}
	for _, g := range gaps {
		pred.boxes = append(pred.boxes, geometry.NewBox2d(geometry.Vec2{X: 4 + g}, 0, 4, 2))
	}
	obs := obstacle.NewDynamic("lead", pred.boxes[0], pred)

	e := newEngine(t, ref, veh)
	sd := speed.NewConstantSpeed(0, 2.5, 0.5)
	require.Equal(t, 5, e.evaluationSteps(sd))

	err := e.decideDynamic(path.FrenetPath, sd, []*obstacle.Obstacle{obs})
	require.NoError(t, err)
	require.Len(t, obs.Decisions(), 1)
	assert.Equal(t, obstacle.Follow{DistanceS: 0.5}, obs.Decisions()[0])
	assert.Equal(t, 4, pred.calls, "steps after the first follow trigger are not evaluated")
}

func TestDecideDynamic_TriggerBeforePredictionEnds(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)
	veh := vehicle.Param{Length: 4, Width: 2}

	// The prediction covers two of the five steps and closes to 1 m at the
	// second, so the missing tail is never reached.
	pred := &scriptedPredictor{interval: 0.5, boxes: []geometry.Box2d{
		geometry.NewBox2d(geometry.Vec2{X: 9}, 0, 4, 2),
		geometry.NewBox2d(geometry.Vec2{X: 5}, 0, 4, 2),
	}}
	obs := obstacle.NewDynamic("cut-in", pred.boxes[0], pred)

	e := newEngine(t, ref, veh)
	sd := speed.NewConstantSpeed(0, 2.5, 0.5)
	require.Equal(t, 5, e.evaluationSteps(sd))

	require.NoError(t, e.decideDynamic(path.FrenetPath, sd, []*obstacle.Obstacle{obs}))
	assert.Equal(t, []obstacle.Decision{obstacle.Follow{DistanceS: 0.5}}, obs.Decisions())
	assert.Equal(t, 2, pred.calls)
}

func TestDecideDynamic_NoTriggerNoDecision(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)

	far := geometry.NewBox2d(geometry.Vec2{X: 30, Y: 20}, 0, 4, 2)
	obs := obstacle.NewDynamic("far", far, obstacle.NewConstantVelocity(far, 0, 0))
	e := newEngine(t, ref, defaultVehicle)
	err := e.decideDynamic(path.FrenetPath, speed.NewConstantSpeed(5, 3, 0.1), []*obstacle.Obstacle{obs})
	require.NoError(t, err)
	assert.Empty(t, obs.Decisions(), "no follow and no explicit ignore from the dynamic pass")
}

func TestDecideDynamic_PredictionGapSkipsObstacle(t *testing.T) {
	lc := captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)

	far := geometry.NewBox2d(geometry.Vec2{X: 30, Y: 20}, 0, 4, 2)
	short := obstacle.NewDynamic("short", far, obstacle.NewConstantVelocity(far, 0, 0.7))
	e := newEngine(t, ref, defaultVehicle)
	err := e.decideDynamic(path.FrenetPath, speed.NewConstantSpeed(1, 3, 0.1), []*obstacle.Obstacle{short})
	assert.True(t, errors.Is(err, ErrObstacleMismatch), "got %v", err)
	assert.Empty(t, short.Decisions())
	assert.True(t, lc.contains("short"))
}

func TestDecideDynamic_ShortEgoSeriesSkipsObstacle(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)

	// Profile starts at t=1, so the lookup at t=0 fails.
	sd := speed.NewSpeedData([]speed.SpeedPoint{{S: 0, T: 1}, {S: 10, T: 4}})
	near := geometry.NewBox2d(geometry.Vec2{X: 3}, 0, 4, 2)
	pred := &scriptedPredictor{interval: 0.5, boxes: []geometry.Box2d{near}}
	obs := obstacle.NewDynamic("near", near, pred)

	e := newEngine(t, ref, defaultVehicle)
	err := e.decideDynamic(path.FrenetPath, sd, []*obstacle.Obstacle{obs})
	assert.True(t, errors.Is(err, ErrObstacleMismatch), "got %v", err)
	assert.Empty(t, obs.Decisions())
	assert.Zero(t, pred.calls, "obstacle is skipped before it is queried")
}

func TestEvaluationSteps(t *testing.T) {
	e := &decisionEngine{cfg: Config{EvalTimeInterval: 0.1, PredictionTotalTime: 5}}
	assert.Equal(t, 50, e.evaluationSteps(speed.NewConstantSpeed(1, 10, 0.1)), "prediction horizon caps")
	assert.Equal(t, 20, e.evaluationSteps(speed.NewConstantSpeed(1, 2, 0.1)), "speed profile caps")
	assert.Equal(t, 0, e.evaluationSteps(speed.NewSpeedData(nil)))

	e.cfg.EvalTimeInterval = 0
	assert.Equal(t, 0, e.evaluationSteps(speed.NewConstantSpeed(1, 2, 0.1)))
}

func TestEgoByTime_FollowsSpeedProfile(t *testing.T) {
	ref := straightRef(t, 100, 5)
	fp := resampleFrenetPath(chain(frenet.SLPoint{S: 10}, frenet.SLPoint{S: 40, L: 1}), 0.5)
	e := newEngine(t, ref, vehicle.Param{Length: 4, Width: 2})

	boxes, err := e.egoByTime(fp, speed.NewConstantSpeed(2, 3, 0.5), 6)
	require.NoError(t, err)
	require.Len(t, boxes, 6)
	for k, b := range boxes {
		wantS := 10 + 2*0.5*float64(k)
		p := fp.Interpolate(wantS)
		assert.InDelta(t, wantS, b.Center.X, 1e-9)
		assert.InDelta(t, p.L, b.Center.Y, 1e-9)
		assert.InDelta(t, math.Atan(p.DL), b.Heading, 1e-9)
		assert.Equal(t, 2.0, b.Width)
	}
}

func TestDecide_JoinsPasses(t *testing.T) {
	captureLogs(t)
	ref := straightRef(t, 100, 5)
	path := centrelinePath(t, ref, 50)

	lost := staticAt("lost", -30, 0)
	far := geometry.NewBox2d(geometry.Vec2{X: 30, Y: 20}, 0, 4, 2)
	short := obstacle.NewDynamic("short", far, obstacle.NewConstantVelocity(far, 0, 0.2))
	dd := obstacle.NewDecisionData([]*obstacle.Obstacle{lost, short})

	e := newEngine(t, ref, defaultVehicle)
	err := e.decide(path, speed.NewConstantSpeed(1, 3, 0.1), dd)
	assert.True(t, errors.Is(err, refline.ErrNotOnReferenceLine))
	assert.True(t, errors.Is(err, ErrObstacleMismatch))
}
