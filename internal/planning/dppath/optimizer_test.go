package dppath

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pathtunnel/internal/config"
	"github.com/banshee-data/pathtunnel/internal/planning/curve"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
	"github.com/banshee-data/pathtunnel/internal/planning/speed"
	"github.com/banshee-data/pathtunnel/internal/planning/vehicle"
	"github.com/banshee-data/pathtunnel/internal/timeutil"
)

func TestConfigFromTuning(t *testing.T) {
	cfg := ConfigFromTuning(config.EmptyTuningConfig())
	assert.Equal(t, 8.0, cfg.StepLengthMin)
	assert.Equal(t, 15.0, cfg.StepLengthMax)
	assert.Equal(t, 8, cfg.SampleLevel)
	assert.Equal(t, 9, cfg.SamplePointsNumEachLevel)
	assert.Equal(t, 0.5, cfg.LateralSampleOffset)
	assert.Equal(t, 0.1, cfg.PathResolution)
	assert.Equal(t, 0.1, cfg.EvalTimeInterval)
	assert.Equal(t, 5.0, cfg.PredictionTotalTime)
	assert.Equal(t, 0.5, cfg.DecisionBuffer)
	assert.Equal(t, 100*time.Millisecond, cfg.CycleBudget)
	assert.Equal(t, 6.5, cfg.Cost.LWeight)

	assert.Equal(t, cfg, DefaultConfig(), "defaults file matches built-in defaults")
}

func TestProcess_MalformedInput(t *testing.T) {
	captureLogs(t)
	o := NewOptimizer(testConfig(), defaultVehicle)
	ref := straightRef(t, 100, 5)
	sd := speed.NewConstantSpeed(10, 5, 0.1)
	dd := obstacle.NewDecisionData(nil)

	cases := []struct {
		name string
		sd   *speed.SpeedData
		ref  refline.ReferenceLine
		dd   *obstacle.DecisionData
	}{
		{"nil speed", nil, ref, dd},
		{"nil reference line", sd, nil, dd},
		{"nil decisions", sd, ref, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := o.Process(tc.sd, tc.ref, TrajectoryPoint{V: 10}, tc.dd)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
		})
	}
}

func TestProcess_StraightRoadStaysCentred(t *testing.T) {
	captureLogs(t)
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	clock.Step = 10 * time.Millisecond
	o := NewOptimizer(testConfig(), defaultVehicle, WithClock(clock))

	ref := straightRef(t, 200, 5)
	res, err := o.Process(speed.NewConstantSpeed(10, 5, 0.1), ref, TrajectoryPoint{V: 10}, obstacle.NewDecisionData(nil))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Millisecond, res.Elapsed)
	assert.NoError(t, res.DecisionErr)
	require.Len(t, res.Lattice, 9)
	assert.Len(t, res.Lattice[0], 1)
	for _, level := range res.Lattice[1:] {
		assert.Len(t, level, 9)
	}
	require.Len(t, res.MinCostPath, 9)
	for i, p := range res.MinCostPath {
		assert.InDelta(t, float64(i)*10, p.S, 1e-9)
		assert.InDelta(t, 0.0, p.L, 1e-12)
	}
	assert.InDelta(t, 0.0, res.TotalCost, 1e-9)

	require.Len(t, res.Path.FrenetPath, 800)
	require.Len(t, res.Path.DiscretizedPath, 800)
	assert.Equal(t, 0.0, res.Path.DiscretizedPath[0].S)
	for i := 1; i < len(res.Path.DiscretizedPath); i++ {
		assert.GreaterOrEqual(t, res.Path.DiscretizedPath[i].S, res.Path.DiscretizedPath[i-1].S)
	}
	assert.InDelta(t, 79.9, res.Path.Length(), 1e-6)
}

func TestProcess_AvoidsStaticObstacle(t *testing.T) {
	captureLogs(t)
	cfg := testConfig()
	cfg.LateralSampleOffset = 1.0
	o := NewOptimizer(cfg, defaultVehicle)

	ref := straightRef(t, 200, 5)
	block := obstacle.New("block", geometry.NewBox2d(geometry.Vec2{X: 40, Y: 0}, 0, 4, 2))
	dd := obstacle.NewDecisionData([]*obstacle.Obstacle{block})

	res, err := o.Process(speed.NewConstantSpeed(10, 5, 0.1), ref, TrajectoryPoint{V: 10}, dd)
	require.NoError(t, err)

	at40 := res.Path.FrenetPath.Interpolate(40)
	assert.Greater(t, math.Abs(at40.L), 2.5, "path clears the obstacle laterally")
	require.Len(t, block.Decisions(), 1, "the static pass attaches exactly one decision")
}

func TestProcess_CustomCostModel(t *testing.T) {
	captureLogs(t)
	var factoryCalls int
	preferLeft := func(refline.ReferenceLine, vehicle.Param, *obstacle.DecisionData) CostModel {
		factoryCalls++
		return CostModelFunc(func(c *curve.QuinticPolynomial, s0, s1 float64) float64 {
			return math.Abs(c.Evaluate(0, s1-s0) - 1)
		})
	}
	o := NewOptimizer(testConfig(), defaultVehicle, WithCostModel(preferLeft))

	res, err := o.Process(speed.NewConstantSpeed(10, 5, 0.1), straightRef(t, 200, 5), TrajectoryPoint{V: 10}, obstacle.NewDecisionData(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, factoryCalls)
	for _, p := range res.MinCostPath[1:] {
		assert.InDelta(t, 1.0, p.L, 1e-9)
	}
}

func TestProcess_ProjectionFailure(t *testing.T) {
	captureLogs(t)
	o := NewOptimizer(testConfig(), defaultVehicle)
	_, err := o.Process(speed.NewConstantSpeed(10, 5, 0.1), straightRef(t, 100, 5), TrajectoryPoint{X: -50, V: 10}, obstacle.NewDecisionData(nil))
	assert.True(t, errors.Is(err, ErrProjection), "got %v", err)
}

func TestProcess_EmptySearchSpace(t *testing.T) {
	captureLogs(t)
	closed := refline.WithRoadBoundary(func(s float64) (float64, float64) {
		if s > 1 {
			return -1, -1
		}
		return 5, 5
	})
	o := NewOptimizer(testConfig(), defaultVehicle)
	_, err := o.Process(speed.NewConstantSpeed(10, 5, 0.1), straightRef(t, 100, 5, closed), TrajectoryPoint{V: 10}, obstacle.NewDecisionData(nil))
	assert.True(t, errors.Is(err, ErrEmptySearchSpace), "got %v", err)
}

func TestProcess_DegeneratePathFails(t *testing.T) {
	cases := []struct {
		name string
		cfg  func() Config
		init TrajectoryPoint
	}{
		{"init at line end", testConfig, TrajectoryPoint{X: 100 - 5e-7, V: 5}},
		{"zero resolution", func() Config {
			cfg := testConfig()
			cfg.PathResolution = 0
			return cfg
		}, TrajectoryPoint{V: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			captureLogs(t)
			parked := obstacle.New("parked", geometry.NewBox2d(geometry.Vec2{X: 50, Y: 0}, 0, 4, 2))
			o := NewOptimizer(tc.cfg(), defaultVehicle)

			res, err := o.Process(speed.NewConstantSpeed(1, 3, 0.1), straightRef(t, 100, 5), tc.init,
				obstacle.NewDecisionData([]*obstacle.Obstacle{parked}))
			assert.True(t, errors.Is(err, ErrEmptySearchSpace), "got %v", err)
			assert.Nil(t, res)
			assert.Empty(t, parked.Decisions())
		})
	}
}

func TestProcess_DecisionFailuresDoNotFailCycle(t *testing.T) {
	captureLogs(t)
	o := NewOptimizer(testConfig(), defaultVehicle)
	lost := obstacle.New("lost", geometry.NewBox2d(geometry.Vec2{X: -40, Y: 0}, 0, 4, 2))

	res, err := o.Process(speed.NewConstantSpeed(10, 5, 0.1), straightRef(t, 200, 5), TrajectoryPoint{V: 10},
		obstacle.NewDecisionData([]*obstacle.Obstacle{lost}))
	require.NoError(t, err)
	assert.Error(t, res.DecisionErr)
	assert.Empty(t, lost.Decisions())
}

func TestProcess_LogsBudgetOverrun(t *testing.T) {
	lc := captureLogs(t)
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	clock.Step = 250 * time.Millisecond
	o := NewOptimizer(testConfig(), defaultVehicle, WithClock(clock))

	res, err := o.Process(speed.NewConstantSpeed(10, 5, 0.1), straightRef(t, 200, 5), TrajectoryPoint{V: 10}, obstacle.NewDecisionData(nil))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, res.Elapsed)
	assert.True(t, lc.contains("over budget"))
}
