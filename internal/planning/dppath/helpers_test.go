package dppath

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pathtunnel/internal/monitoring"
	"github.com/banshee-data/pathtunnel/internal/planning/curve"
	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
)

// testConfig mirrors config/tuning.defaults.json with a coarser decision
// interval so scenarios stay short.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EvalTimeInterval = 0.5
	cfg.DynamicDecisionFollowRange = 1.5
	return cfg
}

func straightRef(t *testing.T, length, halfWidth float64, opts ...refline.PolylineOption) *refline.Polyline {
	t.Helper()
	ref, err := refline.NewPolyline(orb.LineString{{0, 0}, {length, 0}}, halfWidth, halfWidth, opts...)
	require.NoError(t, err)
	return ref
}

// chain builds a backtracked node sequence through pts with flat boundary
// conditions at every node.
func chain(pts ...frenet.SLPoint) []graphNode {
	nodes := []graphNode{{point: pts[0], prev: noPredecessor}}
	for i := 1; i < len(pts); i++ {
		q, p := pts[i-1], pts[i]
		nodes = append(nodes, graphNode{
			point: p,
			prev:  nodeRef{level: i - 1, index: 0},
			curve: curve.NewQuinticPolynomial(q.L, 0, 0, p.L, 0, 0, p.S-q.S),
		})
	}
	return nodes
}

// edgeKey identifies a lattice edge by its start s and rounded end offsets.
func edgeKey(c *curve.QuinticPolynomial, startS float64) string {
	round := func(v float64) float64 {
		r := math.Round(v*1000) / 1000
		if r == 0 {
			return 0 // drop negative zero
		}
		return r
	}
	return fmt.Sprintf("%.3f|%.3f|%.3f", startS, round(c.Evaluate(0, 0)), round(c.Evaluate(0, c.ParamLength())))
}

// tableCost looks up edge costs by edgeKey and fails the test on an
// unexpected edge.
func tableCost(t *testing.T, table map[string]float64) CostModel {
	return CostModelFunc(func(c *curve.QuinticPolynomial, startS, _ float64) float64 {
		key := edgeKey(c, startS)
		v, ok := table[key]
		if !ok {
			t.Errorf("unexpected edge %s", key)
		}
		return v
	})
}

// logCapture collects monitoring output for the duration of a test.
type logCapture struct {
	mu    sync.Mutex
	lines []string
}

func captureLogs(t *testing.T) *logCapture {
	t.Helper()
	lc := &logCapture{}
	orig := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lc.mu.Lock()
		defer lc.mu.Unlock()
		lc.lines = append(lc.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = orig })
	return lc
}

func (lc *logCapture) contains(substr string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	for _, l := range lc.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
