package sqlite

import (
	"encoding/json"

	"github.com/banshee-data/pathtunnel/internal/planning/dppath"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/version"
)

// Cycle status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// CycleRecord is one persisted planning cycle.
type CycleRecord struct {
	CycleID      string          `json:"cycle_id"`
	CreatedAt    int64           `json:"created_at"`
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	TotalCost    float64         `json:"total_cost"`
	ElapsedNanos int64           `json:"elapsed_ns"`
	PathLength   float64         `json:"path_length"`
	LevelCount   int             `json:"level_count"`
	Version      string          `json:"version"`
	GitSHA       string          `json:"git_sha"`
	LatticeJSON  json.RawMessage `json:"lattice,omitempty"`

	Points    []PathPointRecord `json:"points,omitempty"`
	Decisions []DecisionRecord  `json:"decisions,omitempty"`
}

// PathPointRecord is one resolved path sample, in both frames.
type PathPointRecord struct {
	S      float64 `json:"s"`
	L      float64 `json:"l"`
	DL     float64 `json:"dl"`
	DDL    float64 `json:"ddl"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Theta  float64 `json:"theta"`
	Kappa  float64 `json:"kappa"`
	DKappa float64 `json:"dkappa"`
	ArcS   float64 `json:"arc_s"`
}

// DecisionRecord is one decision attached to an obstacle during a cycle.
type DecisionRecord struct {
	ObstacleID  string  `json:"obstacle_id"`
	Seq         int     `json:"seq"`
	Kind        string  `json:"kind"`
	Distance    float64 `json:"distance"`
	Description string  `json:"description"`
}

// RecordFromResult builds the record for one cycle. res may be nil when
// planErr is set; decisions are read from obstacles either way.
func RecordFromResult(res *dppath.Result, obstacles []*obstacle.Obstacle, planErr error) *CycleRecord {
	c := &CycleRecord{
		Status:  StatusOK,
		Version: version.Version,
		GitSHA:  version.GitSHA,
	}
	if planErr != nil {
		c.Status = StatusFailed
		c.Error = planErr.Error()
	}

	if res != nil {
		c.TotalCost = res.TotalCost
		c.ElapsedNanos = res.Elapsed.Nanoseconds()
		c.PathLength = res.Path.Length()
		if len(res.MinCostPath) > 0 {
			c.LevelCount = len(res.MinCostPath) - 1
		}
		if res.DecisionErr != nil {
			c.Error = res.DecisionErr.Error()
		}
		if b, err := json.Marshal(res.Lattice); err == nil {
			c.LatticeJSON = b
		}

		fp := res.Path.FrenetPath
		for i, p := range res.Path.DiscretizedPath {
			rec := PathPointRecord{
				X: p.X, Y: p.Y, Theta: p.Theta, Kappa: p.Kappa, DKappa: p.DKappa, ArcS: p.S,
			}
			if i < len(fp) {
				rec.S, rec.L, rec.DL, rec.DDL = fp[i].S, fp[i].L, fp[i].DL, fp[i].DDL
			}
			c.Points = append(c.Points, rec)
		}
	}

	for _, o := range obstacles {
		for i, d := range o.Decisions() {
			c.Decisions = append(c.Decisions, DecisionRecord{
				ObstacleID:  o.ID,
				Seq:         i,
				Kind:        d.Kind().String(),
				Distance:    obstacle.Distance(d),
				Description: obstacle.Describe(d),
			})
		}
	}
	return c
}
