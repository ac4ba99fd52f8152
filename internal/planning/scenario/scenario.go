// Package scenario loads a single planning cycle's inputs from a JSON or
// YAML file: the reference line, the vehicle's initial state, the speed
// profile and the obstacles around it.
//
// Speeds in a scenario file are stated in SpeedUnit (see internal/units) and
// converted to metres per second by Build.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/pathtunnel/internal/planning/dppath"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/refline"
	"github.com/banshee-data/pathtunnel/internal/planning/speed"
	"github.com/banshee-data/pathtunnel/internal/units"
)

const maxFileSize = 4 * 1024 * 1024

// Scenario is the on-disk description of one planning cycle.
type Scenario struct {
	Name          string         `json:"name" yaml:"name"`
	SpeedUnit     string         `json:"speed_unit" yaml:"speed_unit"`
	ReferenceLine ReferenceLine  `json:"reference_line" yaml:"reference_line"`
	InitPoint     InitPoint      `json:"init_point" yaml:"init_point"`
	SpeedProfile  SpeedProfile   `json:"speed_profile" yaml:"speed_profile"`
	Obstacles     []ObstacleSpec `json:"obstacles" yaml:"obstacles"`
}

// ReferenceLine is a centreline polyline with constant drivable half widths.
type ReferenceLine struct {
	Points     [][2]float64 `json:"points" yaml:"points"`
	LeftWidth  float64      `json:"left_width" yaml:"left_width"`
	RightWidth float64      `json:"right_width" yaml:"right_width"`
}

// InitPoint is the vehicle state at the start of the cycle.
type InitPoint struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Theta float64 `json:"theta" yaml:"theta"`
	Kappa float64 `json:"kappa" yaml:"kappa"`
	Speed float64 `json:"speed" yaml:"speed"`
}

// SpeedProfile is either an explicit list of samples (already in m/s) or a
// constant Speed held for Duration seconds, sampled every Dt seconds.
type SpeedProfile struct {
	Speed    float64            `json:"speed" yaml:"speed"`
	Duration float64            `json:"duration" yaml:"duration"`
	Dt       float64            `json:"dt" yaml:"dt"`
	Points   []speed.SpeedPoint `json:"points,omitempty" yaml:"points,omitempty"`
}

// ObstacleSpec describes one obstacle. An obstacle with a trajectory, or
// with Dynamic set, gets a prediction; otherwise it is static.
type ObstacleSpec struct {
	ID         string                     `json:"id" yaml:"id"`
	X          float64                    `json:"x" yaml:"x"`
	Y          float64                    `json:"y" yaml:"y"`
	Heading    float64                    `json:"heading" yaml:"heading"`
	Length     float64                    `json:"length" yaml:"length"`
	Width      float64                    `json:"width" yaml:"width"`
	Dynamic    bool                       `json:"dynamic" yaml:"dynamic"`
	Speed      float64                    `json:"speed" yaml:"speed"`
	Horizon    float64                    `json:"horizon" yaml:"horizon"`
	Trajectory []obstacle.TrajectoryPoint `json:"trajectory,omitempty" yaml:"trajectory,omitempty"`
}

// Inputs are the concrete arguments for one Optimizer.Process call.
type Inputs struct {
	Name      string
	Reference *refline.Polyline
	Init      dppath.TrajectoryPoint
	Speed     *speed.SpeedData
	Obstacles []*obstacle.Obstacle
	Decisions *obstacle.DecisionData
}

// Load reads and validates a scenario file. JSON and YAML files are
// accepted, chosen by extension.
func Load(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("scenario file must have .json, .yaml or .yml extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc Scenario
	if ext == ".json" {
		err = json.Unmarshal(data, &sc)
	} else {
		err = yaml.Unmarshal(data, &sc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", ext, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", cleanPath, err)
	}
	return &sc, nil
}

// Validate checks the scenario for values Build cannot use.
func (sc *Scenario) Validate() error {
	if !units.IsValid(sc.SpeedUnit) {
		return fmt.Errorf("invalid speed_unit %q", sc.SpeedUnit)
	}
	if len(sc.ReferenceLine.Points) < 2 {
		return fmt.Errorf("reference_line needs at least 2 points, got %d", len(sc.ReferenceLine.Points))
	}
	if sc.ReferenceLine.LeftWidth < 0 || sc.ReferenceLine.RightWidth < 0 {
		return fmt.Errorf("reference_line widths must be non-negative")
	}
	if sc.InitPoint.Speed < 0 {
		return fmt.Errorf("init_point speed must be non-negative, got %f", sc.InitPoint.Speed)
	}
	sp := sc.SpeedProfile
	if len(sp.Points) == 0 && (sp.Duration <= 0 || sp.Dt <= 0) {
		return fmt.Errorf("speed_profile needs points or a positive duration and dt")
	}

	seen := make(map[string]bool)
	for i, o := range sc.Obstacles {
		if o.Length <= 0 || o.Width <= 0 {
			return fmt.Errorf("obstacle %d: length and width must be positive", i)
		}
		if o.ID != "" {
			if seen[o.ID] {
				return fmt.Errorf("obstacle %d: duplicate id %q", i, o.ID)
			}
			seen[o.ID] = true
		}
		if o.Horizon < 0 {
			return fmt.Errorf("obstacle %d: horizon must be non-negative", i)
		}
	}
	return nil
}

// Build converts the scenario into planner inputs.
func (sc *Scenario) Build() (*Inputs, error) {
	line := orb.LineString(lo.Map(sc.ReferenceLine.Points, func(p [2]float64, _ int) orb.Point {
		return orb.Point{p[0], p[1]}
	}))
	ref, err := refline.NewPolyline(line, sc.ReferenceLine.LeftWidth, sc.ReferenceLine.RightWidth)
	if err != nil {
		return nil, fmt.Errorf("reference line: %w", err)
	}

	v0, err := units.ToMPS(sc.InitPoint.Speed, sc.SpeedUnit)
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		Name:      sc.Name,
		Reference: ref,
		Init: dppath.TrajectoryPoint{
			X:     sc.InitPoint.X,
			Y:     sc.InitPoint.Y,
			Theta: sc.InitPoint.Theta,
			Kappa: sc.InitPoint.Kappa,
			V:     v0,
		},
	}

	if sp := sc.SpeedProfile; len(sp.Points) > 0 {
		in.Speed = speed.NewSpeedData(sp.Points)
	} else {
		v, err := units.ToMPS(sp.Speed, sc.SpeedUnit)
		if err != nil {
			return nil, err
		}
		in.Speed = speed.NewConstantSpeed(v, sp.Duration, sp.Dt)
	}

	for i, def := range sc.Obstacles {
		o, err := def.build(sc.SpeedUnit)
		if err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		in.Obstacles = append(in.Obstacles, o)
	}
	in.Decisions = obstacle.NewDecisionData(in.Obstacles)
	return in, nil
}

func (def ObstacleSpec) build(unit string) (*obstacle.Obstacle, error) {
	box := geometry.NewBox2d(geometry.Vec2{X: def.X, Y: def.Y}, def.Heading, def.Length, def.Width)
	switch {
	case len(def.Trajectory) > 0:
		tr, err := obstacle.NewTrajectory(def.Length, def.Width, def.Trajectory)
		if err != nil {
			return nil, err
		}
		return obstacle.NewDynamic(def.ID, box, tr), nil
	case def.Dynamic:
		v, err := units.ToMPS(def.Speed, unit)
		if err != nil {
			return nil, err
		}
		return obstacle.NewDynamic(def.ID, box, obstacle.NewConstantVelocity(box, v, def.Horizon)), nil
	default:
		return obstacle.New(def.ID, box), nil
	}
}
