package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for planner tuning
// parameters. Every field is optional; the Get* accessors fall back to the
// built-in defaults for anything the file leaves out.
type TuningConfig struct {
	// Lateral sampler params
	StepLengthMin            *float64 `json:"step_length_min,omitempty"`
	StepLengthMax            *float64 `json:"step_length_max,omitempty"`
	SampleLevel              *int     `json:"sample_level,omitempty"`
	SamplePointsNumEachLevel *int     `json:"sample_points_num_each_level,omitempty"`
	LateralSampleOffset      *float64 `json:"lateral_sample_offset,omitempty"`

	// Path reconstruction and dynamic evaluation params
	PathResolution      *float64 `json:"path_resolution,omitempty"`
	EvalTimeInterval    *float64 `json:"eval_time_interval,omitempty"`
	PredictionTotalTime *float64 `json:"prediction_total_time,omitempty"`

	// Decision params
	StaticDecisionStopBuffer   *float64 `json:"static_decision_stop_buffer,omitempty"`
	StaticDecisionIgnoreRange  *float64 `json:"static_decision_ignore_range,omitempty"`
	DynamicDecisionFollowRange *float64 `json:"dynamic_decision_follow_range,omitempty"`
	DPPathDecisionBuffer       *float64 `json:"dp_path_decision_buffer,omitempty"`

	// Trajectory cost params
	PathLCost                 *float64 `json:"path_l_cost,omitempty"`
	PathDLCost                *float64 `json:"path_dl_cost,omitempty"`
	PathDDLCost               *float64 `json:"path_ddl_cost,omitempty"`
	ObstacleCollisionCost     *float64 `json:"obstacle_collision_cost,omitempty"`
	ObstacleCollisionDistance *float64 `json:"obstacle_collision_distance,omitempty"`

	// Vehicle params
	VehicleLength    *float64 `json:"vehicle_length,omitempty"`
	VehicleWidth     *float64 `json:"vehicle_width,omitempty"`
	UseLengthAsWidth *bool    `json:"use_length_as_width,omitempty"`

	// Cycle timing
	CycleBudget *string `json:"cycle_budget,omitempty"` // duration string like "100ms"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/planning/dppath/
		"../../../../" + DefaultConfigPath,    // from internal/planning/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.StepLengthMin != nil && *c.StepLengthMin <= 0 {
		return fmt.Errorf("step_length_min must be positive, got %f", *c.StepLengthMin)
	}
	if c.GetStepLengthMax() < c.GetStepLengthMin() {
		return fmt.Errorf("step_length_max (%f) must be >= step_length_min (%f)",
			c.GetStepLengthMax(), c.GetStepLengthMin())
	}
	if c.SampleLevel != nil && *c.SampleLevel < 0 {
		return fmt.Errorf("sample_level must be non-negative, got %d", *c.SampleLevel)
	}
	if c.SamplePointsNumEachLevel != nil && *c.SamplePointsNumEachLevel < 1 {
		return fmt.Errorf("sample_points_num_each_level must be at least 1, got %d", *c.SamplePointsNumEachLevel)
	}
	if c.LateralSampleOffset != nil && *c.LateralSampleOffset < 0 {
		return fmt.Errorf("lateral_sample_offset must be non-negative, got %f", *c.LateralSampleOffset)
	}
	if c.PathResolution != nil && *c.PathResolution <= 0 {
		return fmt.Errorf("path_resolution must be positive, got %f", *c.PathResolution)
	}
	if c.EvalTimeInterval != nil && *c.EvalTimeInterval <= 0 {
		return fmt.Errorf("eval_time_interval must be positive, got %f", *c.EvalTimeInterval)
	}
	if c.PredictionTotalTime != nil && *c.PredictionTotalTime < 0 {
		return fmt.Errorf("prediction_total_time must be non-negative, got %f", *c.PredictionTotalTime)
	}
	if c.VehicleLength != nil && *c.VehicleLength <= 0 {
		return fmt.Errorf("vehicle_length must be positive, got %f", *c.VehicleLength)
	}
	if c.VehicleWidth != nil && *c.VehicleWidth <= 0 {
		return fmt.Errorf("vehicle_width must be positive, got %f", *c.VehicleWidth)
	}
	for name, v := range map[string]*float64{
		"path_l_cost":                 c.PathLCost,
		"path_dl_cost":                c.PathDLCost,
		"path_ddl_cost":               c.PathDDLCost,
		"obstacle_collision_cost":     c.ObstacleCollisionCost,
		"obstacle_collision_distance": c.ObstacleCollisionDistance,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}
	if c.CycleBudget != nil && *c.CycleBudget != "" {
		if _, err := time.ParseDuration(*c.CycleBudget); err != nil {
			return fmt.Errorf("invalid cycle_budget '%s': %w", *c.CycleBudget, err)
		}
	}
	return nil
}

// GetStepLengthMin returns the step_length_min value or the default.
func (c *TuningConfig) GetStepLengthMin() float64 {
	if c.StepLengthMin == nil {
		return 8.0
	}
	return *c.StepLengthMin
}

// GetStepLengthMax returns the step_length_max value or the default.
func (c *TuningConfig) GetStepLengthMax() float64 {
	if c.StepLengthMax == nil {
		return 15.0
	}
	return *c.StepLengthMax
}

// GetSampleLevel returns the sample_level value or the default.
func (c *TuningConfig) GetSampleLevel() int {
	if c.SampleLevel == nil {
		return 8
	}
	return *c.SampleLevel
}

// GetSamplePointsNumEachLevel returns the sample_points_num_each_level value or the default.
func (c *TuningConfig) GetSamplePointsNumEachLevel() int {
	if c.SamplePointsNumEachLevel == nil {
		return 9
	}
	return *c.SamplePointsNumEachLevel
}

// GetLateralSampleOffset returns the lateral_sample_offset value or the default.
func (c *TuningConfig) GetLateralSampleOffset() float64 {
	if c.LateralSampleOffset == nil {
		return 0.5
	}
	return *c.LateralSampleOffset
}

// GetPathResolution returns the path_resolution value or the default.
func (c *TuningConfig) GetPathResolution() float64 {
	if c.PathResolution == nil {
		return 0.1
	}
	return *c.PathResolution
}

// GetEvalTimeInterval returns the eval_time_interval value or the default.
func (c *TuningConfig) GetEvalTimeInterval() float64 {
	if c.EvalTimeInterval == nil {
		return 0.1
	}
	return *c.EvalTimeInterval
}

// GetPredictionTotalTime returns the prediction_total_time value or the default.
func (c *TuningConfig) GetPredictionTotalTime() float64 {
	if c.PredictionTotalTime == nil {
		return 5.0
	}
	return *c.PredictionTotalTime
}

// GetStaticDecisionStopBuffer returns the static_decision_stop_buffer value or the default.
func (c *TuningConfig) GetStaticDecisionStopBuffer() float64 {
	if c.StaticDecisionStopBuffer == nil {
		return 0.5
	}
	return *c.StaticDecisionStopBuffer
}

// GetStaticDecisionIgnoreRange returns the static_decision_ignore_range value or the default.
func (c *TuningConfig) GetStaticDecisionIgnoreRange() float64 {
	if c.StaticDecisionIgnoreRange == nil {
		return 3.0
	}
	return *c.StaticDecisionIgnoreRange
}

// GetDynamicDecisionFollowRange returns the dynamic_decision_follow_range value or the default.
func (c *TuningConfig) GetDynamicDecisionFollowRange() float64 {
	if c.DynamicDecisionFollowRange == nil {
		return 1.0
	}
	return *c.DynamicDecisionFollowRange
}

// GetDPPathDecisionBuffer returns the dp_path_decision_buffer value or the default.
func (c *TuningConfig) GetDPPathDecisionBuffer() float64 {
	if c.DPPathDecisionBuffer == nil {
		return 0.5
	}
	return *c.DPPathDecisionBuffer
}

// GetPathLCost returns the path_l_cost value or the default.
func (c *TuningConfig) GetPathLCost() float64 {
	if c.PathLCost == nil {
		return 6.5
	}
	return *c.PathLCost
}

// GetPathDLCost returns the path_dl_cost value or the default.
func (c *TuningConfig) GetPathDLCost() float64 {
	if c.PathDLCost == nil {
		return 8000
	}
	return *c.PathDLCost
}

// GetPathDDLCost returns the path_ddl_cost value or the default.
func (c *TuningConfig) GetPathDDLCost() float64 {
	if c.PathDDLCost == nil {
		return 50
	}
	return *c.PathDDLCost
}

// GetObstacleCollisionCost returns the obstacle_collision_cost value or the default.
func (c *TuningConfig) GetObstacleCollisionCost() float64 {
	if c.ObstacleCollisionCost == nil {
		return 1e6
	}
	return *c.ObstacleCollisionCost
}

// GetObstacleCollisionDistance returns the obstacle_collision_distance value or the default.
func (c *TuningConfig) GetObstacleCollisionDistance() float64 {
	if c.ObstacleCollisionDistance == nil {
		return 0.5
	}
	return *c.ObstacleCollisionDistance
}

// GetVehicleLength returns the vehicle_length value or the default.
func (c *TuningConfig) GetVehicleLength() float64 {
	if c.VehicleLength == nil {
		return 4.933
	}
	return *c.VehicleLength
}

// GetVehicleWidth returns the vehicle_width value or the default.
func (c *TuningConfig) GetVehicleWidth() float64 {
	if c.VehicleWidth == nil {
		return 2.11
	}
	return *c.VehicleWidth
}

// GetUseLengthAsWidth returns the use_length_as_width value or the default.
func (c *TuningConfig) GetUseLengthAsWidth() bool {
	if c.UseLengthAsWidth == nil {
		return true
	}
	return *c.UseLengthAsWidth
}

// GetCycleBudget parses and returns the CycleBudget as a time.Duration.
func (c *TuningConfig) GetCycleBudget() time.Duration {
	if c.CycleBudget == nil || *c.CycleBudget == "" {
		return 100 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.CycleBudget)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}
