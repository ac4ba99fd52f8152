package dppath

import (
	"time"

	"github.com/banshee-data/pathtunnel/internal/config"
	"github.com/banshee-data/pathtunnel/internal/planning/cost"
)

// Config holds the tuning parameters for one optimizer.
type Config struct {
	// Sampling
	StepLengthMin            float64 // Minimum s distance between levels (metres)
	StepLengthMax            float64 // Maximum s distance between levels (metres)
	SampleLevel              int     // Maximum number of levels after the start
	SamplePointsNumEachLevel int     // Lateral candidates per level (odd count recommended)
	LateralSampleOffset      float64 // Lateral spacing between candidates (metres)

	// Reconstruction
	PathResolution float64 // s step of the dense path (metres)

	// Decisions
	EvalTimeInterval           float64 // Dynamic pass time step (seconds)
	PredictionTotalTime        float64 // Dynamic pass horizon cap (seconds)
	StaticDecisionStopBuffer   float64 // |l| of a stop-worthy static obstacle (metres)
	StaticDecisionIgnoreRange  float64 // Lateral gap beyond which static obstacles are ignored (metres)
	DynamicDecisionFollowRange float64 // Box distance that triggers Follow (metres)
	DecisionBuffer             float64 // Buffer distance carried by emitted decisions (metres)

	// CycleBudget is the soft latency target; overruns are logged only.
	CycleBudget time.Duration

	Cost cost.Config
}

// DefaultConfig returns configuration loaded from the canonical tuning
// defaults file (config/tuning.defaults.json).
// Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		StepLengthMin:              cfg.GetStepLengthMin(),
		StepLengthMax:              cfg.GetStepLengthMax(),
		SampleLevel:                cfg.GetSampleLevel(),
		SamplePointsNumEachLevel:   cfg.GetSamplePointsNumEachLevel(),
		LateralSampleOffset:        cfg.GetLateralSampleOffset(),
		PathResolution:             cfg.GetPathResolution(),
		EvalTimeInterval:           cfg.GetEvalTimeInterval(),
		PredictionTotalTime:        cfg.GetPredictionTotalTime(),
		StaticDecisionStopBuffer:   cfg.GetStaticDecisionStopBuffer(),
		StaticDecisionIgnoreRange:  cfg.GetStaticDecisionIgnoreRange(),
		DynamicDecisionFollowRange: cfg.GetDynamicDecisionFollowRange(),
		DecisionBuffer:             cfg.GetDPPathDecisionBuffer(),
		CycleBudget:                cfg.GetCycleBudget(),
		Cost:                       cost.ConfigFromTuning(cfg),
	}
}
