// Package vehicle describes the ego vehicle dimensions the planner needs to
// build footprints. The parameters are passed explicitly to every component
// that needs them; there is no process-wide vehicle singleton.
package vehicle

import (
	"github.com/banshee-data/pathtunnel/internal/config"
	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
)

// Param holds the ego vehicle's footprint dimensions in metres.
type Param struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`

	// UseLengthAsWidth makes footprints square (Length × Length). This is
	// the legacy footprint the decision thresholds were tuned against.
	UseLengthAsWidth bool `json:"use_length_as_width"`
}

// ParamFromTuning builds a Param from a loaded TuningConfig.
func ParamFromTuning(cfg *config.TuningConfig) Param {
	return Param{
		Length:           cfg.GetVehicleLength(),
		Width:            cfg.GetVehicleWidth(),
		UseLengthAsWidth: cfg.GetUseLengthAsWidth(),
	}
}

// FootprintWidth returns the width used for ego footprints.
func (p Param) FootprintWidth() float64 {
	if p.UseLengthAsWidth {
		return p.Length
	}
	return p.Width
}

// Footprint returns the ego bounding box centred at center with the given
// heading.
func (p Param) Footprint(center geometry.Vec2, heading float64) geometry.Box2d {
	return geometry.NewBox2d(center, heading, p.Length, p.FootprintWidth())
}
