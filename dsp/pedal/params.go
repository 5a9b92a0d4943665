package pedal

import (
	"fmt"
	"math"

	"github.com/cwbudde/stonemistress/dsp/core"
)

// ParamSpec describes one user-facing control of the pedal.
type ParamSpec struct {
	ID      string
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Step    float64
	Default float64
}

// The pedal's controls.
var (
	RateParam        = ParamSpec{ID: "RT", Name: "Rate", Unit: "Hz", Min: 0.067, Max: 20, Step: 0.001, Default: 11}
	PhaserDepthParam = ParamSpec{ID: "PD", Name: "Phaser Depth", Min: 0, Max: 0.1, Step: 0.001, Default: 0.03}
	ChorusDepthParam = ParamSpec{ID: "CD", Name: "Chorus Depth", Min: 0, Max: 15, Step: 1, Default: 3}
	ColorParam       = ParamSpec{ID: "CLR", Name: "Color", Min: 0, Max: 1, Step: 1, Default: 0}
)

// Params returns every control in display order.
func Params() []ParamSpec {
	return []ParamSpec{RateParam, PhaserDepthParam, ChorusDepthParam, ColorParam}
}

// Validate reports whether v lies in [Min, Max].
func (p ParamSpec) Validate(v float64) error {
	if math.IsNaN(v) || v < p.Min || v > p.Max {
		return fmt.Errorf("%w: %s must be in [%g, %g]: %g", core.ErrInvalidParameter, p.Name, p.Min, p.Max, v)
	}
	return nil
}

// Snap clamps v to the range and rounds it to the nearest Step.
func (p ParamSpec) Snap(v float64) float64 {
	v = core.Clamp(v, p.Min, p.Max)
	if p.Step > 0 {
		v = p.Min + math.Round((v-p.Min)/p.Step)*p.Step
	}
	return core.Clamp(v, p.Min, p.Max)
}

// FromNormalized maps x in [0, 1] linearly onto the range and snaps it.
func (p ParamSpec) FromNormalized(x float64) float64 {
	return p.Snap(p.Min + core.Clamp(x, 0, 1)*(p.Max-p.Min))
}

// ToNormalized maps v onto [0, 1].
func (p ParamSpec) ToNormalized(v float64) float64 {
	if p.Max == p.Min {
		return 0
	}
	return core.Clamp((v-p.Min)/(p.Max-p.Min), 0, 1)
}
