package modulation

import (
	"fmt"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/smooth"
)

// Modulation rows consumed by the effects.
const (
	PhaserChannel = 0
	ChorusChannel = 1
)

const (
	defaultPhaserCenterHz            = -800.0
	defaultPhaserDepthScaleHz        = 100000.0
	defaultChorusCenterSeconds       = 0.0001
	defaultChorusDepthScaleSeconds   = 0.0001
	defaultModulatorSmoothingSeconds = 0.02
	defaultPhaserDepth               = 0.03
	defaultChorusDepth               = 3.0
)

// DepthModulatorOption mutates depth modulator construction parameters.
type DepthModulatorOption func(*depthModulatorConfig) error

type depthModulatorConfig struct {
	phaserCenterHz      float64
	phaserScaleHz       float64
	chorusCenterSeconds float64
	chorusScaleSeconds  float64
	smoothingSeconds    float64
	phaserDepth         float64
	chorusDepth         float64
}

func defaultDepthModulatorConfig() depthModulatorConfig {
	return depthModulatorConfig{
		phaserCenterHz:      defaultPhaserCenterHz,
		phaserScaleHz:       defaultPhaserDepthScaleHz,
		chorusCenterSeconds: defaultChorusCenterSeconds,
		chorusScaleSeconds:  defaultChorusDepthScaleSeconds,
		smoothingSeconds:    defaultModulatorSmoothingSeconds,
		phaserDepth:         defaultPhaserDepth,
		chorusDepth:         defaultChorusDepth,
	}
}

// WithPhaserCenterHz sets the break-frequency offset produced at zero depth.
func WithPhaserCenterHz(hz float64) DepthModulatorOption {
	return func(cfg *depthModulatorConfig) error {
		if !core.IsFinite(hz) {
			return fmt.Errorf("%w: phaser center must be finite: %f", core.ErrInvalidParameter, hz)
		}
		cfg.phaserCenterHz = hz
		return nil
	}
}

// WithPhaserDepthScaleHz sets how many Hz of sweep one unit of phaser depth
// produces.
func WithPhaserDepthScaleHz(hz float64) DepthModulatorOption {
	return func(cfg *depthModulatorConfig) error {
		if hz <= 0 || !core.IsFinite(hz) {
			return fmt.Errorf("%w: phaser depth scale must be > 0 and finite: %f", core.ErrInvalidParameter, hz)
		}
		cfg.phaserScaleHz = hz
		return nil
	}
}

// WithChorusCenterSeconds sets the delay time produced at zero depth.
func WithChorusCenterSeconds(seconds float64) DepthModulatorOption {
	return func(cfg *depthModulatorConfig) error {
		if seconds < 0 || !core.IsFinite(seconds) {
			return fmt.Errorf("%w: chorus center must be >= 0 and finite: %f", core.ErrInvalidParameter, seconds)
		}
		cfg.chorusCenterSeconds = seconds
		return nil
	}
}

// WithChorusDepthScaleSeconds sets how many seconds of delay sweep one unit
// of chorus depth produces.
func WithChorusDepthScaleSeconds(seconds float64) DepthModulatorOption {
	return func(cfg *depthModulatorConfig) error {
		if seconds <= 0 || !core.IsFinite(seconds) {
			return fmt.Errorf("%w: chorus depth scale must be > 0 and finite: %f", core.ErrInvalidParameter, seconds)
		}
		cfg.chorusScaleSeconds = seconds
		return nil
	}
}

// WithModulatorSmoothingSeconds sets the glide time of depth changes.
func WithModulatorSmoothingSeconds(seconds float64) DepthModulatorOption {
	return func(cfg *depthModulatorConfig) error {
		if seconds < 0 || !core.IsFinite(seconds) {
			return fmt.Errorf("%w: depth smoothing must be >= 0 and finite: %f", core.ErrInvalidParameter, seconds)
		}
		cfg.smoothingSeconds = seconds
		return nil
	}
}

// WithInitialDepths sets the depths in effect before the first setter call.
func WithInitialDepths(phaser, chorus float64) DepthModulatorOption {
	return func(cfg *depthModulatorConfig) error {
		if err := validateDepth("phaser", phaser); err != nil {
			return err
		}
		if err := validateDepth("chorus", chorus); err != nil {
			return err
		}
		cfg.phaserDepth = phaser
		cfg.chorusDepth = chorus
		return nil
	}
}

func validateDepth(name string, v float64) error {
	if v < 0 || !core.IsFinite(v) {
		return fmt.Errorf("%w: %s depth must be >= 0 and finite: %f", core.ErrInvalidParameter, name, v)
	}
	return nil
}

// DepthModulator rescales bipolar LFO rows into physical modulation values:
//
//	out = center + (x+1)*0.5 * depth*scale
//
// Row PhaserChannel becomes a break-frequency offset in Hz, row
// ChorusChannel a delay time in seconds. The output is not clamped; run
// ClampRow with the consumer's valid range before use.
type DepthModulator struct {
	phaserCenterHz      float64
	phaserScaleHz       float64
	chorusCenterSeconds float64
	chorusScaleSeconds  float64
	smoothingSeconds    float64

	phaserDepth *smooth.Linear
	chorusDepth *smooth.Linear
}

// NewDepthModulator creates a modulator with the pedal's default depths.
func NewDepthModulator(opts ...DepthModulatorOption) (*DepthModulator, error) {
	cfg := defaultDepthModulatorConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	m := &DepthModulator{
		phaserCenterHz:      cfg.phaserCenterHz,
		phaserScaleHz:       cfg.phaserScaleHz,
		chorusCenterSeconds: cfg.chorusCenterSeconds,
		chorusScaleSeconds:  cfg.chorusScaleSeconds,
		smoothingSeconds:    cfg.smoothingSeconds,
		phaserDepth:         smooth.NewLinear(cfg.phaserDepth),
		chorusDepth:         smooth.NewLinear(cfg.chorusDepth),
	}

	return m, nil
}

// Prepare sets the smoothing ramp length for sampleRate and snaps both
// depths onto their targets.
func (m *DepthModulator) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: modulator sample rate must be > 0 and finite: %f", core.ErrInvalidParameter, sampleRate)
	}

	m.phaserDepth.Reset(sampleRate, m.smoothingSeconds)
	m.chorusDepth.Reset(sampleRate, m.smoothingSeconds)

	return nil
}

// SetPhaserDepth publishes a new phaser depth. Safe for concurrent use with Process.
func (m *DepthModulator) SetPhaserDepth(v float64) error {
	if err := validateDepth("phaser", v); err != nil {
		return err
	}
	m.phaserDepth.SetTarget(v)
	return nil
}

// SetChorusDepth publishes a new chorus depth. Safe for concurrent use with Process.
func (m *DepthModulator) SetChorusDepth(v float64) error {
	if err := validateDepth("chorus", v); err != nil {
		return err
	}
	m.chorusDepth.SetTarget(v)
	return nil
}

// PhaserDepth returns the target phaser depth.
func (m *DepthModulator) PhaserDepth() float64 { return m.phaserDepth.Target() }

// ChorusDepth returns the target chorus depth.
func (m *DepthModulator) ChorusDepth() float64 { return m.chorusDepth.Target() }

// PhaserSpanHz returns the [lo, hi] offsets produced at the target depth.
func (m *DepthModulator) PhaserSpanHz() (lo, hi float64) {
	return m.phaserCenterHz, m.phaserCenterHz + m.PhaserDepth()*m.phaserScaleHz
}

// ChorusSpanSeconds returns the [lo, hi] delay times produced at the target depth.
func (m *DepthModulator) ChorusSpanSeconds() (lo, hi float64) {
	return m.chorusCenterSeconds, m.chorusCenterSeconds + m.ChorusDepth()*m.chorusScaleSeconds
}

// Process rewrites mod[PhaserChannel][:n] and mod[ChorusChannel][:n] in
// place from LFO values in [-1, 1] to modulation values.
func (m *DepthModulator) Process(mod [][]float64, n int) {
	scaleRow(mod[PhaserChannel][:n], m.phaserDepth, m.phaserCenterHz, m.phaserScaleHz)
	scaleRow(mod[ChorusChannel][:n], m.chorusDepth, m.chorusCenterSeconds, m.chorusScaleSeconds)
}

func scaleRow(row []float64, depth *smooth.Linear, center, scale float64) {
	if !depth.IsSmoothing() {
		g := depth.Current() * scale
		for i, x := range row {
			row[i] = center + (x+1)*0.5*g
		}
		return
	}

	for i, x := range row {
		g := depth.Next() * scale
		row[i] = center + (x+1)*0.5*g
	}
}

// ClampRow limits every value of row to [lo, hi].
func ClampRow(row []float64, lo, hi float64) {
	for i, v := range row {
		row[i] = core.Clamp(v, lo, hi)
	}
}
