// Package mix recombines a captured dry signal with one or two wet signals.
//
// Two forms are kept apart on purpose because they are not equivalent:
//
//	Weighted:  out = dry*dryGain + (wet + wet2)*wetGain
//	SumScaled: out = (dry + wet + wet2)*level
//
// Gains glide linearly after a change. While no gain is moving the mix runs
// on whole-block vector kernels; during a glide the same kernels run with
// per-sample gain arrays, so both paths round identically.
package mix

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/smooth"
)

// Form selects the mixing formula.
type Form int

const (
	// Weighted sums independently scaled dry and wet paths.
	Weighted Form = iota
	// SumScaled adds dry and wet first and scales the sum.
	SumScaled
)

// String returns the form name.
func (f Form) String() string {
	switch f {
	case Weighted:
		return "weighted"
	case SumScaled:
		return "sum-scaled"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

const (
	defaultGain             = 0.5
	defaultSmoothingSeconds = 0.02
)

// Option mutates mixer construction parameters.
type Option func(*config) error

type config struct {
	form             Form
	dryGain          float64
	wetGain          float64
	level            float64
	smoothingSeconds float64
}

func defaultConfig() config {
	return config{
		form:             Weighted,
		dryGain:          defaultGain,
		wetGain:          defaultGain,
		level:            defaultGain,
		smoothingSeconds: defaultSmoothingSeconds,
	}
}

// WithForm selects the mixing formula.
func WithForm(f Form) Option {
	return func(cfg *config) error {
		if f != Weighted && f != SumScaled {
			return fmt.Errorf("%w: unknown mix form: %v", core.ErrInvalidParameter, f)
		}
		cfg.form = f
		return nil
	}
}

// WithDryGain sets the dry gain used by Weighted.
func WithDryGain(g float64) Option {
	return func(cfg *config) error {
		if err := validateGain("dry gain", g); err != nil {
			return err
		}
		cfg.dryGain = g
		return nil
	}
}

// WithWetGain sets the gain applied to each wet path by Weighted.
func WithWetGain(g float64) Option {
	return func(cfg *config) error {
		if err := validateGain("wet gain", g); err != nil {
			return err
		}
		cfg.wetGain = g
		return nil
	}
}

// WithLevel sets the output level used by SumScaled.
func WithLevel(g float64) Option {
	return func(cfg *config) error {
		if err := validateGain("level", g); err != nil {
			return err
		}
		cfg.level = g
		return nil
	}
}

// WithSmoothingSeconds sets the glide time of gain changes.
func WithSmoothingSeconds(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || !core.IsFinite(seconds) {
			return fmt.Errorf("%w: mix smoothing must be >= 0 and finite: %f", core.ErrInvalidParameter, seconds)
		}
		cfg.smoothingSeconds = seconds
		return nil
	}
}

func validateGain(name string, g float64) error {
	if g < 0 || !core.IsFinite(g) {
		return fmt.Errorf("%w: mix %s must be >= 0 and finite: %f", core.ErrInvalidParameter, name, g)
	}
	return nil
}

// DryWet holds one block of dry signal and mixes it back into wet buffers.
type DryWet struct {
	form             Form
	smoothingSeconds float64

	dryGain *smooth.Linear
	wetGain *smooth.Linear
	level   *smooth.Linear

	channels int
	maxBlock int
	dry      [][]float64

	// per-sample gains while a glide is running
	dryRamp []float64
	wetRamp []float64
}

// New creates a mixer. Prepare must be called before CopyDry.
func New(opts ...Option) (*DryWet, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &DryWet{
		form:             cfg.form,
		smoothingSeconds: cfg.smoothingSeconds,
		dryGain:          smooth.NewLinear(cfg.dryGain),
		wetGain:          smooth.NewLinear(cfg.wetGain),
		level:            smooth.NewLinear(cfg.level),
	}, nil
}

// Prepare allocates the dry copy for channels×maxBlockSize samples and snaps
// all gains onto their targets.
func (m *DryWet) Prepare(sampleRate float64, channels, maxBlockSize int) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: mix sample rate must be > 0 and finite: %f", core.ErrInvalidParameter, sampleRate)
	}
	if channels < 1 || channels > core.MaxChannels {
		return fmt.Errorf("%w: mix channels must be in [1, %d]: %d", core.ErrBufferSize, core.MaxChannels, channels)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("%w: mix max block size must be > 0: %d", core.ErrBufferSize, maxBlockSize)
	}

	m.channels = channels
	m.maxBlock = maxBlockSize
	m.dry = core.EnsureBlock(m.dry, channels, maxBlockSize)
	m.dryRamp = core.EnsureLen(m.dryRamp, maxBlockSize)
	m.wetRamp = core.EnsureLen(m.wetRamp, maxBlockSize)
	core.ZeroBlock(m.dry)

	m.dryGain.Reset(sampleRate, m.smoothingSeconds)
	m.wetGain.Reset(sampleRate, m.smoothingSeconds)
	m.level.Reset(sampleRate, m.smoothingSeconds)

	return nil
}

// Release drops the dry buffers. Mix and CopyDry become no-ops until the
// next Prepare. Calling it more than once is safe.
func (m *DryWet) Release() {
	m.dry = nil
	m.dryRamp = nil
	m.wetRamp = nil
	m.channels = 0
	m.maxBlock = 0
}

// Form returns the mixing formula.
func (m *DryWet) Form() Form { return m.form }

// MaxBlockSize returns the prepared block capacity, or 0 when released.
func (m *DryWet) MaxBlockSize() int { return m.maxBlock }

// SetDryGain publishes a new dry gain. Safe for concurrent use with Mix.
func (m *DryWet) SetDryGain(g float64) error {
	if err := validateGain("dry gain", g); err != nil {
		return err
	}
	m.dryGain.SetTarget(g)
	return nil
}

// SetWetGain publishes a new wet gain. Safe for concurrent use with Mix.
func (m *DryWet) SetWetGain(g float64) error {
	if err := validateGain("wet gain", g); err != nil {
		return err
	}
	m.wetGain.SetTarget(g)
	return nil
}

// SetLevel publishes a new output level. Safe for concurrent use with Mix.
func (m *DryWet) SetLevel(g float64) error {
	if err := validateGain("level", g); err != nil {
		return err
	}
	m.level.SetTarget(g)
	return nil
}

// DryGain returns the target dry gain.
func (m *DryWet) DryGain() float64 { return m.dryGain.Target() }

// WetGain returns the target wet gain.
func (m *DryWet) WetGain() float64 { return m.wetGain.Target() }

// Level returns the target output level.
func (m *DryWet) Level() float64 { return m.level.Target() }

// CopyDry snapshots src[ch][:n] for the prepared channels. n must not
// exceed the prepared block size.
func (m *DryWet) CopyDry(src [][]float64, n int) {
	core.CopyBlock(m.dry, src, n)
}

// Mix writes the mix of the dry snapshot and wet into wet.
func (m *DryWet) Mix(wet [][]float64, n int) {
	m.mix(wet, nil, n)
}

// MixTwo writes the mix of the dry snapshot, wet and wet2 into wet. wet2 is
// used as scratch and is scaled in place.
func (m *DryWet) MixTwo(wet, wet2 [][]float64, n int) {
	m.mix(wet, wet2, n)
}

func (m *DryWet) mix(wet, wet2 [][]float64, n int) {
	if m.dry == nil || n <= 0 {
		return
	}

	channels := min(len(wet), m.channels)
	if wet2 != nil {
		channels = min(channels, len(wet2))
	}

	if m.form == SumScaled {
		m.mixSumScaled(wet, wet2, channels, n)
		return
	}

	m.mixWeighted(wet, wet2, channels, n)
}

func (m *DryWet) mixWeighted(wet, wet2 [][]float64, channels, n int) {
	if !m.dryGain.IsSmoothing() && !m.wetGain.IsSmoothing() {
		dg, wg := m.dryGain.Current(), m.wetGain.Current()
		for ch := 0; ch < channels; ch++ {
			w, d := wet[ch][:n], m.dry[ch][:n]
			vecmath.ScaleBlockInPlace(w, wg)
			if wet2 != nil {
				w2 := wet2[ch][:n]
				vecmath.ScaleBlockInPlace(w2, wg)
				vecmath.AddBlockInPlace(w, w2)
			}
			vecmath.ScaleBlockInPlace(d, dg)
			vecmath.AddBlockInPlace(w, d)
		}
		return
	}

	dr, wr := m.dryRamp[:n], m.wetRamp[:n]
	for i := range dr {
		dr[i] = m.dryGain.Next()
		wr[i] = m.wetGain.Next()
	}

	for ch := 0; ch < channels; ch++ {
		w, d := wet[ch][:n], m.dry[ch][:n]
		vecmath.MulBlockInPlace(w, wr)
		if wet2 != nil {
			w2 := wet2[ch][:n]
			vecmath.MulBlockInPlace(w2, wr)
			vecmath.AddBlockInPlace(w, w2)
		}
		vecmath.MulBlockInPlace(d, dr)
		vecmath.AddBlockInPlace(w, d)
	}
}

func (m *DryWet) mixSumScaled(wet, wet2 [][]float64, channels, n int) {
	if !m.level.IsSmoothing() {
		lv := m.level.Current()
		for ch := 0; ch < channels; ch++ {
			w, d := wet[ch][:n], m.dry[ch][:n]
			if wet2 != nil {
				vecmath.AddBlockInPlace(w, wet2[ch][:n])
			}
			vecmath.AddMulBlock(w, w, d, lv)
		}
		return
	}

	lr := m.wetRamp[:n]
	for i := range lr {
		lr[i] = m.level.Next()
	}

	for ch := 0; ch < channels; ch++ {
		w, d := wet[ch][:n], m.dry[ch][:n]
		if wet2 != nil {
			vecmath.AddBlockInPlace(w, wet2[ch][:n])
		}
		vecmath.AddBlockInPlace(w, d)
		vecmath.MulBlockInPlace(w, lr)
	}
}
