package pedal

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/effects/modulation"
	"github.com/cwbudde/stonemistress/dsp/lfo"
	"github.com/cwbudde/stonemistress/dsp/mix"
)

// Routing selects how phaser and chorus are combined.
type Routing int

const (
	// Serial runs the chorus on the mixed phaser output.
	Serial Routing = iota
	// Parallel runs both effects on the input and blends them once.
	Parallel
)

// String returns the routing name.
func (r Routing) String() string {
	switch r {
	case Serial:
		return "serial"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("Routing(%d)", int(r))
	}
}

const (
	phaserMixLevel    = 0.5
	chorusMixGain     = 0.5
	parallelDryGain   = 0.5
	parallelWetGain   = 0.25
	defaultSmoothingS = 0.02
)

// DefaultChorusFeedback is the chorus regeneration gain used unless
// WithChorusFeedback overrides it. A gain of 1 adds the chorus output back
// into the delay line unscaled.
const DefaultChorusFeedback = 0.5

// Option mutates engine construction parameters.
type Option func(*config) error

type config struct {
	rateHz           float64
	phaserDepth      float64
	chorusDepth      float64
	color            bool
	routing          Routing
	chorusFeedback   float64
	smoothingSeconds float64
}

func defaultConfig() config {
	return config{
		rateHz:           RateParam.Default,
		phaserDepth:      PhaserDepthParam.Default,
		chorusDepth:      ChorusDepthParam.Default,
		routing:          Serial,
		chorusFeedback:   DefaultChorusFeedback,
		smoothingSeconds: defaultSmoothingS,
	}
}

// WithRateHz sets the initial LFO rate.
func WithRateHz(hz float64) Option {
	return func(cfg *config) error {
		if hz <= 0 || !core.IsFinite(hz) {
			return fmt.Errorf("%w: rate must be > 0 and finite: %f", core.ErrInvalidParameter, hz)
		}
		cfg.rateHz = hz
		return nil
	}
}

// WithPhaserDepth sets the initial phaser depth.
func WithPhaserDepth(v float64) Option {
	return func(cfg *config) error {
		if v < 0 || !core.IsFinite(v) {
			return fmt.Errorf("%w: phaser depth must be >= 0 and finite: %f", core.ErrInvalidParameter, v)
		}
		cfg.phaserDepth = v
		return nil
	}
}

// WithChorusDepth sets the initial chorus depth.
func WithChorusDepth(v float64) Option {
	return func(cfg *config) error {
		if v < 0 || !core.IsFinite(v) {
			return fmt.Errorf("%w: chorus depth must be >= 0 and finite: %f", core.ErrInvalidParameter, v)
		}
		cfg.chorusDepth = v
		return nil
	}
}

// WithColor sets the initial state of the phaser feedback switch.
func WithColor(on bool) Option {
	return func(cfg *config) error {
		cfg.color = on
		return nil
	}
}

// WithRouting selects serial or parallel effect routing.
func WithRouting(r Routing) Option {
	return func(cfg *config) error {
		if r != Serial && r != Parallel {
			return fmt.Errorf("%w: unknown routing: %v", core.ErrInvalidParameter, r)
		}
		cfg.routing = r
		return nil
	}
}

// WithChorusFeedback sets the chorus regeneration gain in [0, 1] (see
// modulation.WithChorusFeedback).
func WithChorusFeedback(g float64) Option {
	return func(cfg *config) error {
		cfg.chorusFeedback = g
		return nil
	}
}

// WithSmoothingSeconds sets the glide time of every smoothed parameter.
func WithSmoothingSeconds(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || !core.IsFinite(seconds) {
			return fmt.Errorf("%w: smoothing must be >= 0 and finite: %f", core.ErrInvalidParameter, seconds)
		}
		cfg.smoothingSeconds = seconds
		return nil
	}
}

// Engine is the complete pedal. Lifecycle methods and ProcessBlock belong to
// one goroutine; setters may be called from any goroutine.
type Engine struct {
	routing Routing

	osc       *lfo.Oscillator
	depth     *modulation.DepthModulator
	phaser    *modulation.Phaser
	chorus    *modulation.Chorus
	phaserMix *mix.DryWet
	chorusMix *mix.DryWet
	blendMix  *mix.DryWet

	sampleRate float64
	maxBlock   int
	prepared   bool

	mod  [][]float64 // LFO rows, rewritten in place into modulation values
	work [][]float64 // float64 copy of float32 or interleaved input
	alt  [][]float64 // chorus branch in parallel routing

	peak atomic.Uint64
}

// New creates an engine with the pedal's default controls.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	osc, err := lfo.New(lfo.WithRateHz(cfg.rateHz), lfo.WithSmoothingSeconds(cfg.smoothingSeconds))
	if err != nil {
		return nil, err
	}

	depth, err := modulation.NewDepthModulator(
		modulation.WithInitialDepths(cfg.phaserDepth, cfg.chorusDepth),
		modulation.WithModulatorSmoothingSeconds(cfg.smoothingSeconds),
	)
	if err != nil {
		return nil, err
	}

	phaser, err := modulation.NewPhaser(modulation.WithPhaserColor(cfg.color))
	if err != nil {
		return nil, err
	}

	chorus, err := modulation.NewChorus(modulation.WithChorusFeedback(cfg.chorusFeedback))
	if err != nil {
		return nil, err
	}

	phaserMix, err := mix.New(mix.WithForm(mix.SumScaled), mix.WithLevel(phaserMixLevel),
		mix.WithSmoothingSeconds(cfg.smoothingSeconds))
	if err != nil {
		return nil, err
	}

	chorusMix, err := mix.New(mix.WithForm(mix.Weighted), mix.WithDryGain(chorusMixGain),
		mix.WithWetGain(chorusMixGain), mix.WithSmoothingSeconds(cfg.smoothingSeconds))
	if err != nil {
		return nil, err
	}

	blendMix, err := mix.New(mix.WithForm(mix.Weighted), mix.WithDryGain(parallelDryGain),
		mix.WithWetGain(parallelWetGain), mix.WithSmoothingSeconds(cfg.smoothingSeconds))
	if err != nil {
		return nil, err
	}

	return &Engine{
		routing:   cfg.routing,
		osc:       osc,
		depth:     depth,
		phaser:    phaser,
		chorus:    chorus,
		phaserMix: phaserMix,
		chorusMix: chorusMix,
		blendMix:  blendMix,
	}, nil
}

// Prepare sizes every buffer for sampleRate and maxBlockSize and resets all
// filter, delay and oscillator state. It must precede the first
// ProcessBlock and may be called again on a format change.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) error {
	e.prepared = false

	cfg := core.ProcessorConfig{SampleRate: sampleRate, MaxBlockSize: maxBlockSize}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := e.osc.Prepare(sampleRate); err != nil {
		return err
	}
	if err := e.depth.Prepare(sampleRate); err != nil {
		return err
	}
	if err := e.phaser.Prepare(sampleRate); err != nil {
		return err
	}
	if err := e.chorus.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}
	for _, m := range []*mix.DryWet{e.phaserMix, e.chorusMix, e.blendMix} {
		if err := m.Prepare(sampleRate, core.MaxChannels, maxBlockSize); err != nil {
			return err
		}
	}

	e.mod = core.EnsureBlock(e.mod, core.MaxChannels, maxBlockSize)
	e.work = core.EnsureBlock(e.work, core.MaxChannels, maxBlockSize)
	e.alt = core.EnsureBlock(e.alt, core.MaxChannels, maxBlockSize)
	core.ZeroBlock(e.mod)
	core.ZeroBlock(e.work)
	core.ZeroBlock(e.alt)

	e.sampleRate = sampleRate
	e.maxBlock = maxBlockSize
	e.peak.Store(0)
	e.prepared = true

	return nil
}

// Release frees block-rate buffers. It is safe to call more than once.
func (e *Engine) Release() {
	e.prepared = false
	e.phaser.Release()
	e.chorus.Release()
	e.phaserMix.Release()
	e.chorusMix.Release()
	e.blendMix.Release()
	e.mod = nil
	e.work = nil
	e.alt = nil
}

// SampleRate returns the prepared sample rate, or 0 before Prepare.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// MaxBlockSize returns the prepared block capacity.
func (e *Engine) MaxBlockSize() int { return e.maxBlock }

// Routing returns the effect routing.
func (e *Engine) Routing() Routing { return e.routing }

// SetRate sets the LFO rate in Hz; hz must be > 0.
func (e *Engine) SetRate(hz float64) error { return e.osc.SetRate(hz) }

// SetPhaserDepth sets the phaser depth; v must be >= 0.
func (e *Engine) SetPhaserDepth(v float64) error { return e.depth.SetPhaserDepth(v) }

// SetChorusDepth sets the chorus depth; v must be >= 0.
func (e *Engine) SetChorusDepth(v float64) error { return e.depth.SetChorusDepth(v) }

// SetColor toggles the phaser feedback path.
func (e *Engine) SetColor() { e.phaser.SetColor() }

// Rate returns the target LFO rate.
func (e *Engine) Rate() float64 { return e.osc.RateHz() }

// PhaserDepth returns the target phaser depth.
func (e *Engine) PhaserDepth() float64 { return e.depth.PhaserDepth() }

// ChorusDepth returns the target chorus depth.
func (e *Engine) ChorusDepth() float64 { return e.depth.ChorusDepth() }

// Color reports whether the phaser feedback path is engaged.
func (e *Engine) Color() bool { return e.phaser.Color() }

// OutputPeak returns the largest absolute output sample of the last block.
// Safe to call from any goroutine.
func (e *Engine) OutputPeak() float64 { return math.Float64frombits(e.peak.Load()) }

// ProcessBlock64 transforms buf[ch][:n] in place. buf holds one (mono) or
// two channels; n must not exceed the prepared block size.
func (e *Engine) ProcessBlock64(buf [][]float64, n int) error {
	if err := e.check(len(buf), n); err != nil {
		return err
	}
	for ch := range buf {
		if len(buf[ch]) < n {
			return fmt.Errorf("%w: channel %d has %d samples, need %d", core.ErrBufferSize, ch, len(buf[ch]), n)
		}
	}

	e.process(buf, n)

	return nil
}

// ProcessBlock transforms a float32 host buffer in place.
func (e *Engine) ProcessBlock(buf [][]float32, n int) error {
	if err := e.check(len(buf), n); err != nil {
		return err
	}
	for ch := range buf {
		if len(buf[ch]) < n {
			return fmt.Errorf("%w: channel %d has %d samples, need %d", core.ErrBufferSize, ch, len(buf[ch]), n)
		}
	}

	work := e.work[:len(buf)]
	for ch, in := range buf {
		row := work[ch][:n]
		for i := range row {
			row[i] = float64(in[i])
		}
	}

	e.process(work, n)

	for ch, out := range buf {
		for i, v := range work[ch][:n] {
			out[i] = float32(v)
		}
	}

	return nil
}

// ProcessFloatBuffer transforms an interleaved go-audio buffer in place,
// block by block. Its format must match the prepared sample rate and hold
// one or two channels, and Data must contain whole frames.
func (e *Engine) ProcessFloatBuffer(buf *audio.FloatBuffer) error {
	if buf == nil || buf.Format == nil {
		return fmt.Errorf("%w: buffer has no format", core.ErrBufferSize)
	}
	if !e.prepared {
		return core.ErrNotPrepared
	}

	channels := buf.Format.NumChannels
	if channels < 1 || channels > core.MaxChannels {
		return fmt.Errorf("%w: unsupported channel count %d", core.ErrBufferSize, channels)
	}
	if float64(buf.Format.SampleRate) != e.sampleRate {
		return fmt.Errorf("%w: buffer sample rate %d differs from prepared %.0f",
			core.ErrInvalidParameter, buf.Format.SampleRate, e.sampleRate)
	}

	if len(buf.Data)%channels != 0 {
		return fmt.Errorf("%w: %d samples do not form whole %d-channel frames",
			core.ErrBufferSize, len(buf.Data), channels)
	}

	frames := len(buf.Data) / channels
	work := e.work[:channels]

	for start := 0; start < frames; start += e.maxBlock {
		n := min(e.maxBlock, frames-start)
		base := start * channels

		for i := 0; i < n; i++ {
			for ch := range work {
				work[ch][i] = buf.Data[base+i*channels+ch]
			}
		}

		e.process(work, n)

		for i := 0; i < n; i++ {
			for ch := range work {
				buf.Data[base+i*channels+ch] = work[ch][i]
			}
		}
	}

	return nil
}

func (e *Engine) check(channels, n int) error {
	if !e.prepared {
		return core.ErrNotPrepared
	}
	if channels < 1 || channels > core.MaxChannels {
		return fmt.Errorf("%w: unsupported channel count %d", core.ErrBufferSize, channels)
	}
	if n < 0 || n > e.maxBlock {
		return fmt.Errorf("%w: block of %d samples exceeds prepared maximum %d", core.ErrBufferSize, n, e.maxBlock)
	}
	return nil
}

func (e *Engine) process(buf [][]float64, n int) {
	if n == 0 {
		return
	}

	e.osc.NextBlock(e.mod, n)
	e.depth.Process(e.mod, n)

	lo, hi := e.phaser.ModulationRange()
	modulation.ClampRow(e.mod[modulation.PhaserChannel][:n], lo, hi)
	modulation.ClampRow(e.mod[modulation.ChorusChannel][:n], 0, e.chorus.MaxDelaySeconds())

	switch e.routing {
	case Parallel:
		alt := e.alt[:len(buf)]
		core.CopyBlock(alt, buf, n)

		e.blendMix.CopyDry(buf, n)
		e.phaser.ProcessBlock(buf, e.mod, n)
		e.chorus.ProcessBlock(alt, e.mod, n)
		e.blendMix.MixTwo(buf, alt, n)

	default:
		e.phaserMix.CopyDry(buf, n)
		e.phaser.ProcessBlock(buf, e.mod, n)
		e.phaserMix.Mix(buf, n)

		e.chorusMix.CopyDry(buf, n)
		e.chorus.ProcessBlock(buf, e.mod, n)
		e.chorusMix.Mix(buf, n)
	}

	peak := 0.0
	for ch := range buf {
		peak = math.Max(peak, vecmath.MaxAbs(buf[ch][:n]))
	}
	e.peak.Store(math.Float64bits(peak))
}
