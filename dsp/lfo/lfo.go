// Package lfo implements the pedal's shared low-frequency oscillator.
//
// One phase accumulator drives two output rows: row 0 is the waveform at
// the accumulator phase, row 1 the same waveform at phase+offset (mod 1).
// The fixed offset keeps the phaser and chorus sweeps in a constant
// relationship.
package lfo

import (
	"fmt"
	"math"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/smooth"
)

const (
	defaultRateHz           = 11.0
	defaultPhaseOffset      = 0.8
	defaultSmoothingSeconds = 0.02
)

// Rows written by NextBlock.
const (
	ReferenceRow = 0
	OffsetRow    = 1
)

// Option mutates oscillator construction parameters.
type Option func(*config) error

type config struct {
	rateHz           float64
	phaseOffset      float64
	waveform         Waveform
	smoothingSeconds float64
}

func defaultConfig() config {
	return config{
		rateHz:           defaultRateHz,
		phaseOffset:      defaultPhaseOffset,
		waveform:         Triangle,
		smoothingSeconds: defaultSmoothingSeconds,
	}
}

// WithRateHz sets the initial rate in Hz.
func WithRateHz(rateHz float64) Option {
	return func(cfg *config) error {
		if rateHz <= 0 || !core.IsFinite(rateHz) {
			return fmt.Errorf("%w: lfo rate must be > 0 and finite: %f", core.ErrInvalidParameter, rateHz)
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithPhaseOffset sets the phase distance of the offset row, in cycles [0, 1).
func WithPhaseOffset(offset float64) Option {
	return func(cfg *config) error {
		if offset < 0 || offset >= 1 || math.IsNaN(offset) {
			return fmt.Errorf("%w: lfo phase offset must be in [0, 1): %f", core.ErrInvalidParameter, offset)
		}
		cfg.phaseOffset = offset
		return nil
	}
}

// WithWaveform sets the oscillator shape.
func WithWaveform(w Waveform) Option {
	return func(cfg *config) error {
		if !w.valid() {
			return fmt.Errorf("%w: unknown lfo waveform: %v", core.ErrInvalidParameter, w)
		}
		cfg.waveform = w
		return nil
	}
}

// WithSmoothingSeconds sets the glide time for rate changes.
func WithSmoothingSeconds(seconds float64) Option {
	return func(cfg *config) error {
		if seconds < 0 || !core.IsFinite(seconds) {
			return fmt.Errorf("%w: lfo smoothing must be >= 0 and finite: %f", core.ErrInvalidParameter, seconds)
		}
		cfg.smoothingSeconds = seconds
		return nil
	}
}

// Oscillator is a two-row LFO with a smoothed, multiplicatively gliding rate.
type Oscillator struct {
	waveform         Waveform
	phaseOffset      float64
	smoothingSeconds float64

	rate         *smooth.Multiplicative
	samplePeriod float64
	phase        float64
}

// New creates an oscillator at the pedal's default rate and phase offset.
func New(opts ...Option) (*Oscillator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	o := &Oscillator{
		waveform:         cfg.waveform,
		phaseOffset:      cfg.phaseOffset,
		smoothingSeconds: cfg.smoothingSeconds,
		rate:             smooth.NewMultiplicative(cfg.rateHz),
		samplePeriod:     1.0 / 44100,
	}
	o.rate.Reset(44100, cfg.smoothingSeconds)

	return o, nil
}

// Prepare sets the sample rate, resets rate smoothing and restarts the
// phase at zero.
func (o *Oscillator) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: lfo sample rate must be > 0 and finite: %f", core.ErrInvalidParameter, sampleRate)
	}
	o.samplePeriod = 1 / sampleRate
	o.rate.Reset(sampleRate, o.smoothingSeconds)
	o.phase = 0
	return nil
}

// SetRate publishes a new target rate in Hz. It is safe to call from a
// goroutine other than the one running NextBlock.
func (o *Oscillator) SetRate(hz float64) error {
	if hz <= 0 || !core.IsFinite(hz) {
		return fmt.Errorf("%w: lfo rate must be > 0 and finite: %f", core.ErrInvalidParameter, hz)
	}
	o.rate.SetTarget(hz)
	return nil
}

// RateHz returns the target rate in Hz.
func (o *Oscillator) RateHz() float64 { return o.rate.Target() }

// Phase returns the accumulator phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// PhaseOffset returns the offset row's phase distance in cycles.
func (o *Oscillator) PhaseOffset() float64 { return o.phaseOffset }

// Waveform returns the oscillator shape.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// Sample returns the next (reference, offset) pair and advances the phase.
func (o *Oscillator) Sample() (reference, offset float64) {
	reference = o.waveform.Value(o.phase)
	offset = o.waveform.Value(core.Wrap01(o.phase + o.phaseOffset))

	o.phase += o.rate.Next() * o.samplePeriod
	o.phase -= math.Floor(o.phase)

	return reference, offset
}

// NextBlock fills dst[ReferenceRow][:n] and dst[OffsetRow][:n]. dst must
// have at least two rows of length n.
func (o *Oscillator) NextBlock(dst [][]float64, n int) {
	ref := dst[ReferenceRow][:n]
	off := dst[OffsetRow][:n]
	for i := range ref {
		ref[i], off[i] = o.Sample()
	}
}
