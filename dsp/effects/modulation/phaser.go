package modulation

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync/atomic"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/filter/allpass"
)

const (
	defaultPhaserLowBreakHz  = 1000.0
	defaultPhaserHighBreakHz = 5000.0
	defaultPhaserFeedback    = 0.20

	// PhaserStages is the length of the all-pass chain.
	PhaserStages = 4

	phaserMinBreakHz         = 20.0
	phaserNyquistSafetyRatio = 0.49
)

// PhaserOption mutates phaser construction parameters.
type PhaserOption func(*phaserConfig) error

type phaserConfig struct {
	lowBreakHz  float64
	highBreakHz float64
	feedback    float64
	color       bool
	modChannel  int
}

func defaultPhaserConfig() phaserConfig {
	return phaserConfig{
		lowBreakHz:  defaultPhaserLowBreakHz,
		highBreakHz: defaultPhaserHighBreakHz,
		feedback:    defaultPhaserFeedback,
		modChannel:  PhaserChannel,
	}
}

// WithPhaserBreakFrequencies sets the paired break frequencies; the chain
// is {low, low, high, high}.
func WithPhaserBreakFrequencies(lowHz, highHz float64) PhaserOption {
	return func(cfg *phaserConfig) error {
		if lowHz < phaserMinBreakHz || !core.IsFinite(lowHz) {
			return fmt.Errorf("%w: phaser low break frequency must be >= %.0f Hz and finite: %f",
				core.ErrInvalidParameter, phaserMinBreakHz, lowHz)
		}

		if highHz < lowHz || !core.IsFinite(highHz) {
			return fmt.Errorf("%w: phaser high break frequency must be >= low and finite: low=%f high=%f",
				core.ErrInvalidParameter, lowHz, highHz)
		}

		cfg.lowBreakHz = lowHz
		cfg.highBreakHz = highHz

		return nil
	}
}

// WithPhaserFeedback sets the color feedback gain in (-1, 1).
func WithPhaserFeedback(feedback float64) PhaserOption {
	return func(cfg *phaserConfig) error {
		if feedback <= -1 || feedback >= 1 || math.IsNaN(feedback) {
			return fmt.Errorf("%w: phaser feedback must be in (-1, 1): %f", core.ErrInvalidParameter, feedback)
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithPhaserColor sets the initial state of the feedback switch.
func WithPhaserColor(on bool) PhaserOption {
	return func(cfg *phaserConfig) error {
		cfg.color = on
		return nil
	}
}

// WithPhaserModChannel selects the modulation row driving the chain.
func WithPhaserModChannel(ch int) PhaserOption {
	return func(cfg *phaserConfig) error {
		if ch < 0 || ch >= core.MaxChannels {
			return fmt.Errorf("%w: phaser modulation row must be in [0, %d): %d",
				core.ErrInvalidParameter, core.MaxChannels, ch)
		}

		cfg.modChannel = ch

		return nil
	}
}

// Phaser is a stereo four-stage all-pass phaser. One modulation value per
// sample moves every stage's break frequency by the same offset in Hz.
//
// With color engaged the chain input becomes x + feedback*y[n-1], where
// y[n-1] is the chain output of the previous sample on the same channel.
type Phaser struct {
	feedback   float64
	modChannel int
	color      atomic.Bool

	sampleRate float64
	prepared   bool

	stages [PhaserStages]*allpass.Stage
	last   [core.MaxChannels]float64
}

// NewPhaser creates a phaser with the pedal's break frequencies.
func NewPhaser(opts ...PhaserOption) (*Phaser, error) {
	cfg := defaultPhaserConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	p := &Phaser{
		feedback:   cfg.feedback,
		modChannel: cfg.modChannel,
	}
	p.color.Store(cfg.color)

	breaks := [PhaserStages]float64{cfg.lowBreakHz, cfg.lowBreakHz, cfg.highBreakHz, cfg.highBreakHz}
	for i, f := range breaks {
		s, err := allpass.New(f)
		if err != nil {
			return nil, err
		}
		p.stages[i] = s
	}

	return p, nil
}

// Prepare sets the sample period of every stage and clears all state.
// It fails with core.ErrNumericDomain when a break frequency is not below
// the safe fraction of Nyquist at sampleRate.
func (p *Phaser) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: phaser sample rate must be > 0 and finite: %f", core.ErrInvalidParameter, sampleRate)
	}

	limit := phaserNyquistSafetyRatio * sampleRate
	for _, s := range p.stages {
		if s.BreakFrequency() >= limit {
			return fmt.Errorf("%w: phaser break frequency %.1f Hz exceeds %.1f Hz at %.0f Hz",
				core.ErrNumericDomain, s.BreakFrequency(), limit, sampleRate)
		}

		if err := s.SetSamplePeriod(1 / sampleRate); err != nil {
			return err
		}
	}

	p.sampleRate = sampleRate
	p.prepared = true
	p.Reset()

	return nil
}

// Release marks the phaser unprepared. ProcessBlock becomes a no-op until
// the next Prepare.
func (p *Phaser) Release() {
	p.prepared = false
	p.Reset()
}

// Reset clears stage and feedback state.
func (p *Phaser) Reset() {
	for _, s := range p.stages {
		s.Reset()
	}
	p.last = [core.MaxChannels]float64{}
}

// SetColor flips the feedback switch. Safe for concurrent use with
// ProcessBlock; the new state applies from the next block.
func (p *Phaser) SetColor() {
	for {
		old := p.color.Load()
		if p.color.CompareAndSwap(old, !old) {
			return
		}
	}
}

// Color reports whether the feedback path is engaged.
func (p *Phaser) Color() bool { return p.color.Load() }

// Feedback returns the color feedback gain.
func (p *Phaser) Feedback() float64 { return p.feedback }

// ModChannel returns the modulation row driving the chain.
func (p *Phaser) ModChannel() int { return p.modChannel }

// Stages returns the break frequencies of the chain in processing order.
func (p *Phaser) Stages() [PhaserStages]float64 {
	var out [PhaserStages]float64
	for i, s := range p.stages {
		out[i] = s.BreakFrequency()
	}
	return out
}

// ModulationRange returns the offsets in Hz that keep every stage's break
// frequency within [20 Hz, 0.49*sampleRate]. Clamp the phaser modulation row
// to it before ProcessBlock.
func (p *Phaser) ModulationRange() (lo, hi float64) {
	lowest, highest := p.stages[0].BreakFrequency(), p.stages[0].BreakFrequency()
	for _, s := range p.stages[1:] {
		lowest = math.Min(lowest, s.BreakFrequency())
		highest = math.Max(highest, s.BreakFrequency())
	}

	return phaserMinBreakHz - lowest, phaserNyquistSafetyRatio*p.sampleRate - highest
}

// ProcessBlock filters buf[ch][:n] in place for up to two channels.
// mod[ModChannel()][:n] holds the per-sample break-frequency offset in Hz.
func (p *Phaser) ProcessBlock(buf, mod [][]float64, n int) {
	if !p.prepared {
		return
	}

	channels := min(len(buf), core.MaxChannels)
	color := p.color.Load()
	row := mod[p.modChannel][:n]

	for i, df := range row {
		for ch := 0; ch < channels; ch++ {
			x := buf[ch][i]
			if color {
				x += p.feedback * p.last[ch]
			}

			for _, s := range p.stages {
				x = s.ProcessSample(x, ch, df)
			}

			p.last[ch] = x
			buf[ch][i] = x
		}
	}
}

// FrequencyResponse evaluates the static response of the chain at freqHz
// for a constant offset mod, including the feedback path when color is on.
// The phaser must be prepared.
func (p *Phaser) FrequencyResponse(freqHz, mod float64) complex128 {
	h := complex(1, 0)
	for _, s := range p.stages {
		h *= s.FrequencyResponse(freqHz, mod)
	}

	if p.color.Load() {
		zInv := cmplx.Exp(complex(0, -2*math.Pi*freqHz/p.sampleRate))
		h /= 1 - complex(p.feedback, 0)*zInv*h
	}

	return h
}
