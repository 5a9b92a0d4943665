package allpass

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/stonemistress/dsp/core"
)

// MaxChannels is the number of independent state slots a Stage keeps.
const MaxChannels = core.MaxChannels

// Stage is a first-order all-pass filter with a per-sample modulated break
// frequency and one (x[n-1], y[n-1]) pair per channel.
type Stage struct {
	breakHz      float64
	samplePeriod float64

	x1 [MaxChannels]float64
	y1 [MaxChannels]float64
}

// New returns a stage with nominal break frequency breakHz.
// SetSamplePeriod must be called before the first ProcessSample.
func New(breakHz float64) (*Stage, error) {
	if breakHz <= 0 || !core.IsFinite(breakHz) {
		return nil, fmt.Errorf("%w: allpass break frequency must be > 0 and finite: %f", core.ErrInvalidParameter, breakHz)
	}
	return &Stage{breakHz: breakHz, samplePeriod: 1.0 / 44100}, nil
}

// SetSamplePeriod stores 1/sampleRate. The period is kept instead of the rate
// so the per-sample coefficient needs no division by the sample rate.
func (s *Stage) SetSamplePeriod(period float64) error {
	if period <= 0 || !core.IsFinite(period) {
		return fmt.Errorf("%w: allpass sample period must be > 0 and finite: %f", core.ErrInvalidParameter, period)
	}
	if s.breakHz*period >= 0.5 {
		return fmt.Errorf("%w: allpass break frequency %.2f Hz is at or above Nyquist for period %g",
			core.ErrNumericDomain, s.breakHz, period)
	}
	s.samplePeriod = period
	return nil
}

// BreakFrequency returns the nominal break frequency f0 in Hz.
func (s *Stage) BreakFrequency() float64 { return s.breakHz }

// SamplePeriod returns the configured sample period in seconds.
func (s *Stage) SamplePeriod() float64 { return s.samplePeriod }

// Coefficient returns the all-pass coefficient for break frequency f0+mod.
func (s *Stage) Coefficient(mod float64) float64 {
	t := math.Tan(math.Pi * (s.breakHz + mod) * s.samplePeriod)
	return (t - 1) / (t + 1)
}

// ProcessSample filters x on channel ch with the break frequency moved by mod Hz.
func (s *Stage) ProcessSample(x float64, ch int, mod float64) float64 {
	a := s.Coefficient(mod)

	y := a*x + s.x1[ch] - a*s.y1[ch]

	s.x1[ch] = x
	s.y1[ch] = core.FlushDenormals(y)

	return y
}

// Reset clears the state of every channel. It belongs to stream
// (re)initialisation only; clearing mid-stream produces a click.
func (s *Stage) Reset() {
	s.x1 = [MaxChannels]float64{}
	s.y1 = [MaxChannels]float64{}
}

// FrequencyResponse evaluates H(e^jω) at freqHz for a constant modulation
// offset mod, without touching the filter state.
func (s *Stage) FrequencyResponse(freqHz, mod float64) complex128 {
	a := complex(s.Coefficient(mod), 0)
	zInv := cmplx.Exp(complex(0, -2*math.Pi*freqHz*s.samplePeriod))
	return (a + zInv) / (1 + a*zInv)
}
