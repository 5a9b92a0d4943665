package response

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/stonemistress/dsp/core"
)

// Errors returned by response analysis functions.
var (
	ErrEmptyIR           = errors.New("response: impulse response is empty")
	ErrInvalidSampleRate = errors.New("response: sample rate must be positive")
	ErrInvalidLength     = errors.New("response: length must be positive")
	ErrInvalidFFTSize    = errors.New("response: fft size must be a power of two >= impulse length")
)

// Option configures response analysis.
type Option func(*config) error

type config struct {
	fftSize int
}

// WithFFTSize forces the FFT size. It must be a power of two no shorter than
// the impulse response. Larger sizes interpolate the response more finely.
func WithFFTSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 || n&(n-1) != 0 {
			return fmt.Errorf("%w: %d", ErrInvalidFFTSize, n)
		}
		cfg.fftSize = n
		return nil
	}
}

// Response is a one-sided complex frequency response.
type Response struct {
	SampleRate float64
	FFTSize    int
	// Bins holds H at k·SampleRate/FFTSize for k in [0, FFTSize/2].
	Bins []complex128

	energy float64
}

// Measure feeds a unit impulse followed by length-1 zeros through process
// and analyses the output.
func Measure(process func(float64) float64, sampleRate float64, length int, opts ...Option) (*Response, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	ir := make([]float64, length)
	ir[0] = process(1)
	for i := 1; i < length; i++ {
		ir[i] = process(0)
	}

	return FromImpulse(ir, sampleRate, opts...)
}

// FromImpulse computes the response of an impulse response sampled at sampleRate.
func FromImpulse(ir []float64, sampleRate float64, opts ...Option) (*Response, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, ErrInvalidSampleRate
	}

	cfg := config{fftSize: nextPowerOf2(len(ir))}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.fftSize < len(ir) {
		return nil, fmt.Errorf("%w: %d < %d", ErrInvalidFFTSize, cfg.fftSize, len(ir))
	}

	plan, err := algofft.NewPlan64(cfg.fftSize)
	if err != nil {
		return nil, fmt.Errorf("response: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, cfg.fftSize)
	energy := 0.0
	for i, v := range ir {
		padded[i] = complex(v, 0)
		energy += v * v
	}

	spectrum := make([]complex128, cfg.fftSize)
	if err := plan.Forward(spectrum, padded); err != nil {
		return nil, fmt.Errorf("response: forward FFT failed: %w", err)
	}

	return &Response{
		SampleRate: sampleRate,
		FFTSize:    cfg.fftSize,
		Bins:       spectrum[:cfg.fftSize/2+1],
		energy:     energy,
	}, nil
}

// Energy returns the sum of squared impulse-response samples.
func (r *Response) Energy() float64 { return r.energy }

// BinFrequency returns the centre frequency of bin k in Hz.
func (r *Response) BinFrequency(k int) float64 {
	return float64(k) * r.SampleRate / float64(r.FFTSize)
}

// At returns H at freqHz, interpolating linearly between neighbouring bins.
func (r *Response) At(freqHz float64) complex128 {
	pos := freqHz * float64(r.FFTSize) / r.SampleRate
	if pos <= 0 {
		return r.Bins[0]
	}

	last := len(r.Bins) - 1
	if pos >= float64(last) {
		return r.Bins[last]
	}

	k := int(pos)
	frac := pos - float64(k)
	return r.Bins[k]*complex(1-frac, 0) + r.Bins[k+1]*complex(frac, 0)
}

// MagnitudeAt returns |H| at freqHz.
func (r *Response) MagnitudeAt(freqHz float64) float64 {
	return cmplx.Abs(r.At(freqHz))
}

// MagnitudeDBAt returns 20·log10|H| at freqHz.
func (r *Response) MagnitudeDBAt(freqHz float64) float64 {
	return core.LinearToDB(r.MagnitudeAt(freqHz))
}

// PhaseAt returns the wrapped phase of H at freqHz in radians.
func (r *Response) PhaseAt(freqHz float64) float64 {
	return cmplx.Phase(r.At(freqHz))
}

// UnwrappedPhase returns the per-bin phase with 2π jumps removed, anchored
// at the DC bin.
func (r *Response) UnwrappedPhase() []float64 {
	out := make([]float64, len(r.Bins))
	offset := 0.0
	prev := cmplx.Phase(r.Bins[0])
	out[0] = prev

	for k := 1; k < len(r.Bins); k++ {
		p := cmplx.Phase(r.Bins[k])
		d := p - prev
		if d > math.Pi {
			offset -= 2 * math.Pi
		} else if d < -math.Pi {
			offset += 2 * math.Pi
		}
		prev = p
		out[k] = p + offset
	}

	return out
}

// PhaseCrossing returns the lowest frequency at which the unwrapped phase
// crosses target, interpolated between bins. ok is false when it never does.
func (r *Response) PhaseCrossing(target float64) (freqHz float64, ok bool) {
	phase := r.UnwrappedPhase()
	for k := 1; k < len(phase); k++ {
		a, b := phase[k-1]-target, phase[k]-target
		if a == 0 {
			return r.BinFrequency(k - 1), true
		}
		if (a < 0) != (b < 0) {
			frac := a / (a - b)
			return r.BinFrequency(k-1) + frac*r.SampleRate/float64(r.FFTSize), true
		}
	}
	return 0, false
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
