// Package envelope analyses amplitude envelopes of processed signals: RMS
// framing, modulation depth, periodicity and the dominant modulation rate.
package envelope

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/stonemistress/dsp/spectrum"
	"github.com/cwbudde/stonemistress/dsp/window"
)

// Errors returned by envelope analysis functions.
var (
	ErrInvalidWindow = errors.New("envelope: window must be > 0 and <= signal length")
	ErrTooShort      = errors.New("envelope: envelope too short for requested analysis")
	ErrInvalidRange  = errors.New("envelope: invalid frequency range")
	ErrFlat          = errors.New("envelope: envelope has no variation")
)

const minZeroPadFactor = 8

// RMS returns the root-mean-square of consecutive non-overlapping windows
// of signal. A trailing partial window is dropped.
func RMS(signal []float64, window int) ([]float64, error) {
	if window <= 0 || window > len(signal) {
		return nil, fmt.Errorf("%w: window=%d len=%d", ErrInvalidWindow, window, len(signal))
	}

	out := make([]float64, len(signal)/window)
	for i := range out {
		sum := 0.0
		for _, v := range signal[i*window : (i+1)*window] {
			sum += v * v
		}
		out[i] = math.Sqrt(sum / float64(window))
	}

	return out, nil
}

// Depth returns the modulation index (max-min)/(max+min) of a non-negative
// envelope, in [0, 1].
func Depth(env []float64) float64 {
	if len(env) == 0 {
		return 0
	}

	lo, hi := env[0], env[0]
	for _, v := range env[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if hi+lo == 0 {
		return 0
	}

	return (hi - lo) / (hi + lo)
}

// Periodicity returns the normalised autocorrelation of the mean-removed
// envelope at a possibly fractional lag. Values near 1 mean env repeats
// every lag samples.
func Periodicity(env []float64, lag float64) (float64, error) {
	if lag < 0 || math.IsNaN(lag) || int(math.Ceil(lag)) >= len(env)/2 {
		return 0, fmt.Errorf("%w: lag=%g len=%d", ErrTooShort, lag, len(env))
	}

	centered, energy := center(env)
	if energy == 0 {
		return 0, ErrFlat
	}

	lo := math.Floor(lag)
	frac := lag - lo
	a := autocorrelation(centered, int(lo))
	if frac == 0 {
		return a, nil
	}

	b := autocorrelation(centered, int(lo)+1)
	return a + frac*(b-a), nil
}

// DominantFrequency returns the frequency in [minHz, maxHz] with the largest
// spectral magnitude of the mean-removed, Hann-windowed envelope sampled at
// envRate Hz.
func DominantFrequency(env []float64, envRate, minHz, maxHz float64) (float64, error) {
	if envRate <= 0 || minHz < 0 || maxHz <= minHz || maxHz > envRate/2 {
		return 0, fmt.Errorf("%w: rate=%g min=%g max=%g", ErrInvalidRange, envRate, minHz, maxHz)
	}
	if len(env) < 4 {
		return 0, fmt.Errorf("%w: len=%d", ErrTooShort, len(env))
	}

	centered, energy := center(env)
	if energy == 0 {
		return 0, ErrFlat
	}

	if err := window.Apply(window.TypeHann, centered); err != nil {
		return 0, err
	}

	n := nextPowerOf2(len(env) * minZeroPadFactor)
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0, fmt.Errorf("envelope: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, n)
	for i, v := range centered {
		in[i] = complex(v, 0)
	}

	bins := make([]complex128, n)
	if err := plan.Forward(bins, in); err != nil {
		return 0, fmt.Errorf("envelope: forward FFT failed: %w", err)
	}

	binHz := envRate / float64(n)
	first := max(1, int(math.Ceil(minHz/binHz)))
	last := min(n/2-1, int(math.Floor(maxHz/binHz)))
	if first > last {
		return 0, fmt.Errorf("%w: no bins between %g and %g Hz", ErrInvalidRange, minHz, maxHz)
	}

	best := first
	for k := first + 1; k <= last; k++ {
		if cmplx.Abs(bins[k]) > cmplx.Abs(bins[best]) {
			best = k
		}
	}

	// parabolic peak interpolation on magnitudes
	ym1 := cmplx.Abs(bins[best-1])
	y0 := cmplx.Abs(bins[best])
	yp1 := cmplx.Abs(bins[best+1])
	offset := 0.0
	if d := ym1 - 2*y0 + yp1; d != 0 {
		offset = 0.5 * (ym1 - yp1) / d
	}

	return (float64(best) + offset) * binHz, nil
}

// HarmonicFraction correlates the mean-removed envelope with sinusoids at
// fundamentalHz and its first harmonics and returns the share of envelope
// energy they explain, in [0, 1]. An envelope locked to the fundamental
// scores close to 1 once enough harmonics are included.
func HarmonicFraction(env []float64, envRate, fundamentalHz float64, harmonics int) (float64, error) {
	if envRate <= 0 || fundamentalHz <= 0 || harmonics < 1 {
		return 0, fmt.Errorf("%w: rate=%g fundamental=%g harmonics=%d",
			ErrInvalidRange, envRate, fundamentalHz, harmonics)
	}

	periods := math.Floor(float64(len(env)) * fundamentalHz / envRate)
	if periods < 1 {
		return 0, fmt.Errorf("%w: need at least one period", ErrTooShort)
	}

	// whole periods only, so the sinusoids stay orthogonal
	n := int(math.Round(periods * envRate / fundamentalHz))
	n = min(n, len(env))

	centered, energy := center(env[:n])
	if energy == 0 {
		return 0, ErrFlat
	}

	explained := 0.0
	for h := 1; h <= harmonics; h++ {
		f := float64(h) * fundamentalHz
		if f >= envRate/2 {
			break
		}

		p, err := spectrum.AnalyzeBlock(centered, f, envRate)
		if err != nil {
			return 0, err
		}
		explained += 2 * p / float64(n)
	}

	return math.Min(explained/energy, 1), nil
}

func center(env []float64) ([]float64, float64) {
	mean := 0.0
	for _, v := range env {
		mean += v
	}
	mean /= float64(len(env))

	out := make([]float64, len(env))
	energy := 0.0
	for i, v := range env {
		out[i] = v - mean
		energy += out[i] * out[i]
	}

	return out, energy
}

func autocorrelation(centered []float64, lag int) float64 {
	var num, ea, eb float64
	for i := 0; i+lag < len(centered); i++ {
		a, b := centered[i], centered[i+lag]
		num += a * b
		ea += a * a
		eb += b * b
	}
	if ea == 0 || eb == 0 {
		return 0
	}
	return num / math.Sqrt(ea*eb)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
