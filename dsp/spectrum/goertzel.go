// Package spectrum measures the energy of a signal at single frequencies.
// Envelope analysis uses it to test how much of a modulation envelope
// follows the LFO fundamental and its harmonics.
package spectrum

import (
	"fmt"
	"math"

	"github.com/cwbudde/stonemistress/dsp/core"
)

// Goertzel runs a second-order resonator tuned to one frequency. After N
// samples Power is |X(f)|^2 of the N-point DFT of those samples, for any f
// in [0, sampleRate/2], including frequencies between DFT bins.
//
// Samples from successive ProcessBlock calls add up until Reset.
type Goertzel struct {
	frequency float64
	k         float64 // 2*cos(w)

	// last two resonator outputs
	y1, y2 float64
}

// NewGoertzel returns a resonator for frequency at sampleRate.
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("%w: goertzel sample rate must be > 0 and finite: %v",
			core.ErrInvalidParameter, sampleRate)
	}
	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("%w: goertzel frequency must be in [0, %g]: %v",
			core.ErrInvalidParameter, sampleRate/2, frequency)
	}

	w := 2 * math.Pi * frequency / sampleRate
	return &Goertzel{frequency: frequency, k: 2 * math.Cos(w)}, nil
}

// Frequency returns the tuned frequency in Hz.
func (g *Goertzel) Frequency() float64 { return g.frequency }

// Reset forgets every sample seen so far.
func (g *Goertzel) Reset() {
	g.y1, g.y2 = 0, 0
}

// ProcessBlock runs x through the resonator.
func (g *Goertzel) ProcessBlock(x []float64) {
	y1, y2, k := g.y1, g.y2, g.k
	for _, v := range x {
		y1, y2 = v+k*y1-y2, y1
	}
	g.y1, g.y2 = y1, y2
}

// Power returns |X(f)|^2 over all samples since the last Reset.
func (g *Goertzel) Power() float64 {
	return g.y1*g.y1 + g.y2*g.y2 - g.k*g.y1*g.y2
}

// AnalyzeBlock returns |X(f)|^2 of x at frequency.
func AnalyzeBlock(x []float64, frequency, sampleRate float64) (float64, error) {
	g, err := NewGoertzel(frequency, sampleRate)
	if err != nil {
		return 0, err
	}

	g.ProcessBlock(x)

	return g.Power(), nil
}
