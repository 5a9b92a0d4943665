package lfo

import (
	"fmt"
	"math"
)

// Waveform selects the shape the oscillator evaluates at each phase. All
// shapes are bipolar in [-1, 1] and share the same oscillator state.
type Waveform int

const (
	// Triangle starts at +1, falls to -1 at phase 0.5 and rises back.
	Triangle Waveform = iota
	// Sine is sin(2πp).
	Sine
	// Saw ramps from -1 up to +1 over one cycle.
	Saw
	// Square is +1 for the first half cycle and -1 for the second.
	Square
)

// Value evaluates the waveform at phase p in [0, 1).
func (w Waveform) Value(p float64) float64 {
	switch w {
	case Sine:
		return math.Sin(2 * math.Pi * p)
	case Saw:
		return 2*p - 1
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	default:
		return 4*math.Abs(p-0.5) - 1
	}
}

func (w Waveform) String() string {
	switch w {
	case Triangle:
		return "triangle"
	case Sine:
		return "sine"
	case Saw:
		return "saw"
	case Square:
		return "square"
	default:
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
}

func (w Waveform) valid() bool {
	return w >= Triangle && w <= Square
}
