package interp

import "fmt"

// Mode selects a fractional-delay interpolation algorithm.
type Mode int

const (
	// Allpass uses first-order all-pass interpolation.
	Allpass Mode = iota
	// Linear uses 2-point linear interpolation.
	Linear
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Allpass:
		return "allpass"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m names a known algorithm.
func (m Mode) Valid() bool {
	return m == Allpass || m == Linear
}

// Linear2 interpolates between a (frac=0) and b (frac=1).
func Linear2(frac, a, b float64) float64 {
	return a + frac*(b-a)
}

// AllpassCoefficient returns the first-order all-pass interpolation
// coefficient frac/(2-frac) for frac in [0,1).
func AllpassCoefficient(frac float64) float64 {
	return frac / (2 - frac)
}

// AllpassTick returns the all-pass interpolated value between a and b:
//
//	y = alpha*(b - prev) + a,  alpha = frac/(2-frac)
//
// prev is the previous output of the same tap. frac=0 returns a exactly.
func AllpassTick(frac, a, b, prev float64) float64 {
	return AllpassCoefficient(frac)*(b-prev) + a
}

// Tick dispatches to the interpolator selected by m.
// prev is ignored by Linear.
func (m Mode) Tick(frac, a, b, prev float64) float64 {
	if m == Linear {
		return Linear2(frac, a, b)
	}
	return AllpassTick(frac, a, b, prev)
}
