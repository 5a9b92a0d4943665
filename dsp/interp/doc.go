// Package interp provides the fractional-delay interpolators used by
// modulated delay lines.
//
// Available methods:
//
//   - [Linear2]:     2-point linear interpolation
//   - [AllpassTick]: first-order all-pass (unity magnitude, phase-only)
//
// The [Mode] enum selects between them at construction time of a delay-based
// effect. All-pass interpolation keeps the magnitude response flat under
// modulation but carries one sample of state per read tap.
package interp
