// Package allpass provides the first-order all-pass stage used by the
// phaser.
//
// The stage implements
//
//	y[n] = a·x[n] + x[n-1] − a·y[n-1]
//	a    = (tan(π·(f0+Δf)·T) − 1) / (tan(π·(f0+Δf)·T) + 1)
//
// which is the bilinear transform of the analog all-pass (1 − s/ωc)/(1 + s/ωc)
// prewarped at f0+Δf: unity gain everywhere, 0° at DC, −90° at the break
// frequency and −180° at Nyquist.
//
// The coefficient is recomputed on every sample because Δf changes on every
// sample. The stage does not clamp f0+Δf; callers keep it inside
// (0, sampleRate/2) before calling ProcessSample.
package allpass
