// Package response measures the frequency response of a sample processor
// from its impulse response.
//
// The impulse response is zero-padded to a power-of-two FFT size and
// transformed with algo-fft, so every bin is an exact sample of the
// response of the (truncated) impulse response.
//
// # Usage
//
//	stage, _ := allpass.New(1000)
//	_ = stage.SetSamplePeriod(1.0 / 48000)
//	resp, err := response.Measure(func(x float64) float64 {
//		return stage.ProcessSample(x, 0, 0)
//	}, 48000, 8192)
//	phase := resp.PhaseAt(1000)
//	f90, ok := resp.PhaseCrossing(-math.Pi / 2)
package response
