// Package smooth provides glide-to-target control values for the audio
// thread.
//
// A producer goroutine (UI, MIDI, automation) only ever stores a new target
// with SetTarget, which is a single atomic write. The audio goroutine notices
// the new target on its next Next or Skip call and computes the ramp itself,
// so the interpolation state is never shared and no lock is needed.
//
//	rate := smooth.NewMultiplicative(11)
//	rate.Reset(48000, 0.02)
//	go func() { rate.SetTarget(4) }() // any goroutine
//	for i := range block {
//		inc := rate.Next() / 48000 // audio goroutine
//		...
//	}
package smooth
