// Package pedal wires the oscillator, depth modulation, phaser, chorus and
// mixers into the complete phaser/chorus pedal.
//
// Per block the Engine fills two LFO rows, scales them into a phaser
// break-frequency offset and a chorus delay time, clamps both to the ranges
// the effects can take, and then runs the audio path selected by Routing:
//
//	Serial:   dry -> phaser -> (dry+wet)*0.5 -> chorus -> dry*0.5 + wet*0.5
//	Parallel: dry*0.5 + phaser(dry)*0.25 + chorus(dry)*0.25
//
// Prepare allocates everything; ProcessBlock never allocates and never
// blocks. Parameter setters may be called from any goroutine and take
// effect through smoothed ramps on the audio goroutine.
package pedal
