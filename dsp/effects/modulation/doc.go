// Package modulation implements the pedal's modulated effects and the
// stage that turns LFO output into their physical modulation units.
//
// Included processors:
//   - DepthModulator: maps bipolar LFO rows to Hz offsets (phaser row) and
//     delay times in seconds (chorus row) with smoothed depths.
//   - Phaser: four first-order all-pass stages at paired break frequencies,
//     with an optional feedback path ("color").
//   - Chorus: per-channel circular delay read through an all-pass fractional
//     tap, with the output regenerated into the line.
//
// Every processor works in place on a [channel][sample] block and keeps its
// state across calls, so splitting a block never changes the output.
package modulation
