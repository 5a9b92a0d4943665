// Package host connects a pedal engine to the outside world: it streams a
// source through the engine as 16-bit PCM for a player, optionally tapping
// the processed blocks, and maps MIDI control changes onto the pedal's
// controls.
package host
